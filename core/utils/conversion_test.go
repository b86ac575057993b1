package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"Float", 12.5, 12.5, true},
		{"Int", 3, 3, true},
		{"String", "19.99", 19.99, true},
		{"PaddedString", " 4 ", 4, true},
		{"JSONNumber", json.Number("2.25"), 2.25, true},
		{"Bytes", []byte("7"), 7, true},
		{"NonNumeric", "abc", 0, false},
		{"Nil", nil, 0, false},
		{"Bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 5, ToInt("5"))
	assert.Equal(t, 5, ToInt(5.9))
	assert.Equal(t, 0, ToInt("x"))
	assert.Equal(t, 9, ToInt([]byte("9")))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "7", ToString(float64(7)))
	assert.Equal(t, "7.5", ToString(7.5))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "abc", ToString([]byte("abc")))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("yes"))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank("   "))
	assert.True(t, IsBlank([]any{}))
	assert.False(t, IsBlank(0))
	assert.False(t, IsBlank("x"))
	assert.False(t, IsBlank(false))
}
