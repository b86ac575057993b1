// Package utils provides common utility functions for the catalog console.
// It includes the loose value conversions used when records travel between CLI
// flags, JSON bodies and multipart forms.
package utils
