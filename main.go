package main

import "catalog-console/cmd"

func main() {
	cmd.Execute()
}
