/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/flatrec/cmd/flatrec/cmd"
)

func main() {
	cmd.Execute()
}
