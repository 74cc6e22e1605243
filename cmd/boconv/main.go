/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/boconv/cmd/boconv/cmd"
)

func main() {
	cmd.Execute()
}
