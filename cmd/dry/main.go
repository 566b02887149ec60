// Package main provides the entry point for the dry CLI.
package main

import (
	"os"

	"github.com/dryscan/dryscan/cmd/dry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
