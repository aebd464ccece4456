// Package main is the entry point for the pscue CLI.
package main

import (
	"os"

	"github.com/pscue/pscue/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
