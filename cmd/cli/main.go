// Package main is the entry point for the debtorctl CLI.
package main

import (
	"os"

	"debtorbatch/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
