// Package main is the entry point for the jsonstore CLI.
//
// Usage:
//
//	jsonstore [flags] <command> [args]
//
// Commands:
//
//	read       - Read a JSON file
//	write      - Write a JSON file
//	rm         - Remove a JSON file
//	ls         - List a directory
//	wipe       - Remove everything stored in a backend
//	backends   - List the available backends
//	use        - Set the default backend
//	config     - Configuration management
//	version    - Show version information
package main

import (
	"os"

	"github.com/haivivi/jsonstore/cmd/jsonstore/commands"
	"github.com/haivivi/jsonstore/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
