// Command billed-users manages the accounts of the SQLite backend.
package main

import (
	"os"

	"billed/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
