// Package main provides the TraceLens command-line interface.
package main

import (
	"os"

	"github.com/tracelens-labs/tracelens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
