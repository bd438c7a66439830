// Package main generates markdown reference documentation for the
// TraceLens CLI from its Cobra command tree.
//
// Usage:
//
//	go run ./scripts/gendocs -outdir=docs/cli
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
)

var outDirFlag = flag.String("outdir", "", "output directory (defaults to docs/cli under the project root)")

func main() {
	flag.Parse()

	outDir := *outDirFlag
	if outDir == "" {
		projectRoot, err := findProjectRoot()
		if err != nil {
			log.Fatalf("failed to find project root: %v", err)
		}
		outDir = filepath.Join(projectRoot, "docs", "cli")
	}

	if err := generateCLIDocs(outDir); err != nil {
		log.Fatalf("failed to generate CLI docs: %v", err)
	}

	log.Println("Done!")
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
