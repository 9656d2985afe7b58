// Package main provides the sectionvault entry point.
package main

import (
	"fmt"
	"os"

	"github.com/voyagen/sectionvault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
