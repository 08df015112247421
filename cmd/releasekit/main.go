// Package main provides the releasekit command-line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "releasekit",
	Short: "Release orchestration pipeline",
	Long: `releasekit turns a bump intent into a published release: it resolves the
next semantic version, harvests the pending draft release notes, rewrites the
changelog, commits and tags, publishes the release, builds the distributable
artifacts, uploads them to the package registry, and attaches them to the
release record.`,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
