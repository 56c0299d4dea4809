// Package main provides the entry point for the case interview API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "caseprep",
	Short: "Case interview practice server",
	Long:  "caseprep runs live consulting case interviews against a generative model, grades finished sessions and keeps a participant leaderboard.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
