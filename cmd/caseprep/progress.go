package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dorsta123/Case-Prep/internal/observability"
	"github.com/dorsta123/Case-Prep/internal/progress"
	"github.com/dorsta123/Case-Prep/internal/schemas"
	"github.com/dorsta123/Case-Prep/internal/types"
)

var (
	progressInput  string
	progressPretty bool
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Estimate progress for a transcript file",
	Long: `Read a transcript (a JSON array of {"role","content"} turns), validate it
and print the progress estimate with its breakdown. Use "-" to read stdin.`,
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().StringVarP(&progressInput, "in", "i", "", "Path to transcript JSON file (required)")
	progressCmd.Flags().BoolVar(&progressPretty, "pretty", false, "Print boxed summaries instead of JSON")
	_ = progressCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, _ []string) error {
	var (
		raw []byte
		err error
	)
	if progressInput == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(progressInput)
	}
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	if err := schemas.Validate(schemas.Transcript, string(raw)); err != nil {
		return err
	}
	var transcript types.Transcript
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return fmt.Errorf("failed to parse transcript: %w", err)
	}

	if progressPretty {
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintTranscript(transcript)
		p.PrintProgress(progress.Explain(transcript))
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(progress.Explain(transcript))
}
