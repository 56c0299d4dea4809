package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/config"
	"github.com/dorsta123/Case-Prep/internal/observability"
	"github.com/dorsta123/Case-Prep/internal/progress"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a stored session with its progress and evaluation",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store == config.StoreMemory {
		return fmt.Errorf("show needs a persistent store; set store to %q", config.StorePostgres)
	}

	stores, err := openBackends(cmd.Context(), cfg, false, zap.NewNop())
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	return showSession(cmd.Context(), cmd.OutOrStdout(), stores.sessions, types.SessionID(args[0]))
}

// showSession prints one session. A missing session is a NotFoundError.
func showSession(ctx context.Context, out io.Writer, sessions store.SessionStore, id types.SessionID) error {
	session, err := sessions.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return &types.NotFoundError{SessionID: id}
	}

	fmt.Fprintf(out, "Session %s  participant=%q  industry=%q  domain=%q\n",
		session.ID, session.ParticipantName, session.Scenario.Industry, session.Scenario.Domain)
	p := observability.NewPrinter(out)
	p.PrintTranscript(session.Transcript)
	p.PrintProgress(progress.Explain(session.Transcript))
	p.PrintEvaluation(session.Evaluation)
	return nil
}
