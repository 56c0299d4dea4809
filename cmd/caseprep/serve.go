package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/config"
	"github.com/dorsta123/Case-Prep/internal/evaluation"
	"github.com/dorsta123/Case-Prep/internal/interview"
	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/logging"
	"github.com/dorsta123/Case-Prep/internal/metrics"
	"github.com/dorsta123/Case-Prep/internal/rating"
	"github.com/dorsta123/Case-Prep/internal/server"
	"github.com/dorsta123/Case-Prep/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the interview, evaluation and leaderboard endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides addr from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Addr = fmt.Sprintf(":%d", servePort)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	stores, err := openBackends(ctx, cfg, serveMigrate, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("failed to close stores", zap.Error(err))
		}
	}()

	llmCfg := cfg.LLMConfig()
	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey())
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer func() { _ = client.Close() }()
	logger.Info("llm client ready",
		zap.String("provider", string(llmCfg.Provider)),
		zap.String("chat_model", client.GetModel(llm.TierChat)),
		zap.String("grading_model", client.GetModel(llm.TierGrading)))

	ratings := rating.NewUpdater(stores.ratings, logger, m)
	orchestrator := interview.NewOrchestrator(client, stores.sessions,
		evaluation.NewGenerator(client, stores.sessions, logger, m),
		ratings,
		interview.WithChatOptions(cfg.ChatOptions()),
		interview.WithLogger(logger),
		interview.WithMetrics(m))

	srv, err := server.New(server.Config{
		Addr:                cfg.Addr,
		GenerationTimeout:   cfg.GenerationTimeout,
		LeaderboardMaxLimit: cfg.LeaderboardMaxLimit,
		RateLimit:           ratelimit.LoadConfig(cfg.RateLimitEnabled),
	}, server.Deps{
		Orchestrator: orchestrator,
		Ratings:      ratings,
		Logger:       logger,
		Metrics:      m,
		Ready:        stores.Ready,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
