package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/okian/salaryd/internal/app"
	"github.com/okian/salaryd/internal/config"
	"github.com/okian/salaryd/internal/domain/retrain"
	"github.com/okian/salaryd/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// The logger may not be configured yet.
		_, _ = os.Stderr.WriteString("salaryd: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "salaryd",
		Short:         "Salary estimation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file (overrides "+config.EnvFile+")")

	root.AddCommand(newServeCmd(), newRetrainCmd(), newBootstrapCmd())
	return root
}

// loadConfig resolves configuration and applies the logging settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv(config.EnvFile, path); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Get()
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		log.Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) []app.Option {
	return []app.Option{
		app.WithLogger(logger.Get()),
		app.WithStorage(cfg.Storage, cfg.SQLitePath),
		app.WithModelDir(cfg.ModelDir),
		app.WithEnumerations(cfg.Cities, cfg.JobLevels),
		app.WithMinFeedbackExamples(cfg.MinFeedbackExamples),
		app.WithRidgeAlpha(cfg.RidgeAlpha),
		app.WithRetrainInterval(cfg.RetrainInterval),
		app.WithRetrainOnFeedback(cfg.RetrainOnFeedback),
		app.WithRequireModel(cfg.RequireModel),
		app.WithAppVersion(cfg.AppVersion),
	}
}

func newRetrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Run one champion/challenger retraining cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, (*app.Service).Retrain)
		},
	}
}

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Train and save an initial model from the built-in seed data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, (*app.Service).Bootstrap)
		},
	}
}

// runOnce starts the service without a schedule, runs one job and prints
// the outcome as JSON.
func runOnce(cmd *cobra.Command, job func(*app.Service, context.Context) (retrain.Outcome, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := append(serviceOptions(cfg),
		app.WithRetrainInterval(0),
		app.WithRetrainOnFeedback(false),
		app.WithRequireModel(false),
	)
	svc := app.New(opts...)
	if err := svc.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	out, err := job(svc, cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
