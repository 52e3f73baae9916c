package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldeia/relatos-dashboard/casesapi"
	"github.com/aldeia/relatos-dashboard/config"
	"github.com/aldeia/relatos-dashboard/data"
	"github.com/aldeia/relatos-dashboard/handlers"
	"github.com/aldeia/relatos-dashboard/health"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/loader"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/scheduler"
	"github.com/aldeia/relatos-dashboard/server"
	"github.com/aldeia/relatos-dashboard/session"
	"github.com/aldeia/relatos-dashboard/validation"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:          "relatos-dashboard",
		Short:        "Dashboard backend for community health reports",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before reading the configuration")

	serveCommand := serveCmd()
	rootCmd.RunE = serveCommand.RunE

	rootCmd.AddCommand(serveCommand)
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(submitCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command) (*config.Config, *logging.LoggingService, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logs := logging.InitLogger(logging.Options{
		Dir:            "logs",
		Level:          logging.ParseLevel(cfg.LogLevel),
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	return cfg, logs, nil
}

func newPipeline(cfg *config.Config) (*casesapi.Client, *data.ReportStore, interfaces.DataValidator, *loader.Loader) {
	client := casesapi.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	store := data.NewReportStore()
	validator := validation.NewDataValidator(cfg.MaxAudioSize)
	l := loader.New(client, store, validator, loader.Options{
		CaseLimit:     cfg.ReportCaseLimit,
		Concurrency:   cfg.DetailConcurrency,
		PreviewLength: cfg.PreviewLength,
	})
	return client, store, validator, l
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logs, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logs.Close()
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	client, store, validator, reportLoader := newPipeline(cfg)
	store.SetServerStartTime(time.Now())

	sessions, err := session.NewManager(session.Config{
		Secret:   []byte(cfg.SessionSecret),
		TTL:      cfg.SessionTTL,
		Email:    cfg.DemoEmail,
		Password: cfg.DemoPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	sessions.Start()
	defer sessions.Close()

	sched := scheduler.NewScheduler(reportLoader, store, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		DataStore:     store,
		Validator:     validator,
		Cases:         client,
		Loader:        reportLoader,
		Sessions:      sessions,
		HealthChecker: health.NewHealthChecker(store, cfg.RefreshInterval, sched.NextRun),
	}, handlers.Options{
		DefaultLimit:  cfg.ReportCaseLimit,
		PreviewLength: cfg.PreviewLength,
	})
	srv := server.NewServer(cfg, handler, sessions)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logging.Error("Server failed to start", "error", err)
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
