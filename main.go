package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"groscales/config"
	"groscales/middleware"
	"groscales/repository"
	"groscales/routes"
	"groscales/services"
	"groscales/sms"
	"groscales/utils"
	"groscales/worker"
)

// app holds what every subcommand shares.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *gorm.DB
	flush  func()
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg)
	flush := config.InitSentry(cfg, logger)

	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		flush()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, db: db, flush: flush}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	a.flush()
}

func main() {
	root := &cobra.Command{
		Use:           "groscales",
		Short:         "GroScales SMS CRM backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), runWorkflowCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, webhooks and the workflow dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
	return cmd
}

func serve(ctx context.Context, a *app, skipMigrate bool) error {
	a.cfg.LogConfig(a.logger)
	if !skipMigrate {
		if err := config.MigrateDB(a.db, a.logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos := repository.NewGormRepositories(a.db)
	hub := utils.NewThreadHub(32)
	transport := sms.NewTransport(a.cfg, a.logger)
	svc := services.New(a.cfg, repos, transport, hub, a.logger)

	dispatcher := worker.NewWorkflowDispatcher(svc.Runner, a.cfg.Workflow.Concurrency, a.cfg.Workflow.QueueSize, a.logger)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Start(ctx)
	}()

	server := fiber.New(fiber.Config{
		AppName:      "groscales",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	server.Use(recover.New())
	server.Use(middleware.CORS(middleware.CORSForOrigins(a.cfg.AllowedOrigins)))

	routes.SetupRoutes(server, routes.Dependencies{
		Config:           a.cfg,
		Repos:            repos,
		Services:         svc,
		Hub:              hub,
		Queue:            dispatcher,
		RateLimitStorage: middleware.NewRateLimitStorage(a.cfg.Redis),
		Logger:           a.logger,
	})

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.WithFields(logrus.Fields{
			"port":    a.cfg.ServerPort,
			"dry_run": transport.DryRun(),
		}).Info("🚀 Server starting")
		serverErrors <- server.Listen(":" + a.cfg.ServerPort)
	}()

	select {
	case err := <-serverErrors:
		stop()
		<-dispatcherDone
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}

	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		a.logger.WithError(err).Warn("Graceful HTTP shutdown failed")
	}
	<-dispatcherDone
	a.logger.Info("Server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return config.MigrateDB(a.db, a.logger)
		},
	}
}

func runWorkflowCmd() *cobra.Command {
	var leadID, workflowID uint
	cmd := &cobra.Command{
		Use:   "run-workflow",
		Short: "Run one workflow against one lead in the foreground and print the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			repos := repository.NewGormRepositories(a.db)
			svc := services.New(a.cfg, repos, sms.NewTransport(a.cfg, a.logger), nil, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary := svc.Runner.Run(ctx, leadID, workflowID)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().UintVar(&leadID, "lead", 0, "lead id")
	cmd.Flags().UintVar(&workflowID, "workflow", 0, "workflow id")
	_ = cmd.MarkFlagRequired("lead")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}
