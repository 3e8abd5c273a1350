package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepath/carepath/internal/config"
	"github.com/carepath/carepath/internal/domain/concept"
	"github.com/carepath/carepath/internal/domain/event"
	"github.com/carepath/carepath/internal/domain/examination"
	"github.com/carepath/carepath/internal/domain/finding"
	"github.com/carepath/carepath/internal/domain/workflow"
	"github.com/carepath/carepath/internal/platform/auth"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/middleware"
	"github.com/carepath/carepath/internal/platform/terminology"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carepath-server",
		Short: "Clinical workflow and examination reconciliation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(workerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run event queue workers without the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			queue := event.NewQueue(event.NewRepo(pool), db.RunnerFor(pool), cfg.EventRetryDelay, logger)

			workerCtx, cancel := context.WithCancel(ctx)
			var wg sync.WaitGroup
			startEventWorkers(workerCtx, &wg, queue, cfg, logger)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Info().Msg("stopping workers")
			cancel()
			wg.Wait()
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// startEventWorkers launches the configured number of drainers per
// reconciliation event type. The handlers only log for now; claiming
// keeps parallel workers from double-processing.
func startEventWorkers(ctx context.Context, wg *sync.WaitGroup, queue *event.Queue, cfg *config.Config, logger zerolog.Logger) {
	notify := func(ctx context.Context, e *event.Event) error {
		logger.Info().
			Str("event_id", e.ID.String()).
			Str("event_type", e.Type).
			RawJSON("payload", e.Payload).
			Msg("reconciliation event")
		return nil
	}

	for _, eventType := range []string{examination.EventExaminationReconciled, finding.EventFindingReconciled} {
		for i := 0; i < cfg.EventWorkers; i++ {
			w := event.NewWorker(queue, eventType, notify, cfg.EventPollInterval, logger)
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(ctx)
			}()
		}
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() && cfg.JWTSecret == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", func(c echo.Context) error {
		if err := db.Health(c.Request().Context(), pool, 2*time.Second); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1")
	runner := db.RunnerFor(pool)

	// Event queue first: the reconcilers enqueue into it.
	queue := event.NewQueue(event.NewRepo(pool), runner, cfg.EventRetryDelay, logger)
	event.NewHandler(queue).RegisterRoutes(apiV1)

	// Concept cache, backed by the terminology collaborator when one
	// is configured.
	var lookup terminology.Lookup
	if cfg.TerminologyURL != "" {
		lookup = terminology.NewClient(cfg.TerminologyURL)
	}
	conceptSvc := concept.NewService(concept.NewRepo(pool), lookup)

	// Workflow sequencing
	workflowSvc := workflow.NewService(workflow.NewRepo(pool))
	workflow.NewHandler(workflowSvc).RegisterRoutes(apiV1)

	// Examination planning and reconciliation
	examRepo := examination.NewRepo(pool)
	examSvc := examination.NewService(examRepo, runner, queue)
	examination.NewHandler(examSvc).RegisterRoutes(apiV1)

	// Findings reconciliation
	findingSvc := finding.NewService(finding.NewRepo(pool), conceptSvc, examRepo, runner, queue)
	finding.NewHandler(findingSvc).RegisterRoutes(apiV1)

	// Event workers share the process in serve mode; the worker
	// subcommand runs them standalone.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	var wg sync.WaitGroup
	startEventWorkers(workerCtx, &wg, queue, cfg, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	cancelWorkers()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
