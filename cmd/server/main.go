package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/engineer-capacity/internal/adapters/grpc/handler"
	"github.com/ogurasousui/engineer-capacity/internal/adapters/repository/postgres"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"github.com/ogurasousui/engineer-capacity/internal/platform/config"
	pg "github.com/ogurasousui/engineer-capacity/internal/platform/db/postgres"
	"github.com/ogurasousui/engineer-capacity/internal/platform/logger"
	"github.com/ogurasousui/engineer-capacity/internal/platform/metrics"
	"github.com/ogurasousui/engineer-capacity/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	if err := run(ctx, cfgPath); err != nil {
		slog.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	tokens, err := session.NewTokenStore(credentials(cfg.Auth))
	if err != nil {
		return fmt.Errorf("init token store: %w", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	metricsManager := metrics.NewManager(metrics.WithRuntimeCollectors())

	engineerRepo := postgres.NewEngineerRepository(dbPool)
	projectRepo := postgres.NewProjectRepository(dbPool)
	assignmentRepo := postgres.NewAssignmentRepository(dbPool)

	engineerSvc := engineer.NewService(engineerRepo, nil, txManager, engineer.WithDefaultMaxCapacity(cfg.Capacity.DefaultMaxCapacity))
	projectSvc := project.NewService(projectRepo, nil, txManager)
	assignmentSvc := assignment.NewService(assignmentRepo, engineerRepo, projectRepo, nil, txManager, metricsManager)

	grpcServer := server.New(cfg.Server.ListenAddr, server.Handlers{
		Engineers:   handler.NewEngineerGrpcHandler(engineerSvc, nil),
		Projects:    handler.NewProjectGrpcHandler(projectSvc, nil),
		Assignments: handler.NewAssignmentGrpcHandler(assignmentSvc, nil),
	}, server.Dependencies{
		Logger:        log,
		Metrics:       metricsManager,
		Authenticator: tokens,
	})

	if cfg.Server.MetricsAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux(metricsManager)}
		go func() {
			log.Info("metrics server listening", slog.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown", slog.String("error", err.Error()))
			}
		}()
	}

	return grpcServer.Run(ctx)
}

func metricsMux(m *metrics.Manager) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func credentials(auth config.AuthConfig) []session.Credential {
	out := make([]session.Credential, 0, len(auth.Tokens))
	for _, t := range auth.Tokens {
		out = append(out, session.Credential{
			Token: t.Token,
			User: session.User{
				ID:    t.UserID,
				Email: t.Email,
				Role:  session.Role(t.Role),
			},
		})
	}
	return out
}
