package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mrk/internal/domain/timeline"
	"mrk/internal/infrastructure/postgres/listener"
	"mrk/internal/interfaces/scheduler"
	"mrk/internal/shared/config"
	"mrk/internal/shared/logger"
	"mrk/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		l := logger.Default()
		l.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		l := logger.Default()
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("service", cfg.Telemetry.ServiceName).Logger()
	logger.SetDefault(log)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(cfg *config.Config) error {
	log := logger.Default()
	ctx := logger.WithContext(context.Background(), log)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Error().Err(err).Msg("telemetry shutdown failed")
			}
		}()
		if err != nil {
			return err
		}
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if cfg.Database.ListenProjects {
		projectsListener := listener.NewProjectsListener(cfg.Database.ConnectionString(), deps.ProjectService)
		projectsListener.Start(ctx)
		defer projectsListener.Stop()
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			Clock:         timeline.ZoneClock{Location: cfg.Server.Location()},
			JobProvider:   scheduler.ReconcileProvider(deps.ReconciliationService),
		})
		if err != nil {
			return err
		}
		sched.Start()
	} else {
		log.Info().Msg("scheduler is disabled")
	}

	handler := SetupRoutes(deps, cfg, log)
	srv, redirectSrv, serveErr := StartServers(NewServerConfigFromConfig(handler, cfg), log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err = <-serveErr:
		log.Error().Err(err).Msg("server failed")
	}

	GracefulShutdown(srv, redirectSrv, sched, shutdownTimeout, log)
	return err
}
