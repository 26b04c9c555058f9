// Command trustd runs the trust engine daemon: it applies migrations,
// opens the database pool, and hosts the periodic decay sweep.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/commonshub/trustcore/internal/config"
	"github.com/commonshub/trustcore/internal/jobs"
	"github.com/commonshub/trustcore/internal/migrate"
	"github.com/commonshub/trustcore/internal/repository/postgres"
	"github.com/commonshub/trustcore/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	skipMigrate := flag.Bool("skip-migrate", false, "do not run migrations on boot")
	sweepOnce := flag.Bool("sweep-once", false, "run one decay sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("load config", zap.Error(err))
	}

	logger := buildLogger(cfg)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("env", cfg.AppEnv),
		zap.String("sweepSchedule", cfg.SweepSchedule),
		zap.Bool("scoreCountExpired", cfg.ScoreCountExpired),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*skipMigrate {
		if err := migrate.Up(ctx, cfg.DatabaseDSN()); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN())
	if err != nil {
		logger.Fatal("open pool", zap.Error(err))
	}
	defer db.Close()

	trustRepo := postgres.NewTrustRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)
	communityRepo := postgres.NewCommunityRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	reconstructor := service.NewReconstructor(historyRepo, trustRepo)
	sweep := jobs.NewDecaySweep(trustRepo, communityRepo, notificationRepo, reconstructor, logger)

	if *sweepOnce {
		sweep.Run(ctx)
		return
	}

	sched, err := jobs.NewScheduler(sweep, cfg.SweepSchedule, logger)
	if err != nil {
		logger.Fatal("schedule sweep", zap.Error(err))
	}
	sched.Start()

	<-ctx.Done()
	sched.Stop()
	logger.Info("shutdown complete")
}

func buildLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.AppEnv == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(cfg.AppLogLevel); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
