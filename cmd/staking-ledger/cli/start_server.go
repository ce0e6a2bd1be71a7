package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polkapad/staking-ledger/consumer"
	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/db"
	dbmodel "github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/observability/tracing"
	"github.com/polkapad/staking-ledger/internal/queue"
	"github.com/polkapad/staking-ledger/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Deploys the token and staking programs and serves the staking API",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	var dbClient db.DbInterface
	if cfg.Db != nil {
		if err := dbmodel.Setup(ctx, cfg.Db); err != nil {
			return fmt.Errorf("error while setting up staking db model: %w", err)
		}

		database, err := db.New(ctx, *cfg.Db)
		if err != nil {
			return fmt.Errorf("error while creating db client: %w", err)
		}
		defer func() {
			if err := database.Close(context.WithoutCancel(ctx)); err != nil {
				log.Error().Err(err).Msg("error while closing db client")
			}
		}()
		dbClient = db.NewDbWithMetrics(database)
	} else {
		log.Warn().Msg("No db configured, staking events are not persisted")
	}

	var publisher consumer.EventPublisher
	if cfg.Queue != nil {
		// Create a basic zap logger
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("error while creating zap logger: %w", err)
		}
		defer func() {
			_ = zapLogger.Sync()
		}()

		queueManager, err := queue.NewQueueManager(cfg.Queue, zapLogger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		publisher = queueManager
	} else {
		log.Warn().Msg("No queue configured, staking events are not published")
	}

	service := services.NewService(cfg, dbClient, publisher)
	defer service.Shutdown(ctx)

	if err := service.Bootstrap(ctx); err != nil {
		return err
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	reconcilePoller := service.StartReconcilePoller(ctx)
	defer reconcilePoller.Stop()

	return service.StartServer(ctx)
}
