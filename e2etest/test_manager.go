//go:build e2e

package e2etest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polkapad/staking-ledger/e2etest/container"
	"github.com/polkapad/staking-ledger/internal/clients/ledgerclient"
	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/db"
	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/queue"
	"github.com/polkapad/staking-ledger/internal/services"
	"github.com/polkapad/staking-ledger/internal/types"
)

var (
	eventuallyWaitTimeOut = 10 * time.Second
	eventuallyPollTime    = 100 * time.Millisecond

	deployer  = types.ActorIDFromUint64(10)
	programID = types.ActorIDFromUint64(2)
	tokenID   = types.ActorIDFromUint64(1)
)

type TestManager struct {
	Config        *config.Config
	DbClient      *db.Database
	Service       *services.Service
	Server        *httptest.Server
	StakingEvents <-chan amqp.Delivery

	manager  *container.Manager
	amqpConn *amqp.Connection
}

// StartManager runs mongo and rabbitmq, deploys the programs against them
// and serves the staking API.
func StartManager(t *testing.T) *TestManager {
	manager, err := container.NewManager(t)
	require.NoError(t, err)

	mongoAddress, err := manager.RunMongoResource(t)
	require.NoError(t, err)
	amqpURL, err := manager.RunRabbitMQResource(t)
	require.NoError(t, err)

	cfg := DefaultStakingLedgerConfig()
	cfg.Db.Address = mongoAddress
	cfg.Queue.Url = amqpURL
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	require.NoError(t, manager.Retry(func() error {
		return model.Setup(ctx, cfg.Db)
	}))

	dbClient, err := db.New(ctx, *cfg.Db)
	require.NoError(t, err)

	var queueManager *queue.QueueManager
	require.NoError(t, manager.Retry(func() error {
		queueManager, err = queue.NewQueueManager(cfg.Queue, zap.NewNop())
		return err
	}))

	amqpConn, err := amqp.Dial(cfg.Queue.Url)
	require.NoError(t, err)
	stakingEvents := bindTestQueue(t, amqpConn, cfg.Queue.Exchange)

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), queueManager)
	require.NoError(t, service.Bootstrap(ctx))

	return &TestManager{
		Config:        cfg,
		DbClient:      dbClient,
		Service:       service,
		Server:        httptest.NewServer(service.Router()),
		StakingEvents: stakingEvents,
		manager:       manager,
		amqpConn:      amqpConn,
	}
}

// bindTestQueue receives every event published to exchange.
func bindTestQueue(t *testing.T, conn *amqp.Connection, exchange string) <-chan amqp.Delivery {
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "staking.#", exchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

// Client returns an API client sending requests as actor.
func (tm *TestManager) Client(t *testing.T, actor types.ActorID) *ledgerclient.Client {
	cfg := &config.ClientConfig{URL: tm.Server.URL, Actor: actor.String()}
	require.NoError(t, cfg.Validate())
	return ledgerclient.NewClient(cfg)
}

// Restart redeploys the programs against the same db, which is what a
// process restart does.
func (tm *TestManager) Restart(t *testing.T) {
	tm.Server.Close()
	tm.Service.Shutdown(context.Background())

	tm.Service = services.NewService(tm.Config, db.NewDbWithMetrics(tm.DbClient), nil)
	require.NoError(t, tm.Service.Bootstrap(context.Background()))
	tm.Server = httptest.NewServer(tm.Service.Router())
}

func (tm *TestManager) Stop(t *testing.T) {
	tm.Server.Close()
	tm.Service.Shutdown(context.Background())
	require.NoError(t, tm.DbClient.Close(context.Background()))
	require.NoError(t, tm.amqpConn.Close())
	require.NoError(t, tm.manager.ClearResources())
}

func DefaultStakingLedgerConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			Deployer:        deployer.String(),
			ProgramID:       programID.String(),
			TokenID:         tokenID.String(),
			TransferTimeout: 5 * time.Second,
		},
		Token: config.TokenConfig{
			Name:          "Staking Token",
			Symbol:        "STK",
			Decimals:      12,
			InitialSupply: "1000000",
		},
		Db: &config.DbConfig{
			Username: container.MongoUsername,
			Password: container.MongoPassword,
			DbName:   "staking-ledger-e2e",
		},
		Queue: &config.QueueConfig{
			Exchange: "staking_events",
		},
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		Poller: config.PollerConfig{ReconcileInterval: time.Minute},
		Metrics: config.MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}
