package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/polkapad/staking-ledger/consumer"
	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/types"
)

const routingKeyPrefix = "staking."

// channel is the subset of *amqp.Channel the manager uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueManager publishes committed staking events to a topic exchange,
// routed by "staking.<kind>".
type QueueManager struct {
	cfg    *config.QueueConfig
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

var _ consumer.EventPublisher = (*QueueManager)(nil)

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	conn, err := amqp.Dial(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the queue: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a queue channel: %w", err)
	}

	qm, err := newQueueManager(cfg, ch, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	qm.conn = conn

	return qm, nil
}

func newQueueManager(cfg *config.QueueConfig, ch channel, logger *zap.Logger) (*QueueManager, error) {
	err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &QueueManager{
		cfg:    cfg,
		logger: logger.With(zap.String("exchange", cfg.Exchange)),
		ch:     ch,
	}, nil
}

func (qm *QueueManager) PushStakingEvent(ctx context.Context, event *types.StakingEventRecord) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal staking event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	qm.mu.Lock()
	defer qm.mu.Unlock()

	err = qm.ch.PublishWithContext(ctx, qm.cfg.Exchange, routingKeyPrefix+event.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%d", event.Seq),
		Timestamp:    event.CreatedAt,
		Body:         body,
	})
	if err != nil {
		metrics.RecordQueueSendError()
		qm.logger.Error("failed to publish staking event",
			zap.Uint64("seq", event.Seq),
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish staking event %d: %w", event.Seq, err)
	}

	qm.logger.Debug("staking event published", zap.Uint64("seq", event.Seq), zap.String("kind", event.Kind))
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.logger.Info("shutting down queue manager")
	if err := qm.ch.Close(); err != nil {
		return err
	}
	if qm.conn != nil {
		return qm.conn.Close()
	}
	return nil
}
