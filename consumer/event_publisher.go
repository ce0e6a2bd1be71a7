package consumer

import (
	"context"

	"github.com/polkapad/staking-ledger/internal/types"
)

// EventPublisher broadcasts committed staking events to downstream
// consumers. *queue.QueueManager implements it.
type EventPublisher interface {
	PushStakingEvent(ctx context.Context, event *types.StakingEventRecord) error
	Shutdown() error
}
