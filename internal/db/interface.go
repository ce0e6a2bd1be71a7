package db

import (
	"context"

	"github.com/polkapad/staking-ledger/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error
	// SaveStakingEvent fails with DuplicateKeyError when the seq is taken
	SaveStakingEvent(ctx context.Context, event *model.StakingEventDocument) error
	// GetStakingEvents returns the latest events first. An empty account
	// matches every account.
	GetStakingEvents(ctx context.Context, account string, limit int64) ([]*model.StakingEventDocument, error)
	// GetLastStakingEventSeq returns 0 when no event was saved yet
	GetLastStakingEventSeq(ctx context.Context) (uint64, error)
	UpsertLedgerSnapshot(ctx context.Context, snapshot *model.LedgerSnapshot) error
	// GetLedgerSnapshot fails with NotFoundError before the first upsert
	GetLedgerSnapshot(ctx context.Context) (*model.LedgerSnapshot, error)
}
