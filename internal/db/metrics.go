package db

import (
	"context"
	"strings"
	"time"

	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/utils"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveStakingEvent(ctx context.Context, event *model.StakingEventDocument) error {
	return d.run(func() error {
		return d.db.SaveStakingEvent(ctx, event)
	})
}

func (d *DbWithMetrics) GetStakingEvents(
	ctx context.Context, account string, limit int64,
) (result []*model.StakingEventDocument, err error) {
	//nolint:errcheck
	d.run(func() error {
		result, err = d.db.GetStakingEvents(ctx, account, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLastStakingEventSeq(ctx context.Context) (result uint64, err error) {
	//nolint:errcheck
	d.run(func() error {
		result, err = d.db.GetLastStakingEventSeq(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertLedgerSnapshot(ctx context.Context, snapshot *model.LedgerSnapshot) error {
	return d.run(func() error {
		return d.db.UpsertLedgerSnapshot(ctx, snapshot)
	})
}

func (d *DbWithMetrics) GetLedgerSnapshot(ctx context.Context) (result *model.LedgerSnapshot, err error) {
	//nolint:errcheck
	d.run(func() error {
		result, err = d.db.GetLedgerSnapshot(ctx)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, the name of
// the calling method and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(f func() error) error {
	method := strings.TrimPrefix(utils.GetFunctionName(1), "(*DbWithMetrics).")
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
