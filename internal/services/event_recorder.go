package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/types"
)

const (
	sinkDb    = "db"
	sinkQueue = "queue"
)

// Record persists and publishes a committed staking event. It runs on the
// staking program goroutine, so the ledger snapshot it takes matches the
// event. Failures are logged and counted only. The event is committed, so
// the sinks are not bound to the cancellation of the request.
func (s *Service) Record(ctx context.Context, record types.StakingEventRecord) {
	ctx = context.WithoutCancel(ctx)
	log := log.Ctx(ctx).With().Uint64("seq", record.Seq).Str("kind", record.Kind).Logger()

	if s.db != nil {
		if err := s.db.SaveStakingEvent(ctx, model.FromStakingEventRecord(record)); err != nil {
			metrics.IncEventSinkFailures(sinkDb)
			log.Error().Err(err).Msg("Failed to save staking event")
		}
		if err := s.db.UpsertLedgerSnapshot(ctx, s.ledgerSnapshot(record.Seq)); err != nil {
			metrics.IncEventSinkFailures(sinkDb)
			log.Error().Err(err).Msg("Failed to save ledger snapshot")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PushStakingEvent(ctx, &record); err != nil {
			metrics.IncEventSinkFailures(sinkQueue)
			log.Error().Err(err).Msg("Failed to publish staking event")
		}
	}
}

func (s *Service) ledgerSnapshot(seq uint64) *model.LedgerSnapshot {
	snapshot := s.staking.Ledger().Snapshot()

	stakers := make([]model.StakerBalance, 0, len(snapshot.Stakers))
	for account, balance := range snapshot.Stakers {
		stakers = append(stakers, model.StakerBalance{
			Account: account.String(),
			Balance: balance.String(),
		})
	}
	sort.Slice(stakers, func(i, j int) bool {
		return stakers[i].Account < stakers[j].Account
	})

	return &model.LedgerSnapshot{
		Owner:        snapshot.Owner.String(),
		TokenAddress: snapshot.TokenAddress.String(),
		TotalStaked:  snapshot.TotalStaked.String(),
		Stakers:      stakers,
		LastSeq:      seq,
		UpdatedAt:    time.Now().UTC(),
	}
}
