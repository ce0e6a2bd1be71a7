package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/utils/poller"
)

// StartReconcilePoller periodically compares the staking program's balance
// on the asset ledger with the total it recorded.
func (s *Service) StartReconcilePoller(ctx context.Context) *poller.Poller {
	reconcilePoller := poller.NewPoller(
		"reconcile",
		s.cfg.Poller.ReconcileInterval,
		metrics.RecordPollerDuration("reconcile", s.reconcile),
	)
	go reconcilePoller.Start(ctx)
	return reconcilePoller
}

// reconcile reports the difference between the tokens the staking program
// holds and TotalStaked. A deficit means stakes are not backed by tokens; a
// surplus appears when a transfer is applied after the staking program gave
// up waiting for it, or when tokens are sent to the program directly.
func (s *Service) reconcile(ctx context.Context) error {
	log := log.Ctx(ctx)

	tokenAddress, err := s.QueryState(codec.StakingStateQuery{Kind: codec.StateTokenAddress})
	if err != nil {
		return fmt.Errorf("failed to read token address: %w", err)
	}
	total, err := s.QueryState(codec.StakingStateQuery{Kind: codec.StateTotalStaked})
	if err != nil {
		return fmt.Errorf("failed to read total staked: %w", err)
	}
	held, err := s.TokenBalance(tokenAddress.Account, s.program)
	if err != nil {
		return fmt.Errorf("failed to read balance on %s: %w", tokenAddress.Account, err)
	}

	diff := new(big.Int).Sub(held.BigInt(), total.Amount.BigInt())
	diffFloat, _ := new(big.Float).SetInt(diff).Float64()
	metrics.RecordReconcileDifference(diffFloat)
	metrics.RecordTotalStaked(total.Amount.Float64())

	switch diff.Sign() {
	case -1:
		log.Error().
			Stringer("held", held).
			Stringer("total_staked", total.Amount).
			Stringer("deficit", new(big.Int).Neg(diff)).
			Msg("Staked total is not backed by the asset ledger")
	case 1:
		log.Warn().
			Stringer("held", held).
			Stringer("total_staked", total.Amount).
			Stringer("surplus", diff).
			Msg("Asset ledger holds more than the staked total")
	default:
		log.Debug().Stringer("total_staked", total.Amount).Msg("Staking ledger reconciled")
	}

	return nil
}
