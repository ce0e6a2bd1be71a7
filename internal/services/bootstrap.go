package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/staking"
	"github.com/polkapad/staking-ledger/internal/token"
	"github.com/polkapad/staking-ledger/internal/transfer"
	"github.com/polkapad/staking-ledger/internal/types"
)

// Bootstrap deploys the token and the staking program, both initialized by
// the configured deployer, who thereby owns the staking ledger and the
// initial token supply.
func (s *Service) Bootstrap(ctx context.Context) error {
	log := log.Ctx(ctx)

	res := s.system.Spawn(ctx, s.tokenID, token.ProgramName, s.token, s.deployer, codec.MustEncode(codec.FTInit{
		Name:          s.cfg.Token.Name,
		Symbol:        s.cfg.Token.Symbol,
		Decimals:      s.cfg.Token.Decimals,
		InitialSupply: s.cfg.Token.Supply(),
	}))
	if res.Failed() {
		return fmt.Errorf("failed to deploy token: %w", res.Err)
	}

	delegate := transfer.NewDelegateWithMetrics(transfer.NewTokenDelegate(s.cfg.Ledger.TransferTimeout))
	s.staking = staking.NewProgram(delegate, s)

	if s.db != nil {
		seq, err := s.db.GetLastStakingEventSeq(ctx)
		if err != nil {
			return fmt.Errorf("failed to read the last staking event: %w", err)
		}
		// the ledger starts empty, the history continues
		s.staking.SetSequence(seq)
	}

	res = s.system.Spawn(ctx, s.program, staking.ProgramName, s.staking, s.deployer,
		codec.MustEncode(codec.StakingInit{TokenAddress: s.tokenID}))
	if res.Failed() {
		return fmt.Errorf("failed to deploy staking program: %w", res.Err)
	}

	log.Info().
		Stringer("deployer", s.deployer).
		Stringer("staking_program", s.program).
		Stringer("token", s.tokenID).
		Dur("transfer_timeout", s.cfg.Ledger.TransferTimeout).
		Msg("Programs deployed")

	return nil
}

// Owner is the account that initialized the staking ledger.
func (s *Service) Owner() types.ActorID {
	return s.deployer
}
