package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/consumer"
	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/db"
	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/staking"
	"github.com/polkapad/staking-ledger/internal/token"
	"github.com/polkapad/staking-ledger/internal/types"
)

// Service hosts the staking and token programs and exposes their operations
// to the API. db and publisher are optional.
type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	publisher consumer.EventPublisher

	system   *actor.System
	staking  *staking.Program
	token    *token.Program
	deployer types.ActorID
	program  types.ActorID
	tokenID  types.ActorID
}

func NewService(cfg *config.Config, db db.DbInterface, publisher consumer.EventPublisher) *Service {
	deployer, program, tokenID := cfg.Ledger.IDs()
	return &Service{
		cfg:       cfg,
		db:        db,
		publisher: publisher,
		system:    actor.NewSystem(cfg.Ledger.MailboxSize),
		token:     token.NewProgram(),
		deployer:  deployer,
		program:   program,
		tokenID:   tokenID,
	}
}

func (s *Service) ProgramID() types.ActorID {
	return s.program
}

func (s *Service) TokenID() types.ActorID {
	return s.tokenID
}

func (s *Service) Stake(ctx context.Context, caller types.ActorID, amount types.Amount) *actor.RunResult {
	return s.sendStaking(ctx, caller, codec.Stake(amount))
}

func (s *Service) Withdraw(ctx context.Context, caller types.ActorID, amount types.Amount) *actor.RunResult {
	return s.sendStaking(ctx, caller, codec.Withdraw(amount))
}

func (s *Service) StakeOf(ctx context.Context, caller, account types.ActorID) *actor.RunResult {
	return s.sendStaking(ctx, caller, codec.StakeOf(account))
}

func (s *Service) UpdateConfiguration(ctx context.Context, caller, tokenAddress types.ActorID) *actor.RunResult {
	return s.sendStaking(ctx, caller, codec.UpdateConfiguration(tokenAddress))
}

func (s *Service) sendStaking(ctx context.Context, caller types.ActorID, action codec.StakingAction) *actor.RunResult {
	return s.system.Send(ctx, caller, s.program, codec.MustEncode(action))
}

// QueryState reads the staking ledger without going through its inbox.
func (s *Service) QueryState(query codec.StakingStateQuery) (*codec.StakingReply, *types.Error) {
	state, err := s.system.ReadState(s.program, codec.MustEncode(query))
	if err != nil {
		return nil, types.AsError(err)
	}
	return codec.Decode[codec.StakingReply](state)
}

func (s *Service) Approve(ctx context.Context, caller, spender types.ActorID, amount types.Amount) *actor.RunResult {
	return s.system.Send(ctx, caller, s.tokenID, codec.MustEncode(codec.FTApprove(spender, amount)))
}

func (s *Service) TransferTokens(
	ctx context.Context, caller, from, to types.ActorID, amount types.Amount,
) *actor.RunResult {
	return s.system.Send(ctx, caller, s.tokenID, codec.MustEncode(codec.FTTransfer(from, to, amount)))
}

// TokenBalance reads the balance of account on the asset ledger at token.
func (s *Service) TokenBalance(token, account types.ActorID) (types.Amount, *types.Error) {
	state, err := s.system.ReadState(token, codec.MustEncode(codec.FTStateQuery{Account: account}))
	if err != nil {
		return types.Amount{}, types.AsError(err)
	}
	event, decodeErr := codec.Decode[codec.FTEvent](state)
	if decodeErr != nil {
		return types.Amount{}, decodeErr
	}
	return event.Amount, nil
}

func (s *Service) TokenMetadata() token.Metadata {
	return s.token.Metadata()
}

func (s *Service) StakingEvents(ctx context.Context, account string, limit int64) ([]*model.StakingEventDocument, *types.Error) {
	if s.db == nil {
		return nil, types.NewErrorWithMsg(http.StatusNotImplemented, types.NotFound, "event history is not configured")
	}
	events, err := s.db.GetStakingEvents(ctx, account, limit)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return events, nil
}

// Shutdown stops the programs, then releases the publisher.
func (s *Service) Shutdown(ctx context.Context) {
	s.system.Stop()
	if s.publisher != nil {
		if err := s.publisher.Shutdown(); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shut down event publisher")
		}
	}
}
