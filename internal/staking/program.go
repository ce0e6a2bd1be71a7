// Package staking holds the staking program: a single ledger of how much
// each account staked of one fungible asset, whose token movements are
// delegated to the asset-ledger program.
package staking

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/observability/tracing"
	"github.com/polkapad/staking-ledger/internal/transfer"
	"github.com/polkapad/staking-ledger/internal/types"
)

const ProgramName = "staking"

// EventSink receives every committed ledger mutation. It must not fail the
// operation: by the time Record is called the transfer already happened.
type EventSink interface {
	Record(ctx context.Context, record types.StakingEventRecord)
}

type noopSink struct{}

func (noopSink) Record(context.Context, types.StakingEventRecord) {}

// caller is the part of *actor.Call the program relies on.
type caller interface {
	transfer.Sender
	Source() types.ActorID
	Payload() []byte
	Reply(payload []byte)
}

type Program struct {
	delegate transfer.Delegate
	sink     EventSink
	ledger   atomic.Pointer[Ledger]
	seq      atomic.Uint64
}

var _ actor.Program = (*Program)(nil)

// NewProgram returns an uninitialized staking program. A nil sink discards
// events.
func NewProgram(delegate transfer.Delegate, sink EventSink) *Program {
	if sink == nil {
		sink = noopSink{}
	}
	return &Program{
		delegate: delegate,
		sink:     sink,
	}
}

// Ledger returns the ledger, or nil before initialization.
func (p *Program) Ledger() *Ledger {
	return p.ledger.Load()
}

func (p *Program) Init(ctx context.Context, call *actor.Call) error {
	if err := p.init(ctx, call); err != nil {
		return err
	}
	return nil
}

func (p *Program) init(ctx context.Context, call caller) *types.Error {
	msg, err := codec.Decode[codec.StakingInit](call.Payload())
	if err != nil {
		return err
	}

	ledger := NewLedger(call.Source(), msg.TokenAddress)
	if !p.ledger.CompareAndSwap(nil, ledger) {
		return types.NewErrorWithMsg(
			http.StatusConflict,
			types.AlreadyInitialized,
			"staking ledger is already initialized",
		)
	}

	log.Ctx(ctx).Info().
		Stringer("owner", ledger.Owner()).
		Stringer("token_address", msg.TokenAddress).
		Msg("Staking ledger initialized")

	return nil
}

func (p *Program) Handle(ctx context.Context, call *actor.Call) error {
	if err := p.handle(ctx, call); err != nil {
		return err
	}
	return nil
}

func (p *Program) handle(ctx context.Context, call caller) *types.Error {
	action, err := codec.Decode[codec.StakingAction](call.Payload())
	if err != nil {
		return err
	}

	ledger := p.ledger.Load()
	if ledger == nil {
		return notInitialized()
	}

	startTime := time.Now()
	switch action.Kind {
	case codec.ActionStake:
		err = p.stake(ctx, call, ledger, action.Amount)
	case codec.ActionWithdraw:
		err = p.withdraw(ctx, call, ledger, action.Amount)
	case codec.ActionStakeOf:
		call.Reply(codec.MustEncode(codec.Staked(ledger.StakeOf(action.Account))))
	case codec.ActionUpdateConfiguration:
		err = p.updateConfiguration(ctx, call, ledger, action.Account)
	}

	var errorCode string
	if err != nil {
		errorCode = err.ErrorCode.String()
		log.Ctx(ctx).Debug().
			Err(err).
			Str("operation", action.Kind.String()).
			Stringer("caller", call.Source()).
			Msg("Staking operation rejected")
	}
	metrics.RecordStakingOperation(time.Since(startTime), action.Kind.String(), errorCode)

	return err
}

func (p *Program) stake(ctx context.Context, call caller, ledger *Ledger, amount types.Amount) *types.Error {
	staker := call.Source()
	if err := ledger.ValidateStake(amount); err != nil {
		return err
	}

	err := p.delegate.Transfer(ctx, call, transfer.Request{
		Token:  ledger.TokenAddress(),
		From:   staker,
		To:     call.ProgramID(),
		Amount: amount,
	})
	if err != nil {
		return err
	}

	balance, total := ledger.Credit(staker, amount)
	p.commit(ctx, call, ledger, codec.Staked(amount), balance, total)

	return nil
}

func (p *Program) withdraw(ctx context.Context, call caller, ledger *Ledger, amount types.Amount) *types.Error {
	staker := call.Source()
	if err := ledger.ValidateWithdraw(staker, amount); err != nil {
		return err
	}

	err := p.delegate.Transfer(ctx, call, transfer.Request{
		Token:  ledger.TokenAddress(),
		From:   call.ProgramID(),
		To:     staker,
		Amount: amount,
	})
	if err != nil {
		return err
	}

	balance, total := ledger.Debit(staker, amount)
	p.commit(ctx, call, ledger, codec.Withdrawed(amount), balance, total)

	return nil
}

func (p *Program) updateConfiguration(
	ctx context.Context, call caller, ledger *Ledger, tokenAddress types.ActorID,
) *types.Error {
	if err := ledger.UpdateTokenAddress(call.Source(), tokenAddress); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Stringer("token_address", tokenAddress).Msg("Staking configuration updated")
	p.record(ctx, call, ledger, codec.ConfigurationUpdate(), types.ZeroAmount(), ledger.TotalStaked())
	call.Reply(codec.MustEncode(codec.ConfigurationUpdate()))

	return nil
}

// commit publishes a mutation that already happened and confirms it to the
// caller. Nothing here can fail the operation.
func (p *Program) commit(
	ctx context.Context, call caller, ledger *Ledger, event codec.StakingEvent, balance, total types.Amount,
) {
	metrics.RecordTotalStaked(total.Float64())
	log.Ctx(ctx).Info().
		Str("event", event.Kind.String()).
		Stringer("staker", call.Source()).
		Stringer("amount", event.Amount).
		Stringer("balance", balance).
		Stringer("total_staked", total).
		Msg("Staking ledger updated")

	p.record(ctx, call, ledger, event, balance, total)

	payload := codec.MustEncode(event)
	if _, err := call.SendForReply(ctx, call.Source(), payload); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event", event.Kind.String()).
			Stringer("staker", call.Source()).
			Msg("Confirmation was not acknowledged")
	}
	call.Reply(payload)
}

func (p *Program) record(
	ctx context.Context, call caller, ledger *Ledger, event codec.StakingEvent, balance, total types.Amount,
) {
	p.sink.Record(ctx, types.StakingEventRecord{
		Seq:          p.seq.Add(1),
		Kind:         event.Kind.String(),
		Account:      call.Source(),
		Amount:       event.Amount,
		Balance:      balance,
		TotalStaked:  total,
		TokenAddress: ledger.TokenAddress(),
		TraceID:      tracing.TraceIDFromContext(ctx),
		CreatedAt:    time.Now().UTC(),
	})
}

// State answers a StakingStateQuery. It only reads and may run concurrently
// with Handle.
func (p *Program) State(payload []byte) ([]byte, error) {
	query, err := codec.Decode[codec.StakingStateQuery](payload)
	if err != nil {
		return nil, err
	}

	ledger := p.ledger.Load()
	if ledger == nil {
		return nil, notInitialized()
	}

	reply := codec.StakingReply{Kind: query.Kind}
	switch query.Kind {
	case codec.StateOwner:
		reply.Account = ledger.Owner()
	case codec.StateStakeOf:
		reply.Account = query.Account
		reply.Amount = ledger.StakeOf(query.Account)
	case codec.StateTotalStaked:
		reply.Amount = ledger.TotalStaked()
	case codec.StateTokenAddress:
		reply.Account = ledger.TokenAddress()
	}

	return codec.Encode(reply)
}

// SetSequence makes the next recorded event use seq+1. It is used when the
// event history already holds earlier records.
func (p *Program) SetSequence(seq uint64) {
	p.seq.Store(seq)
}

func notInitialized() *types.Error {
	return types.NewErrorWithMsg(
		http.StatusServiceUnavailable,
		types.NotInitialized,
		"staking ledger is not initialized",
	)
}
