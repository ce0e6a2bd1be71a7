// Package token is a minimal fungible-token program used as the asset
// ledger the staking program delegates transfers to.
package token

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/types"
)

const ProgramName = "token"

type Program struct {
	mu          sync.RWMutex
	initialized bool
	name        string
	symbol      string
	decimals    uint8
	totalSupply types.Amount
	balances    map[types.ActorID]types.Amount
	// allowances[owner][spender]
	allowances map[types.ActorID]map[types.ActorID]types.Amount
}

var _ actor.Program = (*Program)(nil)

func NewProgram() *Program {
	return &Program{
		balances:   make(map[types.ActorID]types.Amount),
		allowances: make(map[types.ActorID]map[types.ActorID]types.Amount),
	}
}

func (p *Program) Init(ctx context.Context, call *actor.Call) error {
	msg, err := codec.Decode[codec.FTInit](call.Payload())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return types.NewErrorWithMsg(http.StatusConflict, types.AlreadyInitialized, "token is already initialized")
	}
	p.initialized = true
	p.name = msg.Name
	p.symbol = msg.Symbol
	p.decimals = msg.Decimals
	p.totalSupply = msg.InitialSupply
	if !msg.InitialSupply.IsZero() {
		p.balances[call.Source()] = msg.InitialSupply
	}

	log.Ctx(ctx).Info().
		Str("name", msg.Name).
		Str("symbol", msg.Symbol).
		Stringer("initial_supply", msg.InitialSupply).
		Stringer("minted_to", call.Source()).
		Msg("Token initialized")

	return nil
}

func (p *Program) Handle(ctx context.Context, call *actor.Call) error {
	action, err := codec.Decode[codec.FTAction](call.Payload())
	if err != nil {
		return err
	}

	var event codec.FTEvent
	switch action.Kind {
	case codec.FTActionTransfer:
		event, err = p.transfer(call.Source(), action.From, action.To, action.Amount)
	case codec.FTActionApprove:
		event, err = p.approve(call.Source(), action.To, action.Amount)
	case codec.FTActionBalanceOf:
		event, err = p.balanceOf(action.Account)
	}
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Stringer("source", call.Source()).Msg("Token action rejected")
		return err
	}

	call.Reply(codec.MustEncode(event))
	return nil
}

// transfer moves amount from from to to. source must be from or hold an
// allowance from it, which the transfer consumes.
func (p *Program) transfer(source, from, to types.ActorID, amount types.Amount) (codec.FTEvent, *types.Error) {
	if amount.IsZero() {
		return codec.FTEvent{}, types.NewErrorWithMsg(
			http.StatusBadRequest,
			types.InvalidAmount,
			"transfer amount must be greater than 0",
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return codec.FTEvent{}, notInitialized()
	}

	var allowance types.Amount
	if source != from {
		allowance = p.allowances[from][source]
		if allowance.LT(amount) {
			return codec.FTEvent{}, types.NewError(
				http.StatusForbidden,
				types.Unauthorized,
				fmt.Errorf("allowance of %s from %s is %s, less than %s", source, from, allowance, amount),
			)
		}
	}

	balance := p.balances[from]
	if balance.LT(amount) {
		return codec.FTEvent{}, types.NewError(
			http.StatusBadRequest,
			types.InsufficientBalance,
			fmt.Errorf("balance of %s is %s, less than %s", from, balance, amount),
		)
	}

	if source != from {
		p.allowances[from][source] = allowance.SaturatingSub(amount)
	}
	p.balances[from] = balance.SaturatingSub(amount)
	p.balances[to] = p.balances[to].SaturatingAdd(amount)

	return codec.FTEvent{Kind: codec.FTEventTransfer, From: from, To: to, Amount: amount}, nil
}

func (p *Program) approve(owner, spender types.ActorID, amount types.Amount) (codec.FTEvent, *types.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return codec.FTEvent{}, notInitialized()
	}
	if _, ok := p.allowances[owner]; !ok {
		p.allowances[owner] = make(map[types.ActorID]types.Amount)
	}
	p.allowances[owner][spender] = amount

	return codec.FTEvent{Kind: codec.FTEventApproval, From: owner, To: spender, Amount: amount}, nil
}

func (p *Program) balanceOf(account types.ActorID) (codec.FTEvent, *types.Error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized {
		return codec.FTEvent{}, notInitialized()
	}
	return codec.FTEvent{Kind: codec.FTEventBalance, From: account, Amount: p.balances[account]}, nil
}

func (p *Program) State(payload []byte) ([]byte, error) {
	query, err := codec.Decode[codec.FTStateQuery](payload)
	if err != nil {
		return nil, err
	}

	event, err := p.balanceOf(query.Account)
	if err != nil {
		return nil, err
	}
	return codec.Encode(event)
}

func (p *Program) BalanceOf(account types.ActorID) types.Amount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[account]
}

func (p *Program) Allowance(owner, spender types.ActorID) types.Amount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowances[owner][spender]
}

func notInitialized() *types.Error {
	return types.NewErrorWithMsg(http.StatusServiceUnavailable, types.NotInitialized, "token is not initialized")
}

type Metadata struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Decimals    uint8        `json:"decimals"`
	TotalSupply types.Amount `json:"total_supply"`
}

func (p *Program) Metadata() Metadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Metadata{
		Name:        p.name,
		Symbol:      p.symbol,
		Decimals:    p.decimals,
		TotalSupply: p.totalSupply,
	}
}
