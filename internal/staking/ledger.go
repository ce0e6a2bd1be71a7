package staking

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/polkapad/staking-ledger/internal/types"
)

// Ledger is the bookkeeping of how much each account staked through the
// program. totalStaked always equals the sum of stakers outside of a
// mutation. Writes happen on the program goroutine only; the mutex exists
// for the concurrent read-only state queries.
type Ledger struct {
	mu           sync.RWMutex
	owner        types.ActorID
	tokenAddress types.ActorID
	stakers      map[types.ActorID]types.Amount
	totalStaked  types.Amount
}

func NewLedger(owner, tokenAddress types.ActorID) *Ledger {
	return &Ledger{
		owner:        owner,
		tokenAddress: tokenAddress,
		stakers:      make(map[types.ActorID]types.Amount),
		totalStaked:  types.ZeroAmount(),
	}
}

func (l *Ledger) Owner() types.ActorID {
	// immutable after construction
	return l.owner
}

func (l *Ledger) TokenAddress() types.ActorID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokenAddress
}

func (l *Ledger) TotalStaked() types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalStaked
}

// StakeOf returns the recorded stake of staker, zero when unknown. It never
// creates an entry.
func (l *Ledger) StakeOf(staker types.ActorID) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.stakers[staker]
	if !ok {
		return types.ZeroAmount()
	}
	return balance
}

func (l *Ledger) HasStaker(staker types.ActorID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.stakers[staker]
	return ok
}

// ValidateStake runs every stake check that precedes the transfer.
func (l *Ledger) ValidateStake(amount types.Amount) *types.Error {
	return validateAmount(amount)
}

// ValidateWithdraw runs every withdraw check that precedes the transfer.
func (l *Ledger) ValidateWithdraw(staker types.ActorID, amount types.Amount) *types.Error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.RLock()
	balance, ok := l.stakers[staker]
	l.mu.RUnlock()

	if !ok {
		return types.NewError(
			http.StatusNotFound,
			types.UnknownStaker,
			fmt.Errorf("staker %s not found", staker),
		)
	}
	if balance.LT(amount) {
		return types.NewError(
			http.StatusBadRequest,
			types.InsufficientBalance,
			fmt.Errorf("staker balance is %s, which is less than the withdraw amount %s", balance, amount),
		)
	}

	return nil
}

// Credit records a confirmed stake. The entry is created when absent.
func (l *Ledger) Credit(staker types.ActorID, amount types.Amount) (balance, total types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance = l.stakers[staker].SaturatingAdd(amount)
	l.stakers[staker] = balance
	l.totalStaked = l.totalStaked.SaturatingAdd(amount)

	return balance, l.totalStaked
}

// Debit records a confirmed withdrawal. A zero balance stays in the map.
func (l *Ledger) Debit(staker types.ActorID, amount types.Amount) (balance, total types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance = l.stakers[staker].SaturatingSub(amount)
	l.stakers[staker] = balance
	l.totalStaked = l.totalStaked.SaturatingSub(amount)

	return balance, l.totalStaked
}

// UpdateTokenAddress replaces the asset ledger address. Only the owner may
// call it.
func (l *Ledger) UpdateTokenAddress(caller, tokenAddress types.ActorID) *types.Error {
	if caller != l.owner {
		return types.NewError(
			http.StatusForbidden,
			types.Unauthorized,
			fmt.Errorf("only the owner %s may update the configuration, got %s", l.owner, caller),
		)
	}

	l.mu.Lock()
	l.tokenAddress = tokenAddress
	l.mu.Unlock()

	return nil
}

// Snapshot is a consistent copy of the ledger.
type Snapshot struct {
	Owner        types.ActorID
	TokenAddress types.ActorID
	Stakers      map[types.ActorID]types.Amount
	TotalStaked  types.Amount
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stakers := make(map[types.ActorID]types.Amount, len(l.stakers))
	for k, v := range l.stakers {
		stakers[k] = v
	}
	return Snapshot{
		Owner:        l.owner,
		TokenAddress: l.tokenAddress,
		Stakers:      stakers,
		TotalStaked:  l.totalStaked,
	}
}

func validateAmount(amount types.Amount) *types.Error {
	if amount.IsZero() {
		return types.NewErrorWithMsg(
			http.StatusBadRequest,
			types.InvalidAmount,
			"amount must be greater than 0",
		)
	}
	return nil
}
