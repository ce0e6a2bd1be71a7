package codec

import (
	"fmt"

	"github.com/polkapad/staking-ledger/internal/types"
)

// StakingInit is delivered once, when the staking program is spawned.
type StakingInit struct {
	TokenAddress types.ActorID
}

type StakingActionKind uint8

const (
	ActionStake StakingActionKind = iota
	ActionWithdraw
	ActionStakeOf
	ActionUpdateConfiguration
)

func (k StakingActionKind) String() string {
	switch k {
	case ActionStake:
		return "stake"
	case ActionWithdraw:
		return "withdraw"
	case ActionStakeOf:
		return "stake_of"
	case ActionUpdateConfiguration:
		return "update_configuration"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// StakingAction is an inbound request to the staking program. Amount is
// used by Stake and Withdraw, Account by StakeOf and UpdateConfiguration.
type StakingAction struct {
	Kind    StakingActionKind
	Amount  types.Amount
	Account types.ActorID
}

func (a *StakingAction) Validate() error {
	if a.Kind > ActionUpdateConfiguration {
		return fmt.Errorf("unknown staking action kind %d", a.Kind)
	}
	return nil
}

func Stake(amount types.Amount) StakingAction {
	return StakingAction{Kind: ActionStake, Amount: amount}
}

func Withdraw(amount types.Amount) StakingAction {
	return StakingAction{Kind: ActionWithdraw, Amount: amount}
}

func StakeOf(account types.ActorID) StakingAction {
	return StakingAction{Kind: ActionStakeOf, Account: account}
}

func UpdateConfiguration(tokenAddress types.ActorID) StakingAction {
	return StakingAction{Kind: ActionUpdateConfiguration, Account: tokenAddress}
}

type StakingEventKind uint8

const (
	EventStaked StakingEventKind = iota
	EventWithdrawed
	EventConfigurationUpdate
)

func (k StakingEventKind) String() string {
	switch k {
	case EventStaked:
		return "staked"
	case EventWithdrawed:
		return "withdrawed"
	case EventConfigurationUpdate:
		return "configuration_update"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// StakingEvent is sent by the staking program back to its caller.
type StakingEvent struct {
	Kind   StakingEventKind
	Amount types.Amount
}

func (e *StakingEvent) Validate() error {
	if e.Kind > EventConfigurationUpdate {
		return fmt.Errorf("unknown staking event kind %d", e.Kind)
	}
	return nil
}

func Staked(amount types.Amount) StakingEvent {
	return StakingEvent{Kind: EventStaked, Amount: amount}
}

func Withdrawed(amount types.Amount) StakingEvent {
	return StakingEvent{Kind: EventWithdrawed, Amount: amount}
}

func ConfigurationUpdate() StakingEvent {
	return StakingEvent{Kind: EventConfigurationUpdate}
}

type StakingStateKind uint8

const (
	StateOwner StakingStateKind = iota
	StateStakeOf
	StateTotalStaked
	StateTokenAddress
)

// StakingStateQuery is read through the side channel and never mutates.
type StakingStateQuery struct {
	Kind    StakingStateKind
	Account types.ActorID
}

func (q *StakingStateQuery) Validate() error {
	if q.Kind > StateTokenAddress {
		return fmt.Errorf("unknown staking state query kind %d", q.Kind)
	}
	return nil
}

// StakingReply answers a StakingStateQuery. Owner and TokenAddress are
// carried in Account, StakeOf and TotalStaked in Amount.
type StakingReply struct {
	Kind    StakingStateKind
	Account types.ActorID
	Amount  types.Amount
}

func (r *StakingReply) Validate() error {
	if r.Kind > StateTokenAddress {
		return fmt.Errorf("unknown staking reply kind %d", r.Kind)
	}
	return nil
}
