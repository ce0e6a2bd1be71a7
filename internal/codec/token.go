package codec

import (
	"fmt"

	"github.com/polkapad/staking-ledger/internal/types"
)

// FTInit configures the asset-ledger program; InitialSupply is minted to
// the deployer.
type FTInit struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply types.Amount
}

type FTActionKind uint8

const (
	FTActionTransfer FTActionKind = iota
	FTActionApprove
	FTActionBalanceOf
)

type FTAction struct {
	Kind    FTActionKind
	From    types.ActorID
	To      types.ActorID
	Account types.ActorID
	Amount  types.Amount
}

func (a *FTAction) Validate() error {
	if a.Kind > FTActionBalanceOf {
		return fmt.Errorf("unknown token action kind %d", a.Kind)
	}
	return nil
}

func FTTransfer(from, to types.ActorID, amount types.Amount) FTAction {
	return FTAction{Kind: FTActionTransfer, From: from, To: to, Amount: amount}
}

func FTApprove(spender types.ActorID, amount types.Amount) FTAction {
	return FTAction{Kind: FTActionApprove, To: spender, Amount: amount}
}

func FTBalanceOf(account types.ActorID) FTAction {
	return FTAction{Kind: FTActionBalanceOf, Account: account}
}

type FTEventKind uint8

const (
	FTEventTransfer FTEventKind = iota
	FTEventApproval
	FTEventBalance
)

func (k FTEventKind) String() string {
	switch k {
	case FTEventTransfer:
		return "transfer"
	case FTEventApproval:
		return "approval"
	case FTEventBalance:
		return "balance"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

type FTEvent struct {
	Kind   FTEventKind
	From   types.ActorID
	To     types.ActorID
	Amount types.Amount
}

func (e *FTEvent) Validate() error {
	if e.Kind > FTEventBalance {
		return fmt.Errorf("unknown token event kind %d", e.Kind)
	}
	return nil
}

// FTStateQuery reads the balance of Account.
type FTStateQuery struct {
	Account types.ActorID
}
