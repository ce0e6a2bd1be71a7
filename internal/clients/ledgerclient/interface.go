package ledgerclient

import (
	"context"

	"github.com/polkapad/staking-ledger/internal/services"
	"github.com/polkapad/staking-ledger/internal/types"
)

type LedgerInterface interface {
	Stake(ctx context.Context, amount types.Amount) (*services.StakingEventResponse, error)
	Withdraw(ctx context.Context, amount types.Amount) (*services.StakingEventResponse, error)
	StakeOf(ctx context.Context, account types.ActorID) (*services.StakingEventResponse, error)
	UpdateConfiguration(ctx context.Context, tokenAddress types.ActorID) (*services.StakingEventResponse, error)
	State(ctx context.Context, query StateQuery, account *types.ActorID) (*services.StateResponse, error)
	Approve(ctx context.Context, spender types.ActorID, amount types.Amount) (*services.TokenEventResponse, error)
	TokenBalance(ctx context.Context, account types.ActorID) (*services.BalanceResponse, error)
}
