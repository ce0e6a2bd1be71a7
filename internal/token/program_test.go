package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/types"
)

var (
	tokenID = types.ActorIDFromUint64(1)
	alice   = types.ActorIDFromUint64(11)
	bob     = types.ActorIDFromUint64(12)
)

func newToken(t *testing.T, supply uint64) (*actor.System, *Program) {
	t.Helper()
	system := actor.NewSystem(0)
	t.Cleanup(system.Stop)

	program := NewProgram()
	res := system.Spawn(context.Background(), tokenID, ProgramName, program, alice, codec.MustEncode(codec.FTInit{
		Name:          "Test Token",
		Symbol:        "TT",
		Decimals:      12,
		InitialSupply: types.NewAmount(supply),
	}))
	require.False(t, res.Failed(), "%v", res.Err)
	return system, program
}

func balanceOf(t *testing.T, system *actor.System, account types.ActorID) types.Amount {
	t.Helper()
	state, err := system.ReadState(tokenID, codec.MustEncode(codec.FTStateQuery{Account: account}))
	require.NoError(t, err)
	event, decodeErr := codec.Decode[codec.FTEvent](state)
	require.Nil(t, decodeErr)
	return event.Amount
}

func send(system *actor.System, source types.ActorID, action codec.FTAction) *actor.RunResult {
	return system.Send(context.Background(), source, tokenID, codec.MustEncode(action))
}

func TestProgram_Init(t *testing.T) {
	system, program := newToken(t, 100)

	assert.Equal(t, "100", balanceOf(t, system, alice).String())
	assert.True(t, balanceOf(t, system, bob).IsZero())
	metadata := program.Metadata()
	assert.Equal(t, "Test Token", metadata.Name)
	assert.Equal(t, "TT", metadata.Symbol)
	assert.Equal(t, uint8(12), metadata.Decimals)
	assert.Equal(t, "100", metadata.TotalSupply.String())

	res := system.Spawn(context.Background(), types.ActorIDFromUint64(2), ProgramName, program, alice,
		codec.MustEncode(codec.FTInit{InitialSupply: types.NewAmount(1)}))
	require.True(t, res.Failed())
	assert.Equal(t, types.AlreadyInitialized, res.Err.ErrorCode)
}

func TestProgram_Transfer(t *testing.T) {
	t.Run("by owner", func(t *testing.T) {
		system, _ := newToken(t, 100)

		res := send(system, alice, codec.FTTransfer(alice, bob, types.NewAmount(40)))
		require.False(t, res.Failed(), "%v", res.Err)

		event, err := codec.Decode[codec.FTEvent](res.Reply)
		require.Nil(t, err)
		assert.Equal(t, codec.FTEventTransfer, event.Kind)
		assert.Equal(t, alice, event.From)
		assert.Equal(t, bob, event.To)
		assert.Equal(t, "60", balanceOf(t, system, alice).String())
		assert.Equal(t, "40", balanceOf(t, system, bob).String())
	})
	t.Run("insufficient balance", func(t *testing.T) {
		system, _ := newToken(t, 100)

		res := send(system, alice, codec.FTTransfer(alice, bob, types.NewAmount(150)))
		require.True(t, res.Failed())
		assert.Equal(t, types.InsufficientBalance, res.Err.ErrorCode)
		assert.Equal(t, "100", balanceOf(t, system, alice).String())
	})
	t.Run("zero amount", func(t *testing.T) {
		system, _ := newToken(t, 100)

		res := send(system, alice, codec.FTTransfer(alice, bob, types.ZeroAmount()))
		require.True(t, res.Failed())
		assert.Equal(t, types.InvalidAmount, res.Err.ErrorCode)
	})
	t.Run("without allowance", func(t *testing.T) {
		system, _ := newToken(t, 100)

		res := send(system, bob, codec.FTTransfer(alice, bob, types.NewAmount(1)))
		require.True(t, res.Failed())
		assert.Equal(t, types.Unauthorized, res.Err.ErrorCode)
		assert.Equal(t, "100", balanceOf(t, system, alice).String())
	})
	t.Run("allowance is consumed", func(t *testing.T) {
		system, program := newToken(t, 100)

		res := send(system, alice, codec.FTApprove(bob, types.NewAmount(30)))
		require.False(t, res.Failed(), "%v", res.Err)
		assert.Equal(t, "30", program.Allowance(alice, bob).String())

		res = send(system, bob, codec.FTTransfer(alice, bob, types.NewAmount(20)))
		require.False(t, res.Failed(), "%v", res.Err)
		assert.Equal(t, "10", program.Allowance(alice, bob).String())

		res = send(system, bob, codec.FTTransfer(alice, bob, types.NewAmount(20)))
		require.True(t, res.Failed())
		assert.Equal(t, types.Unauthorized, res.Err.ErrorCode)

		assert.Equal(t, "80", balanceOf(t, system, alice).String())
		assert.Equal(t, "20", balanceOf(t, system, bob).String())
	})
}

func TestProgram_BalanceOf(t *testing.T) {
	system, _ := newToken(t, 7)

	res := send(system, bob, codec.FTBalanceOf(alice))
	require.False(t, res.Failed(), "%v", res.Err)

	event, err := codec.Decode[codec.FTEvent](res.Reply)
	require.Nil(t, err)
	assert.Equal(t, codec.FTEventBalance, event.Kind)
	assert.Equal(t, alice, event.From)
	assert.Equal(t, "7", event.Amount.String())
}

func TestProgram_NotInitialized(t *testing.T) {
	_, err := NewProgram().State(codec.MustEncode(codec.FTStateQuery{Account: alice}))
	require.Error(t, err)
	assert.True(t, types.HasErrorCode(err, types.NotInitialized))
}

func TestProgram_DecodeFailure(t *testing.T) {
	system, _ := newToken(t, 1)

	res := system.Send(context.Background(), alice, tokenID, []byte{0xff})
	require.True(t, res.Failed())
	assert.Equal(t, types.DecodeFailure, res.Err.ErrorCode)
}
