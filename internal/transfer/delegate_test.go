package transfer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/types"
)

var (
	token   = types.ActorIDFromUint64(1)
	staking = types.ActorIDFromUint64(2)
	alice   = types.ActorIDFromUint64(11)
)

type fakeSender struct {
	calls int
	reply func(ctx context.Context, payload []byte) ([]byte, error)
}

func (f *fakeSender) ProgramID() types.ActorID {
	return staking
}

func (f *fakeSender) SendForReply(ctx context.Context, dest types.ActorID, payload []byte) ([]byte, error) {
	f.calls++
	if dest != token {
		return nil, actor.ErrUnknownActor
	}
	return f.reply(ctx, payload)
}

func transferEchoed(_ context.Context, payload []byte) ([]byte, error) {
	action, err := codec.Decode[codec.FTAction](payload)
	if err != nil {
		return nil, err
	}
	return codec.MustEncode(codec.FTEvent{
		Kind:   codec.FTEventTransfer,
		From:   action.From,
		To:     action.To,
		Amount: action.Amount,
	}), nil
}

func stakeRequest(amount uint64) Request {
	return Request{Token: token, From: alice, To: staking, Amount: types.NewAmount(amount)}
}

func TestTokenDelegate_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		sender := &fakeSender{reply: transferEchoed}
		err := NewTokenDelegate(0).Transfer(ctx, sender, stakeRequest(50))
		require.Nil(t, err)
		assert.Equal(t, 1, sender.calls)
	})
	t.Run("rejected by asset ledger", func(t *testing.T) {
		sender := &fakeSender{reply: func(context.Context, []byte) ([]byte, error) {
			return nil, &actor.ReplyError{
				Dest:   token,
				Reason: types.NewErrorWithMsg(http.StatusBadRequest, types.InsufficientBalance, "balance too low"),
			}
		}}
		err := NewTokenDelegate(0).Transfer(ctx, sender, stakeRequest(150))
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
		assert.Contains(t, err.Error(), "balance too low")
		assert.Equal(t, 1, sender.calls, "no retry")
	})
	t.Run("dispatch failure", func(t *testing.T) {
		sender := &fakeSender{}
		req := stakeRequest(5)
		req.Token = types.ActorIDFromUint64(77)

		err := NewTokenDelegate(0).Transfer(ctx, sender, req)
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
		assert.True(t, errors.Is(err, actor.ErrUnknownActor))
	})
	t.Run("timeout", func(t *testing.T) {
		sender := &fakeSender{reply: func(ctx context.Context, _ []byte) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		err := NewTokenDelegate(10*time.Millisecond).Transfer(ctx, sender, stakeRequest(5))
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
	t.Run("malformed reply", func(t *testing.T) {
		sender := &fakeSender{reply: func(context.Context, []byte) ([]byte, error) {
			return []byte{0x01, 0x02, 0x03}, nil
		}}
		err := NewTokenDelegate(0).Transfer(ctx, sender, stakeRequest(5))
		require.NotNil(t, err)
		assert.Equal(t, types.DecodeFailure, err.ErrorCode)
	})
	t.Run("unexpected event", func(t *testing.T) {
		sender := &fakeSender{reply: func(context.Context, []byte) ([]byte, error) {
			return codec.MustEncode(codec.FTEvent{Kind: codec.FTEventBalance, Amount: types.NewAmount(5)}), nil
		}}
		err := NewTokenDelegate(0).Transfer(ctx, sender, stakeRequest(5))
		require.NotNil(t, err)
		assert.Equal(t, types.DecodeFailure, err.ErrorCode)
	})
	t.Run("metrics wrapper passes results through", func(t *testing.T) {
		sender := &fakeSender{reply: transferEchoed}
		delegate := NewDelegateWithMetrics(NewTokenDelegate(0))
		require.Nil(t, delegate.Transfer(ctx, sender, stakeRequest(1)))

		req := stakeRequest(1)
		req.Token = types.ActorIDFromUint64(77)
		err := delegate.Transfer(ctx, sender, req)
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
	})
}

func TestRequest_Direction(t *testing.T) {
	assert.Equal(t, "inbound", stakeRequest(1).Direction(staking))
	assert.Equal(t, "outbound", Request{From: staking, To: alice}.Direction(staking))
	assert.Equal(t, "external", Request{From: alice, To: token}.Direction(staking))
}
