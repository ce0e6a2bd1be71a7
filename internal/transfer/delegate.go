// Package transfer moves tokens on the external asset ledger on behalf of a
// program. It holds no state: one request goes out, one reply is awaited.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/types"
)

// Sender is the program-side handle used to reach the asset ledger.
// *actor.Call implements it.
type Sender interface {
	ProgramID() types.ActorID
	SendForReply(ctx context.Context, dest types.ActorID, payload []byte) ([]byte, error)
}

// Request asks the asset ledger at Token to move Amount from From to To.
type Request struct {
	Token  types.ActorID
	From   types.ActorID
	To     types.ActorID
	Amount types.Amount
}

// Direction is relative to the sending program: "inbound" when it receives
// the tokens, "outbound" when it pays them.
func (r Request) Direction(self types.ActorID) string {
	switch self {
	case r.To:
		return "inbound"
	case r.From:
		return "outbound"
	default:
		return "external"
	}
}

type Delegate interface {
	Transfer(ctx context.Context, sender Sender, req Request) *types.Error
}

type TokenDelegate struct {
	timeout time.Duration
}

// NewTokenDelegate returns a delegate that waits at most timeout for the
// asset ledger to answer. A zero timeout waits forever.
func NewTokenDelegate(timeout time.Duration) *TokenDelegate {
	return &TokenDelegate{timeout: timeout}
}

func (d *TokenDelegate) Transfer(ctx context.Context, sender Sender, req Request) *types.Error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	payload, err := codec.Encode(codec.FTTransfer(req.From, req.To, req.Amount))
	if err != nil {
		return types.NewInternalServiceError(err)
	}

	reply, err := sender.SendForReply(ctx, req.Token, payload)
	if err != nil {
		return transferFailed(ctx, req, err)
	}

	event, decodeErr := codec.Decode[codec.FTEvent](reply)
	if decodeErr != nil {
		return decodeErr
	}
	if event.Kind != codec.FTEventTransfer ||
		event.From != req.From ||
		event.To != req.To ||
		!event.Amount.Equal(req.Amount) {
		return types.NewError(
			http.StatusBadGateway,
			types.DecodeFailure,
			fmt.Errorf("asset ledger %s answered transfer with unexpected event kind %d", req.Token, event.Kind),
		)
	}

	return nil
}

func transferFailed(ctx context.Context, req Request, err error) *types.Error {
	var (
		replyErr *actor.ReplyError
		cause    error
	)
	switch {
	case errors.As(err, &replyErr):
		cause = fmt.Errorf("asset ledger rejected transfer of %s: %w", req.Amount, replyErr.Reason)
	case errors.Is(err, context.DeadlineExceeded):
		cause = fmt.Errorf("asset ledger did not answer transfer of %s in time: %w", req.Amount, err)
	default:
		cause = fmt.Errorf("could not dispatch transfer of %s to %s: %w", req.Amount, req.Token, err)
	}

	log.Ctx(ctx).Warn().
		Err(cause).
		Stringer("token", req.Token).
		Stringer("from", req.From).
		Stringer("to", req.To).
		Msg("Delegated transfer failed")

	return types.NewError(http.StatusBadGateway, types.TransferFailed, cause)
}
