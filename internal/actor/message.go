package actor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/polkapad/staking-ledger/internal/types"
)

var (
	ErrUnknownActor = errors.New("unknown actor")
	ErrStopped      = errors.New("actor system stopped")
	ErrSelfSend     = errors.New("program cannot await a reply from itself")
)

// Message is a payload delivered from Source to Dest.
type Message struct {
	ID      uint64
	Source  types.ActorID
	Dest    types.ActorID
	Payload []byte
}

// Reply is the single answer to a request. Err is set when the destination
// failed to process the request.
type Reply struct {
	Payload []byte
	Err     *types.Error
}

// ReplyError is returned by SendForReply when the destination program
// rejected the request.
type ReplyError struct {
	Dest   types.ActorID
	Reason *types.Error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("actor %s replied with error: %s", e.Dest, e.Reason)
}

func (e *ReplyError) Unwrap() error {
	return e.Reason
}

// Program is the code hosted by an actor. Handle is invoked for one request
// at a time. State may be called concurrently with Handle and must only read.
type Program interface {
	Init(ctx context.Context, call *Call) error
	Handle(ctx context.Context, call *Call) error
	State(payload []byte) ([]byte, error)
}

// RunResult is what the external caller of System.Send observes.
type RunResult struct {
	Reply []byte
	Err   *types.Error
	// Log holds the messages delivered to user accounts while the request
	// was processed, in delivery order.
	Log []Message
}

func (r *RunResult) Failed() bool {
	return r.Err != nil
}

// Contains reports whether a message with payload was delivered to dest.
func (r *RunResult) Contains(dest types.ActorID, payload []byte) bool {
	for _, m := range r.Log {
		if m.Dest == dest && bytes.Equal(m.Payload, payload) {
			return true
		}
	}
	return false
}

type runLog struct {
	mu      sync.Mutex
	entries []Message
}

func (l *runLog) append(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, m)
}

func (l *runLog) snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

type envelope struct {
	ctx   context.Context
	msg   Message
	reply chan Reply
	log   *runLog
	// chain lists the programs suspended upstream of this request
	chain []types.ActorID
}

// Call is the view a program has of the request it is handling.
type Call struct {
	system *System
	self   types.ActorID
	msg    Message
	log    *runLog
	chain  []types.ActorID
	reply  []byte
}

func (c *Call) Source() types.ActorID {
	return c.msg.Source
}

func (c *Call) ProgramID() types.ActorID {
	return c.self
}

func (c *Call) Payload() []byte {
	return c.msg.Payload
}

func (c *Call) MessageID() uint64 {
	return c.msg.ID
}

// Reply sets the reply payload. Only the last call before Handle returns
// is delivered.
func (c *Call) Reply(payload []byte) {
	c.reply = payload
}

// SendForReply sends payload to dest and suspends until dest answers or
// ctx is done. There is no deadline unless ctx carries one.
func (c *Call) SendForReply(ctx context.Context, dest types.ActorID, payload []byte) ([]byte, error) {
	if dest == c.self {
		return nil, ErrSelfSend
	}
	chain := append(slices.Clone(c.chain), c.self)
	return c.system.sendForReply(ctx, c.self, dest, payload, c.log, chain)
}
