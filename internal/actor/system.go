package actor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/types"
	"github.com/polkapad/staking-ledger/internal/utils"
)

const defaultMailboxSize = 64

type process struct {
	id      types.ActorID
	name    string
	program Program
	inbox   chan *envelope
}

// System hosts programs and routes messages between them. Every program
// processes one request at a time, suspension included.
type System struct {
	mu        sync.RWMutex
	programs  map[types.ActorID]*process
	mailboxes map[types.ActorID][]Message
	spawning  map[types.ActorID]struct{}
	stopped   bool

	quit        chan struct{}
	stopOnce    sync.Once
	wg          conc.WaitGroup
	nextID      atomic.Uint64
	mailboxSize int
}

func NewSystem(mailboxSize int) *System {
	if mailboxSize <= 0 {
		mailboxSize = defaultMailboxSize
	}
	return &System{
		programs:    make(map[types.ActorID]*process),
		mailboxes:   make(map[types.ActorID][]Message),
		spawning:    make(map[types.ActorID]struct{}),
		quit:        make(chan struct{}),
		mailboxSize: mailboxSize,
	}
}

// Spawn runs program's Init with payload sent by source and, if it succeeds,
// starts serving requests for id. A failed init leaves no program behind.
func (s *System) Spawn(
	ctx context.Context, id types.ActorID, name string, program Program, source types.ActorID, payload []byte,
) *RunResult {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return failed(types.NewInternalServiceError(ErrStopped))
	}
	_, exists := s.programs[id]
	_, pending := s.spawning[id]
	if exists || pending {
		s.mu.Unlock()
		return failed(programExists(id))
	}
	s.spawning[id] = struct{}{}
	s.mu.Unlock()

	runLog := &runLog{}
	call := &Call{
		system: s,
		self:   id,
		msg:    Message{ID: s.nextID.Add(1), Source: source, Dest: id, Payload: payload},
		log:    runLog,
	}

	var initErr error
	if recovered := panics.Try(func() { initErr = program.Init(ctx, call) }); recovered != nil {
		initErr = types.NewInternalServiceError(recovered.AsError())
	}
	if initErr != nil {
		s.mu.Lock()
		delete(s.spawning, id)
		s.mu.Unlock()
		log.Ctx(ctx).Error().Err(initErr).Str("program", name).Msg("Program init failed")
		return &RunResult{Err: types.AsError(initErr), Log: runLog.snapshot()}
	}

	p := &process{
		id:      id,
		name:    name,
		program: program,
		inbox:   make(chan *envelope, s.mailboxSize),
	}

	s.mu.Lock()
	delete(s.spawning, id)
	if s.stopped {
		s.mu.Unlock()
		return failed(types.NewInternalServiceError(ErrStopped))
	}
	s.programs[id] = p
	s.wg.Go(func() {
		s.serve(p)
	})
	s.mu.Unlock()

	log.Ctx(ctx).Info().
		Str("program", name).
		Stringer("program_id", id).
		Stringer("deployer", source).
		Msg("Program spawned")

	return &RunResult{Reply: call.reply, Log: runLog.snapshot()}
}

// Send delivers payload from an external account to the program dest and
// blocks until the request is processed. Once enqueued, the request runs to
// completion: ctx only bounds how long the caller waits for the reply.
func (s *System) Send(ctx context.Context, source, dest types.ActorID, payload []byte) *RunResult {
	runLog := &runLog{}
	env := &envelope{
		ctx:   context.WithoutCancel(ctx),
		msg:   Message{ID: s.nextID.Add(1), Source: source, Dest: dest, Payload: payload},
		reply: make(chan Reply, 1),
		log:   runLog,
	}

	if err := s.enqueue(ctx, env); err != nil {
		return &RunResult{Err: types.AsError(err)}
	}

	select {
	case reply := <-env.reply:
		return &RunResult{Reply: reply.Payload, Err: reply.Err, Log: runLog.snapshot()}
	case <-ctx.Done():
		return &RunResult{
			Err: types.NewInternalServiceError(fmt.Errorf("request %d still in flight: %w", env.msg.ID, ctx.Err())),
			Log: runLog.snapshot(),
		}
	}
}

// ReadState queries the read-only state of dest.
func (s *System) ReadState(dest types.ActorID, payload []byte) ([]byte, error) {
	s.mu.RLock()
	p, ok := s.programs[dest]
	s.mu.RUnlock()
	if !ok {
		return nil, unknownActor(dest)
	}
	return p.program.State(payload)
}

// Mailbox returns a copy of the messages delivered to id without being
// dispatched to a program.
func (s *System) Mailbox(id types.ActorID) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.mailboxes[id]))
	copy(out, s.mailboxes[id])
	return out
}

func (s *System) IsProgram(id types.ActorID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.programs[id]
	return ok
}

// Stop rejects new requests, lets every program drain its inbox and waits
// for all of them to exit.
func (s *System) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)

		s.mu.Lock()
		s.stopped = true
		for _, p := range s.programs {
			close(p.inbox)
		}
		s.mu.Unlock()

		s.wg.Wait()
		log.Info().Msg("Actor system stopped")
	})
}

func (s *System) sendForReply(
	ctx context.Context, source, dest types.ActorID, payload []byte, runLog *runLog, chain []types.ActorID,
) ([]byte, error) {
	msg := Message{ID: s.nextID.Add(1), Source: source, Dest: dest, Payload: payload}

	// User accounts acknowledge immediately. So does a program that is
	// suspended upstream in this very request, since its inbox is not
	// served until the request completes.
	if !s.IsProgram(dest) || utils.Contains(chain, dest) {
		s.deliverToMailbox(msg, runLog)
		return nil, nil
	}

	env := &envelope{
		ctx:   ctx,
		msg:   msg,
		reply: make(chan Reply, 1),
		log:   runLog,
		chain: chain,
	}
	if err := s.enqueue(ctx, env); err != nil {
		return nil, err
	}

	select {
	case reply := <-env.reply:
		if reply.Err != nil {
			return nil, &ReplyError{Dest: dest, Reason: reply.Err}
		}
		return reply.Payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *System) deliverToMailbox(msg Message, runLog *runLog) {
	s.mu.Lock()
	s.mailboxes[msg.Dest] = append(s.mailboxes[msg.Dest], msg)
	s.mu.Unlock()
	runLog.append(msg)
}

func (s *System) enqueue(ctx context.Context, env *envelope) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrStopped
	}
	p, ok := s.programs[env.msg.Dest]
	if !ok {
		return unknownActor(env.msg.Dest)
	}

	select {
	case p.inbox <- env:
		return nil
	case <-s.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *System) serve(p *process) {
	for env := range p.inbox {
		s.dispatch(p, env)
	}
}

func (s *System) dispatch(p *process, env *envelope) {
	startTime := time.Now()
	call := &Call{
		system: s,
		self:   p.id,
		msg:    env.msg,
		log:    env.log,
		chain:  env.chain,
	}

	var handleErr error
	if recovered := panics.Try(func() { handleErr = p.program.Handle(env.ctx, call) }); recovered != nil {
		log.Ctx(env.ctx).Error().
			Str("program", p.name).
			Interface("panic", recovered.Value).
			Msg("Program panicked while handling a request")
		handleErr = types.NewInternalServiceError(recovered.AsError())
	}

	reply := Reply{Payload: call.reply}
	if handleErr != nil {
		reply = Reply{Err: types.AsError(handleErr)}
	}
	metrics.RecordActorDispatch(time.Since(startTime), p.name, handleErr != nil)

	env.reply <- reply
}

func unknownActor(id types.ActorID) *types.Error {
	return types.NewError(
		http.StatusNotFound,
		types.NotFound,
		fmt.Errorf("%w: %s", ErrUnknownActor, id),
	)
}

func programExists(id types.ActorID) *types.Error {
	return types.NewErrorWithMsg(
		http.StatusConflict,
		types.AlreadyInitialized,
		fmt.Sprintf("program %s already exists", id),
	)
}

func failed(err *types.Error) *RunResult {
	return &RunResult{Err: err}
}
