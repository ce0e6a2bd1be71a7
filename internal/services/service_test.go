package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/db"
	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/types"
)

var (
	deployer  = types.ActorIDFromUint64(10)
	alice     = types.ActorIDFromUint64(11)
	programID = types.ActorIDFromUint64(2)
	tokenID   = types.ActorIDFromUint64(1)
)

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			Deployer:    deployer.String(),
			ProgramID:   programID.String(),
			TokenID:     tokenID.String(),
			MailboxSize: 8,
		},
		Token: config.TokenConfig{
			Name:          "Staking Token",
			Symbol:        "STK",
			Decimals:      12,
			InitialSupply: "1000",
		},
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		Poller: config.PollerConfig{ReconcileInterval: time.Minute},
	}
}

func newTestService(t *testing.T, database db.DbInterface, publisher *fakePublisher) *Service {
	t.Helper()
	var svc *Service
	if publisher != nil {
		svc = NewService(testConfig(), database, publisher)
	} else {
		svc = NewService(testConfig(), database, nil)
	}
	require.NoError(t, svc.Bootstrap(context.Background()))
	t.Cleanup(func() { svc.Shutdown(context.Background()) })
	return svc
}

// approveAndStake lets the staking program pull amount from the deployer's
// supply and stakes it.
func approveAndStake(t *testing.T, svc *Service, amount uint64) {
	t.Helper()
	ctx := context.Background()
	res := svc.Approve(ctx, deployer, programID, types.NewAmount(amount))
	require.False(t, res.Failed(), "%v", res.Err)
	res = svc.Stake(ctx, deployer, types.NewAmount(amount))
	require.False(t, res.Failed(), "%v", res.Err)
}

type fakeDb struct {
	mu        sync.Mutex
	events    []*model.StakingEventDocument
	snapshots []*model.LedgerSnapshot
	lastSeq   uint64
	failWith  error
}

var _ db.DbInterface = (*fakeDb)(nil)

func (f *fakeDb) Ping(context.Context) error {
	return f.failWith
}

func (f *fakeDb) SaveStakingEvent(ctx context.Context, event *model.StakingEventDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeDb) GetStakingEvents(_ context.Context, account string, limit int64) ([]*model.StakingEventDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.StakingEventDocument
	for i := len(f.events) - 1; i >= 0; i-- {
		if account != "" && f.events[i].Account != account {
			continue
		}
		out = append(out, f.events[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDb) GetLastStakingEventSeq(context.Context) (uint64, error) {
	return f.lastSeq, f.failWith
}

func (f *fakeDb) UpsertLedgerSnapshot(ctx context.Context, snapshot *model.LedgerSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func (f *fakeDb) GetLedgerSnapshot(context.Context) (*model.LedgerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return nil, &db.NotFoundError{Key: "ledger", Message: "no snapshot"}
	}
	return f.snapshots[len(f.snapshots)-1], nil
}

type fakePublisher struct {
	mu       sync.Mutex
	events   []types.StakingEventRecord
	failWith error
	shutdown bool
}

func (f *fakePublisher) PushStakingEvent(ctx context.Context, event *types.StakingEventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakePublisher) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	return nil
}

var errUnavailable = errors.New("unavailable")
