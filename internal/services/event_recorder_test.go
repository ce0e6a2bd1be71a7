package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkapad/staking-ledger/internal/types"
)

func TestRecord_PersistsAndPublishes(t *testing.T) {
	database := &fakeDb{lastSeq: 41}
	publisher := &fakePublisher{}
	svc := newTestService(t, database, publisher)

	approveAndStake(t, svc, 100)
	res := svc.Withdraw(context.Background(), deployer, types.NewAmount(30))
	require.False(t, res.Failed(), "%v", res.Err)

	require.Len(t, database.events, 2)
	staked, withdrawn := database.events[0], database.events[1]
	assert.Equal(t, uint64(42), staked.Seq, "sequence continues from the stored history")
	assert.Equal(t, "staked", staked.Kind)
	assert.Equal(t, deployer.String(), staked.Account)
	assert.Equal(t, "100", staked.Amount)
	assert.Equal(t, uint64(43), withdrawn.Seq)
	assert.Equal(t, "withdrawed", withdrawn.Kind)
	assert.Equal(t, "70", withdrawn.Balance)
	assert.Equal(t, "70", withdrawn.TotalStaked)
	assert.Equal(t, tokenID.String(), withdrawn.TokenAddress)

	require.Len(t, database.snapshots, 2)
	last := database.snapshots[1]
	assert.Equal(t, uint64(43), last.LastSeq)
	assert.Equal(t, deployer.String(), last.Owner)
	assert.Equal(t, "70", last.TotalStaked)
	require.Len(t, last.Stakers, 1)
	assert.Equal(t, "70", last.Stakers[0].Balance)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, uint64(43), publisher.events[1].Seq)
	assert.Equal(t, "30", publisher.events[1].Amount.String())
}

func TestRecord_FailuresDoNotFailTheOperation(t *testing.T) {
	database := &fakeDb{}
	publisher := &fakePublisher{failWith: errUnavailable}
	svc := newTestService(t, database, publisher)
	database.failWith = errUnavailable

	approveAndStake(t, svc, 10)

	total, err := svc.QueryState(totalStakedQuery())
	require.Nil(t, err)
	assert.Equal(t, "10", total.Amount.String())
	assert.Empty(t, database.events)
	assert.Empty(t, publisher.events)
}

func TestRecord_RejectedOperationIsNotRecorded(t *testing.T) {
	database := &fakeDb{}
	publisher := &fakePublisher{}
	svc := newTestService(t, database, publisher)

	res := svc.Withdraw(context.Background(), alice, types.NewAmount(1))
	require.True(t, res.Failed())
	assert.Equal(t, types.UnknownStaker, res.Err.ErrorCode)

	assert.Empty(t, database.events)
	assert.Empty(t, publisher.events)
}

func TestShutdown_ReleasesPublisher(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewService(testConfig(), nil, publisher)
	require.NoError(t, svc.Bootstrap(context.Background()))

	svc.Shutdown(context.Background())
	assert.True(t, publisher.shutdown)
}

func TestRecord_OutlivesCancelledRequest(t *testing.T) {
	database := &fakeDb{}
	publisher := &fakePublisher{}
	svc := newTestService(t, database, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Record(ctx, types.StakingEventRecord{
		Seq:          1,
		Kind:         "staked",
		Account:      deployer,
		Amount:       types.NewAmount(5),
		Balance:      types.NewAmount(5),
		TotalStaked:  types.NewAmount(5),
		TokenAddress: tokenID,
	})

	require.Len(t, database.events, 1)
	assert.Equal(t, uint64(1), database.events[0].Seq)
	require.Len(t, database.snapshots, 1)
	assert.Equal(t, uint64(1), database.snapshots[0].LastSeq)
	require.Len(t, publisher.events, 1)
}
