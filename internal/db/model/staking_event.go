package model

import (
	"time"

	"github.com/polkapad/staking-ledger/internal/types"
)

const StakingEventsCollection = "staking_events"

// StakingEventDocument stores one committed ledger mutation. Amounts are
// decimal strings since they exceed the int64 range of bson numbers.
type StakingEventDocument struct {
	Seq          uint64    `bson:"seq" json:"seq"`
	Kind         string    `bson:"kind" json:"kind"`
	Account      string    `bson:"account" json:"account"`
	Amount       string    `bson:"amount" json:"amount"`
	Balance      string    `bson:"balance" json:"balance"`
	TotalStaked  string    `bson:"total_staked" json:"total_staked"`
	TokenAddress string    `bson:"token_address" json:"token_address"`
	TraceID      string    `bson:"trace_id,omitempty" json:"trace_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

func FromStakingEventRecord(record types.StakingEventRecord) *StakingEventDocument {
	return &StakingEventDocument{
		Seq:          record.Seq,
		Kind:         record.Kind,
		Account:      record.Account.String(),
		Amount:       record.Amount.String(),
		Balance:      record.Balance.String(),
		TotalStaked:  record.TotalStaked.String(),
		TokenAddress: record.TokenAddress.String(),
		TraceID:      record.TraceID,
		CreatedAt:    record.CreatedAt,
	}
}
