package types

import "time"

// StakingEventRecord is the committed outcome of one state-changing staking
// operation, as handed to event sinks.
type StakingEventRecord struct {
	Seq          uint64    `json:"seq"`
	Kind         string    `json:"kind"`
	Account      ActorID   `json:"account"`
	Amount       Amount    `json:"amount"`
	Balance      Amount    `json:"balance"`
	TotalStaked  Amount    `json:"total_staked"`
	TokenAddress ActorID   `json:"token_address"`
	TraceID      string    `json:"trace_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
