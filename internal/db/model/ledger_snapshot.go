package model

import "time"

const LedgerSnapshotCollection = "ledger_snapshot"

type StakerBalance struct {
	Account string `bson:"account" json:"account"`
	Balance string `bson:"balance" json:"balance"`
}

// LedgerSnapshot is the state of the staking ledger right after the event
// LastSeq was committed.
type LedgerSnapshot struct {
	Owner        string          `bson:"owner" json:"owner"`
	TokenAddress string          `bson:"token_address" json:"token_address"`
	TotalStaked  string          `bson:"total_staked" json:"total_staked"`
	Stakers      []StakerBalance `bson:"stakers" json:"stakers"`
	LastSeq      uint64          `bson:"last_seq" json:"last_seq"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updated_at"`
}
