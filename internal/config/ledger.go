package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/polkapad/staking-ledger/internal/types"
)

const defaultMailboxSize = 64

type LedgerConfig struct {
	// Deployer initializes both programs and therefore owns the staking ledger
	Deployer  string `mapstructure:"deployer"`
	ProgramID string `mapstructure:"program-id"`
	TokenID   string `mapstructure:"token-id"`
	// TransferTimeout bounds the wait for the asset ledger; 0 waits forever
	TransferTimeout time.Duration `mapstructure:"transfer-timeout"`
	MailboxSize     int           `mapstructure:"mailbox-size"`
}

func (cfg *LedgerConfig) Validate() error {
	ids := map[string]string{
		"deployer":   cfg.Deployer,
		"program-id": cfg.ProgramID,
		"token-id":   cfg.TokenID,
	}
	for name, value := range ids {
		if _, err := types.ParseActorID(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.ProgramID == cfg.TokenID {
		return errors.New("program-id and token-id must differ")
	}

	if cfg.TransferTimeout < 0 {
		return errors.New("transfer-timeout cannot be negative")
	}

	if cfg.MailboxSize < 0 {
		return errors.New("mailbox-size cannot be negative")
	}
	if cfg.MailboxSize == 0 {
		cfg.MailboxSize = defaultMailboxSize
	}

	return nil
}

// IDs returns the parsed actor ids. Validate must have succeeded.
func (cfg *LedgerConfig) IDs() (deployer, program, token types.ActorID) {
	deployer, _ = types.ParseActorID(cfg.Deployer)
	program, _ = types.ParseActorID(cfg.ProgramID)
	token, _ = types.ParseActorID(cfg.TokenID)
	return deployer, program, token
}
