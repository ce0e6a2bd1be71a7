package config

import (
	"errors"

	"github.com/polkapad/staking-ledger/internal/types"
)

type TokenConfig struct {
	Name          string `mapstructure:"name"`
	Symbol        string `mapstructure:"symbol"`
	Decimals      uint8  `mapstructure:"decimals"`
	InitialSupply string `mapstructure:"initial-supply"`
}

func (cfg *TokenConfig) Validate() error {
	if cfg.Name == "" {
		return errors.New("token name is required")
	}
	if cfg.Symbol == "" {
		return errors.New("token symbol is required")
	}
	if _, err := types.ParseAmount(cfg.InitialSupply); err != nil {
		return err
	}

	return nil
}

// Supply returns the parsed initial supply. Validate must have succeeded.
func (cfg *TokenConfig) Supply() types.Amount {
	supply, _ := types.ParseAmount(cfg.InitialSupply)
	return supply
}
