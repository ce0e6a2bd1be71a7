package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/polkapad/staking-ledger/internal/types"
)

const (
	defaultClientRetryTimes    = 3
	defaultClientRetryInterval = 500 * time.Millisecond
	defaultClientTimeout       = 15 * time.Second
)

// ClientConfig is used by the command line client of the staking API.
type ClientConfig struct {
	URL string
	// Actor is sent as the caller of every state changing request
	Actor         string
	MaxRetryTimes uint
	RetryInterval time.Duration
	Timeout       time.Duration
}

func (cfg *ClientConfig) Validate() error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}

	if cfg.Actor != "" {
		if _, err := types.ParseActorID(cfg.Actor); err != nil {
			return fmt.Errorf("actor: %w", err)
		}
	}

	if cfg.RetryInterval < 0 || cfg.Timeout < 0 {
		return errors.New("client durations cannot be negative")
	}
	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultClientRetryTimes
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = defaultClientRetryInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultClientTimeout
	}

	return nil
}
