package config

import (
	"errors"
	"time"
)

const defaultReconcileInterval = time.Minute

type PollerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReconcileInterval < 0 {
		return errors.New("reconcile-interval cannot be negative")
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	return nil
}
