package transfer

import (
	"context"
	"time"

	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/types"
)

type delegateWithMetrics struct {
	delegate Delegate
}

func NewDelegateWithMetrics(delegate Delegate) *delegateWithMetrics {
	return &delegateWithMetrics{delegate: delegate}
}

func (d *delegateWithMetrics) Transfer(ctx context.Context, sender Sender, req Request) *types.Error {
	startTime := time.Now()
	err := d.delegate.Transfer(ctx, sender, req)
	metrics.RecordTransferLatency(time.Since(startTime), req.Direction(sender.ProgramID()), err != nil)

	return err
}
