package metrics

import (
	"time"
)

// NopMetrics is a no-op implementation of the Metrics interface.
// Use this when metrics collection is disabled.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// Block metrics (no-op)

func (m *NopMetrics) SetBlockHeight(height int64) {}
func (m *NopMetrics) IncBlocksCommitted()         {}
func (m *NopMetrics) SetBlockSize(txs int)        {}

// Round metrics (no-op)

func (m *NopMetrics) SetCurrentRound(roundID string)                            {}
func (m *NopMetrics) IncRoundTransitions(event string)                          {}
func (m *NopMetrics) ObserveRoundDuration(roundID string, duration time.Duration) {}

// Timeout metrics (no-op)

func (m *NopMetrics) IncTimeoutsScheduled(event string) {}
func (m *NopMetrics) IncTimeoutsFired(event string)     {}
func (m *NopMetrics) IncTimeoutsCancelled()             {}
func (m *NopMetrics) SetTimeoutsPending(count int)      {}

// Transaction metrics (no-op)

func (m *NopMetrics) IncTxsAccepted(txType string) {}
func (m *NopMetrics) IncTxsRejected(reason string) {}

// Handler returns nil; there is nothing to serve.
func (m *NopMetrics) Handler() any { return nil }
