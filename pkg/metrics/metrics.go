package metrics

import (
	"time"
)

// Metrics defines the interface for collecting period and round metrics.
// All methods are designed to be non-blocking.
type Metrics interface {
	// Block metrics
	SetBlockHeight(height int64)
	IncBlocksCommitted()
	SetBlockSize(txs int)

	// Round metrics
	SetCurrentRound(roundID string)
	IncRoundTransitions(event string)
	ObserveRoundDuration(roundID string, duration time.Duration)

	// Timeout metrics
	IncTimeoutsScheduled(event string)
	IncTimeoutsFired(event string)
	IncTimeoutsCancelled()
	SetTimeoutsPending(count int)

	// Transaction metrics
	IncTxsAccepted(txType string)
	IncTxsRejected(reason string)

	// HTTP handler (for serving metrics)
	Handler() any
}

// Transaction rejection reason labels.
const (
	ReasonSignatureInvalid  = "signature_invalid"
	ReasonTypeNotRecognized = "type_not_recognized"
	ReasonTxNotValid        = "tx_not_valid"
	ReasonInternal          = "internal"
	ReasonDecode            = "decode"
)
