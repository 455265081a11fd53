package model

import "errors"

// Sentinel errors for the taxonomy described in the analysis pipeline's
// error-handling design: analyzers surface "not enough data" as the
// ErrInsufficientData value, never a panic; the other sentinels mark
// genuine failures or control flow.
var (
	// ErrInsufficientData means an analyzer saw fewer candles/prices than
	// its minimum window requires. Recoverable, local: callers should treat
	// this as "no analysis produced this cycle", not a failure to log loudly.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidTick means a tick failed validation (non-positive or
	// missing required price). The feed-side validator drops the tick.
	ErrInvalidTick = errors.New("invalid tick")

	// ErrArithmeticFailure covers division-by-zero and decimal-conversion
	// failures in ratio computations. Callers fall back to a neutral
	// default and annotate the result as degraded.
	ErrArithmeticFailure = errors.New("arithmetic failure")

	// ErrPersistenceFailure is a transient store write failure. Retried
	// with backoff by the caller; if still failing, logged and dropped —
	// a later cycle produces a superseding result.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrConfiguration is fatal at startup only: impossible thresholds or
	// missing required fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrShutdownRequested is control flow, not a failure: it propagates
	// to the simulation loop and feed dispatcher to unwind cleanly.
	ErrShutdownRequested = errors.New("shutdown requested")
)
