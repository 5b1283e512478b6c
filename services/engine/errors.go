package engine

import (
	"errors"
	"fmt"
)

// ErrMissingField marks a bar series whose upstream-supplied fields (vwap,
// rsi, relative volume) were never populated. The engine fails fast instead
// of substituting defaults.
var ErrMissingField = errors.New("required per-bar field missing")

// StageError identifies which pipeline stage failed for which symbol. It is
// distinguishable from the valid empty outcomes ("no data", "no trades"),
// which are never errors; the caller decides whether to skip the symbol or
// abort the batch.
type StageError struct {
	Stage  string
	Symbol string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: stage %s: %v", e.Symbol, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
