// Package observ carries ddflow's ambient logging and metrics
// conventions: structured, leveled logging in the style erigon-lib uses
// throughout its kv/ and state/ packages (a package-level or injected
// `log.Logger` with key-value pairs, not format strings), plus
// VictoriaMetrics counters/summaries for the handful of numbers an
// operator cares about (batches sealed, merge fuel spent, deferred queue
// depth).
package observ

import (
	"github.com/ledgerwatch/log/v3"
)

// Logger is the structured logger every operator/trace takes by
// constructor injection, mirroring kv/kv_interface.go's pervasive use of
// `log.Logger` for per-component diagnostics (erigon-lib passes one into
// nearly every long-lived component rather than using a global).
type Logger = log.Logger

// NewLogger returns a named child logger, e.g. for a specific arrangement
// (spec §6: "per-arrange 'name' for logging").
func NewLogger(name string) Logger {
	return log.New("component", name)
}

// Noop is a logger that discards everything, useful for tests and for
// operators constructed without an explicit logging need.
func Noop() Logger {
	return log.Root()
}
