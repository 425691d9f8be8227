package observ

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMetricsDistinctNames(t *testing.T) {
	require := require.New(t)
	a := NewMetrics("arrange-orders")
	b := NewMetrics("arrange-customers")
	require.NotNil(a.BatchesSealed)
	require.NotNil(b.BatchesSealed)
}

func TestNewLoggerDoesNotPanic(t *testing.T) {
	require := require.New(t)
	l := NewLogger("test-component")
	require.NotNil(l)
	l.Info("hello", "k", "v")
}
