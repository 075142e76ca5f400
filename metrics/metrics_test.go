package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpIncludesRegisteredCollectors(t *testing.T) {
	StoreBusyTotal.Inc()
	RefreshDuration.Observe(0.5)

	out, err := Dump()
	require.NoError(t, err)
	assert.Contains(t, out, "cilq_store_busy_total")
	assert.Contains(t, out, "cilq_refresh_duration_seconds")
}
