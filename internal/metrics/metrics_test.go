package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGameMetrics(reg)

	m.Hit("mined")
	m.Hit("mined")
	m.VoxelMined("dirt", 3)
	m.SetMineVoxels(12)
	m.Sold(42)
	m.Upgraded()
	m.StationPress("sell", "confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("mined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.voxelsMined.WithLabelValues("dirt")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.revealed))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.mineVoxels))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.moneyEarned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upgrades))
}

func TestNilGameMetricsIsSafe(t *testing.T) {
	var m *GameMetrics
	assert.NotPanics(t, func() {
		m.Hit("mined")
		m.VoxelMined("dirt", 1)
		m.HostError("place")
		m.SetMineVoxels(1)
		m.SetPlayersLoaded(1)
		m.Sold(1)
		m.Upgraded()
		m.StationPress("sell", "prompt")
	})
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", FormatUptime(5*time.Second))
	assert.Equal(t, "2м 3с", FormatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1ч 0м 0с", FormatUptime(time.Hour))
	assert.Equal(t, "1д 2ч 0м 0с", FormatUptime(26*time.Hour))
}

func TestProcessCollectorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewProcessCollector(NewServerMetrics())))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "um_uptime_seconds")
}
