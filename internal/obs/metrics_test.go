package obs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncMarketEvent()
			}
			m.IncIndicatorEvent()
			m.IncConfigUpdate()
			m.IncAuditRecord()
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, uint64(800), snap.MarketEvents)
	assert.Equal(t, uint64(8), snap.IndicatorEvents)
	assert.Equal(t, uint64(8), snap.ConfigUpdates)
	assert.Equal(t, uint64(8), snap.AuditRecords)
}

func TestMetricsPublishStall(t *testing.T) {
	m := NewMetrics()
	m.ObservePublishStall(10 * time.Millisecond)
	m.ObservePublishStall(30 * time.Millisecond)
	m.ObservePublishStall(20 * time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.PublishStall.Count)
	assert.Equal(t, 20*time.Millisecond, snap.PublishStall.Avg)
	assert.Equal(t, 30*time.Millisecond, snap.PublishStall.Max)
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.IncMarketEvent()
	m.ObservePublishStall(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
