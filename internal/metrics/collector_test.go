package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/ragdex/internal/metrics"
)

func TestRecordAggregates(t *testing.T) {
	c := metrics.NewCollector()

	c.Record(metrics.OpPoll, 10*time.Millisecond, nil)
	c.Record(metrics.OpPoll, 30*time.Millisecond, errors.New("timeout"))

	snap := c.Snapshot()
	require.NotNil(t, snap.Poll)
	assert.Equal(t, int64(2), snap.Poll.Count)
	assert.Equal(t, int64(1), snap.Poll.Errors)
	assert.Equal(t, int64(40), snap.Poll.TotalTimeMs)
	assert.Equal(t, 20.0, snap.Poll.AvgTimeMs)
	assert.Equal(t, int64(10), snap.Poll.MinTimeMs)
	assert.Equal(t, int64(30), snap.Poll.MaxTimeMs)
}

func TestSnapshotOmitsUnrecordedKinds(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(metrics.OpUpload, time.Millisecond, nil)

	snap := c.Snapshot()
	assert.NotNil(t, snap.Upload)
	assert.Nil(t, snap.Poll)
	assert.Nil(t, snap.Ask)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.Record(metrics.OpListing, time.Millisecond, nil)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	snap := c.Snapshot()
	require.NotNil(t, snap.Listing)
	assert.Equal(t, int64(400), snap.Listing.Count)
}
