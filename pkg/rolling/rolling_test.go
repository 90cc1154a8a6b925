package rolling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmptyWindow(t *testing.T) {
	w := New48h()
	avg, n := w.AverageAndCount()
	assert.Zero(t, avg)
	assert.Zero(t, n)
	assert.Equal(t, int64(48*3600), w.WindowSecs())
}

func TestAverageAndCount(t *testing.T) {
	w := New48h()
	w.Record(2, 0)
	w.Record(-1, 0)
	w.Record(5, 0)

	avg, n := w.AverageAndCount()
	assert.Equal(t, 3, n)
	assert.InDelta(t, 2.0, avg, 1e-9)
}

func TestOldSamplesExpire(t *testing.T) {
	w := NewWindow(time.Hour)
	old := time.Now().Unix() - 2*3600
	w.Record(100, old)
	w.Record(2, 0)

	avg, n := w.AverageAndCount()
	assert.Equal(t, 1, n)
	assert.InDelta(t, 2.0, avg, 1e-9)
}

func TestRecordPrunesBuffer(t *testing.T) {
	w := NewWindow(time.Minute)
	stale := time.Now().Unix() - 600
	for i := 0; i < 10; i++ {
		w.Record(1, stale)
	}
	// A fresh record drops everything older than the window.
	w.Record(7, 0)

	avg, n := w.AverageAndCount()
	assert.Equal(t, 1, n)
	assert.InDelta(t, 7.0, avg, 1e-9)
}

func TestConcurrentRecord(t *testing.T) {
	w := New48h()
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func() {
			for i := 0; i < 100; i++ {
				w.Record(1, 0)
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	_, n := w.AverageAndCount()
	assert.Equal(t, 400, n)
}
