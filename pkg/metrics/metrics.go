// Package metrics keeps operational gauges and counters in an embedded
// tstorage time-series store under the application workdir.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/nakabonne/tstorage"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the metrics store. Before it is called (or after it
// fails) all writes are silently dropped so callers never need to guard.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

func insert(name string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// SetGauge records the current value of a gauge metric.
func SetGauge(name string, value int64) {
	insert(name, float64(value))
}

// Incr records one occurrence of a counter metric.
func Incr(name string) {
	insert(name, 1)
}

// Select returns raw points for a metric in [start, end].
func Select(name string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return nil, nil
	}
	points, err := s.Select(name, nil, start, end)
	if err == tstorage.ErrNoDataPoints {
		return nil, nil
	}
	return points, err
}

// Stats summarizes a metric over a query window.
type Stats struct {
	Count  int     `json:"count"`
	Latest float64 `json:"latest"`
	Mean   float64 `json:"mean"`
	P95    float64 `json:"p95"`
}

// Summary aggregates a metric over the trailing window.
func Summary(name string, window time.Duration) (Stats, error) {
	end := time.Now().Unix()
	start := end - int64(window.Seconds())
	points, err := Select(name, start, end)
	if err != nil || len(points) == 0 {
		return Stats{}, err
	}

	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Value)
	}

	mean, _ := stats.Mean(values)
	p95, _ := stats.Percentile(values, 95)
	return Stats{
		Count:  len(values),
		Latest: values[len(values)-1],
		Mean:   mean,
		P95:    p95,
	}, nil
}

// Close flushes and closes the metrics store.
func Close() error {
	mu.Lock()
	s := storage
	storage = nil
	mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}
