package influxdb

import (
	"runtime"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementRuntime is the measurement name of engine runtime samples.
const MeasurementRuntime = "runtime"

// RuntimeSample is one snapshot of the engine process.
type RuntimeSample struct {
	Goroutines int
	HeapBytes  uint64
	GCCycles   uint32
	Updates    uint64
	Modules    int
	At         time.Time
}

// ReadRuntime samples the Go runtime. updates and modules are supplied by
// the caller.
func ReadRuntime(updates uint64, modules int) RuntimeSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeSample{
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  ms.HeapAlloc,
		GCCycles:   ms.NumGC,
		Updates:    updates,
		Modules:    modules,
		At:         time.Now(),
	}
}

// WriteRuntime writes a runtime sample tagged with the engine name and run.
//
// Example:
//
//	client.WriteRuntime("HAP", ctx.RunID(), influxdb.ReadRuntime(n, 3))
func (c *Client) WriteRuntime(engine, runID string, s RuntimeSample) {
	c.WritePointWithTime(MeasurementRuntime,
		map[string]string{
			"engine": engine,
			"run_id": runID,
		},
		map[string]any{
			"goroutines": s.Goroutines,
			"heap_bytes": int64(s.HeapBytes), //nolint:gosec // heap fits in int64
			"gc_cycles":  int64(s.GCCycles),
			"updates":    int64(s.Updates), //nolint:gosec // counter fits in int64
			"modules":    s.Modules,
		},
		s.At,
	)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
