// Package metrics exposes Prometheus instrumentation for an uploadkit
// manager, grounded on the teacher's pkg/prometheuscollector: a small set of
// counters/gauges updated by the manager and the plugin runner, plus a
// ready-to-register prometheus.Collector.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks manager-level counters that are not already owned by
// pkg/plugin (which exposes its own invocation/error counters directly as
// package-level prometheus vectors, mirroring pkg/hooks.MetricsHook*).
type Collector struct {
	filesAdded     prometheus.Counter
	filesRemoved   prometheus.Counter
	filesErrored   prometheus.Counter
	uploadAttempts prometheus.Counter
	uploadFailures prometheus.Counter
	registrySize   prometheus.Gauge
}

var (
	defaultOnce       sync.Once
	defaultCollector  *Collector
)

// New constructs a Collector with its own unregistered metric instances.
// Call Describe/Collect (via prometheus.MustRegister(c)) to expose them, or
// use Default() to share one process-wide instance.
func New() *Collector {
	return &Collector{
		filesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uploadkit_files_added_total",
			Help: "Total number of files admitted into a manager.",
		}),
		filesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uploadkit_files_removed_total",
			Help: "Total number of files removed from a manager.",
		}),
		filesErrored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uploadkit_files_errored_total",
			Help: "Total number of files that reached the error status.",
		}),
		uploadAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uploadkit_upload_attempts_total",
			Help: "Total number of per-file upload attempts.",
		}),
		uploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uploadkit_upload_failures_total",
			Help: "Total number of per-file upload failures.",
		}),
		registrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "uploadkit_registry_size",
			Help: "Current number of tracked files across the registry.",
		}),
	}
}

// Default returns a process-wide Collector, constructing it on first use.
// It is not registered with any prometheus.Registerer automatically.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = New()
	})
	return defaultCollector
}

func (c *Collector) FileAdded()     { c.filesAdded.Inc() }
func (c *Collector) FileRemoved()   { c.filesRemoved.Inc() }
func (c *Collector) FileErrored()   { c.filesErrored.Inc() }
func (c *Collector) UploadAttempt() { c.uploadAttempts.Inc() }
func (c *Collector) UploadFailure() { c.uploadFailures.Inc() }
func (c *Collector) SetRegistrySize(n int) { c.registrySize.Set(float64(n)) }

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.filesAdded.Describe(ch)
	c.filesRemoved.Describe(ch)
	c.filesErrored.Describe(ch)
	c.uploadAttempts.Describe(ch)
	c.uploadFailures.Describe(ch)
	c.registrySize.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.filesAdded.Collect(ch)
	c.filesRemoved.Collect(ch)
	c.filesErrored.Collect(ch)
	c.uploadAttempts.Collect(ch)
	c.uploadFailures.Collect(ch)
	c.registrySize.Collect(ch)
}
