// Package schedmetrics exposes Prometheus metrics for the multipath
// scheduler: selection counts, exhaustion, reinjections, and a scraped
// snapshot of path state for dashboards.
package schedmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "mpsched"
	subsystem = "scheduler"
)

const (
	labelPathID    = "path_id"
	labelAlgorithm = "algorithm"
)

// Collector holds all scheduler Prometheus metrics.
type Collector struct {
	// Selections counts successful Select calls, labeled by the chosen
	// path and the active algorithm.
	Selections *prometheus.CounterVec

	// NoPathAvailable counts Select calls that returned
	// scheduler.ErrNoPathAvailable, labeled by algorithm.
	NoPathAvailable *prometheus.CounterVec

	// Reinjections counts reinjection markers enqueued by the redundant
	// strategy, labeled by the origin path.
	Reinjections *prometheus.CounterVec

	// PathSRTTSeconds is a scraped gauge of each path's effective
	// smoothed RTT, for dashboards.
	PathSRTTSeconds *prometheus.GaugeVec

	// PathEligible is a scraped gauge (0/1) of each path's scheduler
	// eligibility, for dashboards.
	PathEligible *prometheus.GaugeVec
}

// NewCollector creates a Collector with all scheduler metrics registered
// against reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Selections,
		c.NoPathAvailable,
		c.Reinjections,
		c.PathSRTTSeconds,
		c.PathEligible,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "selections_total",
			Help:      "Total successful path selections.",
		}, []string{labelPathID, labelAlgorithm}),

		NoPathAvailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "no_path_available_total",
			Help:      "Total Select calls that found no eligible path.",
		}, []string{labelAlgorithm}),

		Reinjections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reinjections_total",
			Help:      "Total reinjection markers enqueued by the redundant strategy.",
		}, []string{"origin_path_id"}),

		PathSRTTSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "path_srtt_seconds",
			Help:      "Effective smoothed RTT per path.",
		}, []string{labelPathID}),

		PathEligible: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "path_eligible",
			Help:      "Whether a path currently satisfies the scheduler eligibility filter (1) or not (0).",
		}, []string{labelPathID}),
	}
}

// RecordSelection increments the selections counter for pathID under
// algorithm.
func (c *Collector) RecordSelection(pathID int, algorithm string) {
	c.Selections.WithLabelValues(itoa(pathID), algorithm).Inc()
}

// RecordNoPathAvailable increments the exhaustion counter for algorithm.
func (c *Collector) RecordNoPathAvailable(algorithm string) {
	c.NoPathAvailable.WithLabelValues(algorithm).Inc()
}

// RecordReinjection increments the reinjection counter for originPathID.
func (c *Collector) RecordReinjection(originPathID int) {
	c.Reinjections.WithLabelValues(itoa(originPathID)).Inc()
}

// SetPathSRTT sets the scraped SRTT gauge for pathID, in seconds.
func (c *Collector) SetPathSRTT(pathID int, seconds float64) {
	c.PathSRTTSeconds.WithLabelValues(itoa(pathID)).Set(seconds)
}

// SetPathEligible sets the scraped eligibility gauge for pathID.
func (c *Collector) SetPathEligible(pathID int, eligible bool) {
	v := 0.0
	if eligible {
		v = 1.0
	}
	c.PathEligible.WithLabelValues(itoa(pathID)).Set(v)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
