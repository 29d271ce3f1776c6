// Package metrics defines the Prometheus collectors the receiver core
// exposes: live channel count, acquisition dwell count, detector tick
// duration, and C/N0 sigma (consumed alongside alertbus.MetricsSink's
// alert-by-case counter).
//
// Grounded on gnssgo/app/plot's OutMetrics/PushGaugeMetric and reinforced
// by _examples/jrockway-beaglebone-gps-clock and
// _examples/Cizor-spacetime-constellation-sim, all three of which export
// receiver/satellite telemetry via prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every gauge/counter/histogram the receiver core
// updates outside the alert-by-case counter (which lives with the alert
// bus, the component that naturally owns it).
type Collectors struct {
	LiveChannels       *prometheus.GaugeVec
	AcquisitionDwells  prometheus.Counter
	DetectorTickSecs   prometheus.Histogram
	CN0Sigma           prometheus.Gauge
}

// NewCollectors registers every collector with registerer and returns the
// bundle.
func NewCollectors(registerer prometheus.Registerer) *Collectors {
	c := &Collectors{
		LiveChannels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnssspoof_live_channels",
			Help: "Number of live channel UIDs, partitioned by PRN.",
		}, []string{"prn"}),
		AcquisitionDwells: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gnssspoof_acquisition_dwells_total",
			Help: "Acquisition dwells run across all engines.",
		}),
		DetectorTickSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gnssspoof_detector_tick_seconds",
			Help:    "Wall-clock duration of one detector tick.",
			Buckets: prometheus.DefBuckets,
		}),
		CN0Sigma: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gnssspoof_cn0_sigma",
			Help: "Cross-channel C/N0 standard deviation, most recent tick.",
		}),
	}
	registerer.MustRegister(c.LiveChannels, c.AcquisitionDwells, c.DetectorTickSecs, c.CN0Sigma)
	return c
}
