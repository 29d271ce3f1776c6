package alertbus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"gnssspoof/pkg/navdata"
)

// MetricsSink increments a Prometheus counter labeled by case id for every
// alert. Grounded on gnssgo/app/plot's OutMetrics/PushGaugeMetric.
type MetricsSink struct {
	alertsByCase *prometheus.CounterVec
}

// NewMetricsSink registers its counter with registerer (use
// prometheus.DefaultRegisterer in production, a fresh prometheus.NewRegistry
// in tests).
func NewMetricsSink(registerer prometheus.Registerer) *MetricsSink {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnssspoof_alerts_total",
		Help: "Spoofing alerts emitted, partitioned by spoofing_case.",
	}, []string{"case_id"})
	registerer.MustRegister(counter)
	return &MetricsSink{alertsByCase: counter}
}

func (s *MetricsSink) Handle(alert navdata.SpoofingAlert) {
	s.alertsByCase.WithLabelValues(strconv.Itoa(alert.CaseID)).Inc()
}
