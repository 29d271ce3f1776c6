package snrwindow

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxPublisher exports per-PRN C/N0 samples and the detector's rolling
// sigma (spec.md §4.G.9/G.10) to a time-series database for operator
// dashboards. Optional: the detector works identically with a nil
// publisher.
//
// Grounded on gnssgo/app/plot, which builds an influxdb-client-go write API
// for solution telemetry; this reuses the same client shape for SNR
// telemetry instead.
type InfluxPublisher struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

// NewInfluxPublisher connects to an InfluxDB server. serverURL and token
// follow influxdb-client-go conventions.
func NewInfluxPublisher(serverURL, token, org, bucket string) *InfluxPublisher {
	client := influxdb2.NewClient(serverURL, token)
	return &InfluxPublisher{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		bucket:   bucket,
		org:      org,
	}
}

// PublishCN0 writes one C/N0 sample point for prn.
func (p *InfluxPublisher) PublishCN0(ctx context.Context, prn int, cn0DbHz float64, at time.Time) error {
	if p == nil {
		return nil
	}
	point := write.NewPoint(
		"cn0",
		map[string]string{"prn": itoa(prn)},
		map[string]interface{}{"db_hz": cn0DbHz},
		at,
	)
	return p.writeAPI.WritePoint(ctx, point)
}

// PublishSigma writes the current tick's cross-channel C/N0 standard
// deviation, the quantity G.9 monitors for collapse under spoofing.
func (p *InfluxPublisher) PublishSigma(ctx context.Context, sigma float64, at time.Time) error {
	if p == nil {
		return nil
	}
	point := write.NewPoint(
		"cn0_sigma",
		nil,
		map[string]interface{}{"value": sigma},
		at,
	)
	return p.writeAPI.WritePoint(ctx, point)
}

// Close releases the underlying HTTP client.
func (p *InfluxPublisher) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}

func itoa(n int) string { return strconv.Itoa(n) }
