// Command receiver is the spoofing-detection core's process entry point:
// it wires the shared ledgers (pkg/ledger), the channel registry
// (pkg/channel), the assistance cache (pkg/assistance), the SNR window
// store (pkg/snrwindow), the detector (pkg/detector) and the alert bus
// (pkg/alertbus) into one running process, exposes a Prometheus /metrics
// endpoint, and drives the detector's Tick loop on a fixed interval.
//
// Grounded on gnssgo/app/rtkrcv/rtkrcv.go's main(): flag.Parse into package
// globals, options-file loading, SIGINT/SIGTERM handling via a signal
// channel and a sigshut-style graceful-stop function, and the commented-out
// ClickHouse/Mongo/Elastic wiring that function left unfinished — this
// finishes it, conditional on CLI flags instead of being permanently
// commented out.
//
// The RF sample source, tracking, and telemetry decoding remain external
// collaborators spec.md §1 places out of scope for the detection core.
// Acquisition (component A, pkg/acquisition) is reached through an
// AcquisitionSupervisor that callers feed raw dwells into, rather than
// fabricating an RF front-end or a PRN code-generator that no example in
// this repo's corpus implements.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gnssspoof/internal/config"
	"gnssspoof/internal/logging"
	"gnssspoof/internal/metrics"
	"gnssspoof/pkg/acquisition"
	"gnssspoof/pkg/alertbus"
	"gnssspoof/pkg/assistance"
	"gnssspoof/pkg/channel"
	"gnssspoof/pkg/detector"
	"gnssspoof/pkg/dsp"
	"gnssspoof/pkg/ledger"
	"gnssspoof/pkg/navdata"
	"gnssspoof/pkg/snrwindow"
)

// AcquisitionSupervisor owns one acquisition.Engine per PRN the caller has
// configured to search for, and allocates the channel UIDs an acquired peak
// is tracked under. It is the seam between this binary's wiring and the
// RF-sampling/tracking-loop/telemetry-decoder collaborators that feed it
// dwells and, downstream, push decoded messages into the ledgers.
type AcquisitionSupervisor struct {
	mu       sync.Mutex
	registry *channel.Registry
	metrics  *metrics.Collectors
	fftSize  int
	engines  map[int]*acquisition.Engine
}

// NewAcquisitionSupervisor returns a supervisor whose engines run an FFT of
// length fftSize (samples per code period at the configured sample rate).
func NewAcquisitionSupervisor(registry *channel.Registry, m *metrics.Collectors, fftSize int) *AcquisitionSupervisor {
	return &AcquisitionSupervisor{
		registry: registry,
		metrics:  m,
		fftSize:  fftSize,
		engines:  make(map[int]*acquisition.Engine),
	}
}

// Configure registers prn for acquisition against localCode (its PRN C/A
// code, already at the engine's sample rate, length fftSize).
// numPeaksPerPRN (spec.md §4.A "num_peaks_per_prn") is not stored and does
// not limit anything: the peak rank is chosen by each Feed call.
func (a *AcquisitionSupervisor) Configure(prn int, localCode []complex128, numPeaksPerPRN int, dopplerMaxHz, dopplerStepHz int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := acquisition.NewEngine(dsp.NewGonumFFT(a.fftSize))
	e.SetLocalCode(localCode)
	e.SetPfa(1e-3)
	e.SetDopplerMax(dopplerMaxHz)
	e.SetDopplerStep(dopplerStepHz)
	a.engines[prn] = e
	_ = numPeaksPerPRN // peak rank is selected per Feed call via SetPeak
}

// Feed runs one dwell of samples through prn's engine at the requested peak
// rank and, on a positive verdict, allocates (or reuses) the channel UID
// for (prn, peakRank) in the registry. Returns the outcome and UID; UID is
// zero on a negative or still-dwelling verdict.
func (a *AcquisitionSupervisor) Feed(prn, peakRank int, samples []complex128, f0Hz, fsHz float64, sampleCounter uint64) (acquisition.Outcome, navdata.ChannelUID) {
	a.mu.Lock()
	e, ok := a.engines[prn]
	a.mu.Unlock()
	if !ok {
		return acquisition.Outcome{Kind: acquisition.Negative}, 0
	}

	a.mu.Lock()
	e.SetPeak(peakRank)
	a.mu.Unlock()

	outcome := e.Run(samples, f0Hz, fsHz, sampleCounter)
	if a.metrics != nil {
		a.metrics.AcquisitionDwells.Inc()
	}
	if outcome.Kind != acquisition.Positive {
		return outcome, 0
	}
	return outcome, a.registry.Allocate(prn, peakRank)
}

// TelemetryIngest is the seam the tracking loop pushes C/N0 samples
// through: it fans each sample out to the SNR window store G.9/G.10 read
// from and, if configured, to an InfluxDB time-series sink for operator
// dashboards.
type TelemetryIngest struct {
	snr    *snrwindow.Store
	influx *snrwindow.InfluxPublisher
}

// RecordCN0 records one C/N0 sample (dB-Hz) for prn at the current time.
func (t *TelemetryIngest) RecordCN0(ctx context.Context, prn int, cn0DbHz float64) {
	t.snr.Push(prn, cn0DbHz)
	if t.influx != nil {
		if err := t.influx.PublishCN0(ctx, prn, cn0DbHz, time.Now()); err != nil {
			// best-effort telemetry export; the detector's own statistical
			// checks never depend on this succeeding
			_ = err
		}
	}
}

func main() {
	var (
		configPath    = flag.String("config", "", "path to receiver YAML config (defaults used if empty)")
		httpAddr      = flag.String("http", ":9100", "address for the Prometheus /metrics endpoint")
		tickInterval  = flag.Duration("tick-interval", time.Second, "detector Tick() period")
		assistDir     = flag.String("assist-dir", "", "directory of local ephemeris/iono/utc XML assistance files; empty disables the file source")
		clickhouseDSN = flag.String("clickhouse-dsn", "", "ClickHouse DSN for the alert archive (gorm); empty disables the sink")
		auditDSN      = flag.String("audit-dsn", "", "ClickHouse DSN for the assistance-cache refresh audit log; empty disables auditing")
		mongoURI      = flag.String("mongo-uri", "", "MongoDB URI for the alert archive; empty disables the sink")
		mongoDB       = flag.String("mongo-db", "gnssspoof", "MongoDB database name for the alert archive")
		mongoColl     = flag.String("mongo-collection", "alerts", "MongoDB collection name for the alert archive")
		elasticURL    = flag.String("elastic-url", "", "Elasticsearch URL for the alert index; empty disables the sink")
		elasticIndex  = flag.String("elastic-index", "spoofing_alerts", "Elasticsearch index name for the alert sink")
		influxURL     = flag.String("influx-url", "", "InfluxDB server URL for C/N0 telemetry export; empty disables export")
		influxToken   = flag.String("influx-token", "", "InfluxDB auth token")
		influxOrg     = flag.String("influx-org", "", "InfluxDB organization")
		influxBucket  = flag.String("influx-bucket", "gnssspoof", "InfluxDB bucket for C/N0 telemetry")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "no config file %s, defaults used: %v\n", *configPath, err)
		} else {
			cfg = loaded
		}
	}

	logger := logging.New(cfg.LogLevel)

	registry := channel.NewRegistry()
	subframes := ledger.NewSubframeLedger()
	gpsTimes := ledger.NewGpsTimeLedger()
	satPos := ledger.NewSatPosLedger()
	snr := snrwindow.New(cfg.Statistical.SnrMovingAvgWindow)

	var influxPublisher *snrwindow.InfluxPublisher
	if *influxURL != "" {
		influxPublisher = snrwindow.NewInfluxPublisher(*influxURL, *influxToken, *influxOrg, *influxBucket)
		defer influxPublisher.Close()
	}
	telemetry := &TelemetryIngest{snr: snr, influx: influxPublisher}
	_ = telemetry // wired for the tracking-loop collaborator's RecordCN0 calls

	collectors := metrics.NewCollectors(prometheus.DefaultRegisterer)

	sinks := []alertbus.Sink{alertbus.NewLogSink(logger), alertbus.NewMetricsSink(prometheus.DefaultRegisterer)}

	if *clickhouseDSN != "" {
		sink, err := alertbus.NewGormClickHouseSink(*clickhouseDSN)
		if err != nil {
			logger.WithError(err).Warn("clickhouse alert sink disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}
	if *mongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
		if err == nil {
			err = client.Ping(ctx, nil)
		}
		cancel()
		if err != nil {
			logger.WithError(err).Warn("mongo alert sink disabled")
		} else {
			sinks = append(sinks, alertbus.NewMongoSink(client.Database(*mongoDB).Collection(*mongoColl)))
		}
	}
	if *elasticURL != "" {
		sink, err := alertbus.NewElasticSink(*elasticIndex, *elasticURL)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch alert sink disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}

	bus := alertbus.New(sinks...)

	var audit assistance.AuditLog
	if *auditDSN != "" {
		a, err := assistance.NewClickHouseAuditLog(*auditDSN)
		if err != nil {
			logger.WithError(err).Warn("assistance-cache audit log disabled")
		} else {
			audit = a
		}
	}

	var files assistance.FileStore
	source := assistance.Source{Kind: "none"}
	if *assistDir != "" {
		files = assistance.NewXMLFileStore()
		source = assistance.Source{Kind: "file", Directory: *assistDir}
	}
	cache := assistance.New(source, nil, files, audit)
	if *assistDir != "" {
		for _, kind := range []assistance.Kind{assistance.KindEphemeris, assistance.KindIono, assistance.KindUtc, assistance.KindAlmanac, assistance.KindRefTime} {
			if err := cache.Refresh(kind); err != nil {
				logger.WithError(err).Warn("assistance cache refresh failed")
			}
		}
	}

	det := detector.New(cfg, registry, subframes, gpsTimes, satPos, cache, snr, bus, collectors, logger)

	supervisor := NewAcquisitionSupervisor(registry, collectors, 2046)
	_ = supervisor // wired for external sample-source callers; see package doc

	http.Handle("/metrics", promhttp.Handler())
	httpServer := &http.Server{Addr: *httpAddr}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics endpoint stopped")
		}
	}()

	stopTicking := make(chan struct{})
	go func() {
		ticker := time.NewTicker(*tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				det.Tick()
			case <-stopTicking:
				return
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("receiver started")
	<-sigs

	logger.Info("shutting down")
	close(stopTicking)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = httpServer.Shutdown(shutdownCtx)
	cancel()
	bus.Close()
}
