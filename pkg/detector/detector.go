// Package detector implements component G of spec.md §4.G: the battery of
// spoofing cross-checks G.1-G.11, run against the shared ledgers (C/D/E),
// the external assistance cache (F) and the SNR window store (I), and
// publishing SpoofingAlert records to the alert bus (H).
//
// Checks come in two flavors, matching spec.md's own wording for each:
// "on each new ephemeris"/"fresh SatPos"/"each new PVT fix" checks
// (G.6, G.7, G.8, G.11) are event-driven — the telemetry decoder and PVT
// solver collaborators push messages directly to the detector, exactly as
// spec.md §6 describes ("telemetry decoder ... emits ... messages to the
// detector"; "PVT solver ... writes ledger E"). The remaining checks
// (G.1-G.5, G.9, G.10) are genuinely continuous, polling the shared
// ledgers and the SNR store on every Tick, per spec.md §4.G's top-level
// "tick(receiver_state) aggregates the current ledgers".
//
// Grounded directly on
// _examples/original_source/src/algorithms/libs/spoofing_detector.cc,
// ported check-by-check, and on gnssgo/rtksvr.go's fixed-lock-order
// snapshot-then-compute pattern for Tick's concurrency shape (spec.md §5:
// lock C,D,E,F,I in order, snapshot, release, then compute).
package detector

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gnssspoof/internal/config"
	"gnssspoof/internal/gnsstime"
	"gnssspoof/internal/metrics"
	"gnssspoof/pkg/alertbus"
	"gnssspoof/pkg/assistance"
	"gnssspoof/pkg/channel"
	"gnssspoof/pkg/ledger"
	"gnssspoof/pkg/navdata"
	"gnssspoof/pkg/snrwindow"
)

// Detector is the single long-lived spoofing-detection entity, configured
// once with the checks enabled (spec.md §4.G: "Single long-lived entity
// configured once with flags enabling each check").
type Detector struct {
	cfg config.Config

	registry   *channel.Registry
	subframes  *ledger.SubframeLedger
	gpsTimes   *ledger.GpsTimeLedger
	satPos     *ledger.SatPosLedger
	assistance *assistance.Cache
	snr        *snrwindow.Store
	bus        *alertbus.Bus
	metrics    *metrics.Collectors
	logger     *logrus.Logger

	// d_max_rx_discrepancy is accepted in ns but always overwritten to the
	// literal 0.0005 ms, per SPEC_FULL.md §5 / DESIGN.md's preserved
	// open-question decision. maxRxDiscrepancyMs holds the effective value.
	maxRxDiscrepancyMs float64

	mu sync.Mutex

	pairProgress    map[pairKey]map[int]bool // G.1: subframe ids {1,2,3} matched per UID pair
	pairVerified    map[pairKey]bool
	lastGpsAbsolute map[navdata.ChannelUID]gpsMoment // G.5 TOW continuity bookkeeping
	sigmaHistory    []float64                        // G.9 secondary circular buffer, bounded
	lastAltitude    float64
	haveAltitude    bool
}

type pairKey struct {
	prn      int
	uidLo    navdata.ChannelUID
	uidHi    navdata.ChannelUID
}

func newPairKey(prn int, a, b navdata.ChannelUID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{prn: prn, uidLo: a, uidHi: b}
}

type gpsMoment struct {
	wallClockMs int64
	absolute    float64 // week*604800 + tow
}

// New constructs a Detector wired to every shared component it reads from
// and publishes to.
func New(
	cfg config.Config,
	registry *channel.Registry,
	subframes *ledger.SubframeLedger,
	gpsTimes *ledger.GpsTimeLedger,
	satPos *ledger.SatPosLedger,
	cache *assistance.Cache,
	snr *snrwindow.Store,
	bus *alertbus.Bus,
	m *metrics.Collectors,
	logger *logrus.Logger,
) *Detector {
	d := &Detector{
		cfg:             cfg,
		registry:        registry,
		subframes:       subframes,
		gpsTimes:        gpsTimes,
		satPos:          satPos,
		assistance:      cache,
		snr:             snr,
		bus:             bus,
		metrics:         m,
		logger:          logger,
		pairProgress:    make(map[pairKey]map[int]bool),
		pairVerified:    make(map[pairKey]bool),
		lastGpsAbsolute: make(map[navdata.ChannelUID]gpsMoment),
	}

	// SPEC_FULL.md §5 / DESIGN.md: the configured nanosecond value is
	// always overwritten, not merely defaulted. Preserved verbatim because
	// spec.md §9 forbids silently dropping this quirk.
	if cfg.AP.MaxRxDiscrepancyNs != 0 {
		logger.WithField("configured_ns", cfg.AP.MaxRxDiscrepancyNs).
			Warn("d_max_rx_discrepancy is ignored; overridden to 0.0005ms per upstream behavior")
	}
	d.maxRxDiscrepancyMs = 0.0005

	return d
}

func (d *Detector) emit(caseID int, description string) {
	alert := navdata.SpoofingAlert{
		CaseID:      caseID,
		Description: description,
		WallClockMs: gnsstime.WallClockMillis(time.Now()),
	}
	d.bus.Publish(alert)
}

// Tick runs the continuously-polled checks (G.1-G.5, G.9, G.10) against a
// fixed-lock-order snapshot of the shared ledgers (spec.md §5).
func (d *Detector) Tick() {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.DetectorTickSecs.Observe(time.Since(start).Seconds())
		}
	}()

	// Fixed lock order C, D, E, F, I (spec.md §5); F and I are read inside
	// their own checks below since they're independently-locked components,
	// not ledgers sharing this store's mutex.
	subframeSnap := d.subframes.Snapshot()
	gpsTimeSnap := d.gpsTimes.Snapshot()

	if d.cfg.AP.Enabled {
		d.checkAuxiliaryPeakCrossCheck(subframeSnap)
		d.checkReceptionTimeConsistency(subframeSnap)
		d.checkSharedSubframeCrossPRN(subframeSnap)
	}
	if d.cfg.AP.InterSatelliteCheck {
		d.checkInterSatelliteGpsTime(gpsTimeSnap)
	}
	d.checkTowContinuity(gpsTimeSnap)
	if d.cfg.Statistical.CNoDetection {
		d.checkCNoStatistical()
		d.checkCNoCorrelation()
	}
}

// OnEphemeris handles the message-driven checks G.6 (middle-of-earth) and
// G.11 (external-source cross-check), fired "on each new ephemeris message
// from a UID" per spec.md §4.G.6/G.11.
func (d *Detector) OnEphemeris(snap navdata.EphemerisSnapshot) {
	d.checkMiddleOfEarth(snap)
	if d.cfg.AP.ExternalNavCheck {
		d.checkExternalEphemeris(snap)
	}
}

// OnSatPos handles G.7 (satellite-position plausibility) and writes the
// fresh position into ledger E, matching spec.md §6 ("PVT solver ... writes
// ledger E") and §4.G.7 ("given a fresh SatPos ... look up the previous
// entry").
func (d *Detector) OnSatPos(sp navdata.SatPos) {
	prev, hadPrev := d.satPos.Read(sp.PRN)
	d.satPos.Write(sp)
	if !d.cfg.Statistical.SatPosDetection || !hadPrev {
		return
	}
	d.checkSatPosPlausibility(prev, sp)
}

// OnPositionFix handles G.8 (position sanity) on each new PVT fix.
func (d *Detector) OnPositionFix(altitudeMeters float64) {
	if !d.cfg.Statistical.AltDetection {
		return
	}
	d.checkPositionSanity(altitudeMeters)
}

func (d *Detector) format(caseID int, format string, args ...interface{}) {
	d.emit(caseID, fmt.Sprintf(format, args...))
}
