package detector

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"gnssspoof/internal/config"
	"gnssspoof/internal/gnsstime"
	"gnssspoof/pkg/alertbus"
	"gnssspoof/pkg/assistance"
	"gnssspoof/pkg/channel"
	"gnssspoof/pkg/ledger"
	"gnssspoof/pkg/navdata"
	"gnssspoof/pkg/snrwindow"
)

type recordingSink struct {
	alerts []navdata.SpoofingAlert
}

func (r *recordingSink) Handle(a navdata.SpoofingAlert) { r.alerts = append(r.alerts, a) }

type testFixture struct {
	d         *Detector
	registry  *channel.Registry
	subframes *ledger.SubframeLedger
	gpsTimes  *ledger.GpsTimeLedger
	sink      *recordingSink
	bus       *alertbus.Bus
}

func newTestDetector(t *testing.T, cfg config.Config) *testFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	registry := channel.NewRegistry()
	subframes := ledger.NewSubframeLedger()
	gpsTimes := ledger.NewGpsTimeLedger()
	satPos := ledger.NewSatPosLedger()
	cache := assistance.New(assistance.Source{Kind: "file"}, nil, nil, nil)
	snr := snrwindow.New(4)

	sink := &recordingSink{}
	bus := alertbus.New(sink)

	d := New(cfg, registry, subframes, gpsTimes, satPos, cache, snr, bus, nil, logger)
	return &testFixture{d: d, registry: registry, subframes: subframes, gpsTimes: gpsTimes, sink: sink, bus: bus}
}

// drain closes the bus, which blocks until every queued alert has reached
// sink.alerts. Tests must call this before asserting on sink.alerts.
func (f *testFixture) drain() { f.bus.Close() }

func Test_MaxRxDiscrepancyAlwaysOverridden(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	cfg.AP.MaxRxDiscrepancyNs = 999999
	f := newTestDetector(t, cfg)
	assert.Equal(0.0005, f.d.maxRxDiscrepancyMs)
}

func Test_AuxiliaryPeakCrossCheck_MatchConfirmsPair(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(5, 0)
	uidB := f.registry.Allocate(5, 1)

	for id := 1; id <= 3; id++ {
		f.subframes.Write(navdata.Subframe{UID: uidA, PRN: 5, SubframeID: id, BitPayload: "1010", WallClockMs: 1000})
		f.subframes.Write(navdata.Subframe{UID: uidB, PRN: 5, SubframeID: id, BitPayload: "1010", WallClockMs: 1000})
		f.d.checkAuxiliaryPeakCrossCheck(f.subframes.Snapshot())
	}

	statusA, _ := f.registry.StatusOf(uidA)
	statusB, _ := f.registry.StatusOf(uidB)
	assert.Equal(channel.StatusVerified, statusA)
	assert.Equal(channel.StatusVerified, statusB)
	f.drain()
	assert.Empty(f.sink.alerts)
}

func Test_AuxiliaryPeakCrossCheck_MismatchAlerts(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(7, 0)
	uidB := f.registry.Allocate(7, 1)
	f.subframes.Write(navdata.Subframe{UID: uidA, PRN: 7, SubframeID: 1, BitPayload: "0000", WallClockMs: 1000})
	f.subframes.Write(navdata.Subframe{UID: uidB, PRN: 7, SubframeID: 1, BitPayload: "1111", WallClockMs: 1000})

	f.d.checkAuxiliaryPeakCrossCheck(f.subframes.Snapshot())
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseSubframeMismatch, f.sink.alerts[0].CaseID)
}

func Test_ReceptionTimeConsistency_FlagsLargeGap(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(9, 0)
	uidB := f.registry.Allocate(9, 1)
	f.subframes.Write(navdata.Subframe{UID: uidA, PRN: 9, SubframeID: 2, BitPayload: "abc", WallClockMs: 1000})
	f.subframes.Write(navdata.Subframe{UID: uidB, PRN: 9, SubframeID: 2, BitPayload: "abc", WallClockMs: 5000})

	f.d.checkReceptionTimeConsistency(f.subframes.Snapshot())
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseRxTimeInconsistency, f.sink.alerts[0].CaseID)
}

func Test_TowContinuity_FlagsJump(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uid := f.registry.Allocate(11, 0)
	f.gpsTimes.Write(navdata.GpsTime{UID: uid, Week: 2300, TowSeconds: 100, WallClockMs: 1000})
	f.d.checkTowContinuity(f.gpsTimes.Snapshot())

	// One real second elapses, but TOW jumps by a full subframe and more.
	f.gpsTimes.Write(navdata.GpsTime{UID: uid, Week: 2300, TowSeconds: 130, WallClockMs: 2000})
	f.d.checkTowContinuity(f.gpsTimes.Snapshot())
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseTowJump, f.sink.alerts[0].CaseID)
}

func Test_MiddleOfEarth_FlagsZeroSqrtA(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	f.d.checkMiddleOfEarth(navdata.EphemerisSnapshot{PRN: 3, SqrtA: 0})
	f.d.checkMiddleOfEarth(navdata.EphemerisSnapshot{PRN: 3, SqrtA: 5153.6})
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseOrbitImplausible, f.sink.alerts[0].CaseID)
}

func Test_PositionSanity_FlagsExcessiveAltitude(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	f.d.checkPositionSanity(500)
	f.d.checkPositionSanity(cfg.Statistical.MaxAltKm*1000 + 1)
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CasePositionOrTimeAnomaly, f.sink.alerts[0].CaseID)
}

func Test_PositionSanity_FlagsNegativeHeight(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	f.d.checkPositionSanity(50)
	f.d.checkPositionSanity(-20)
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CasePositionOrTimeAnomaly, f.sink.alerts[0].CaseID)
	assert.Contains(f.sink.alerts[0].Description, "negative height")
}

func Test_CNoCorrelation_FlagsCorrelatedFading(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)
	f.d.snr = snrwindow.New(correlationMinSamples)

	// Near-identical, near-zero-variance series: cov(A,A) and cov(B,B) are
	// tiny, so rho = cov(A,B)/(cov(A,A)*cov(B,B)) blows up past 3 even
	// though the two PRNs are perfectly in step.
	for i := 0; i < correlationMinSamples; i++ {
		v := 40.0 + 0.01*float64(i%2)
		f.d.snr.Push(1, v)
		f.d.snr.Push(2, v)
	}
	f.d.checkCNoCorrelation()
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseCNoAnomaly, f.sink.alerts[0].CaseID)
}

func Test_CNoCorrelation_SilentBelowSampleThreshold(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)
	f.d.snr = snrwindow.New(correlationMinSamples)

	for i := 0; i < correlationMinSamples-1; i++ {
		v := 40.0 + float64(i%5)
		f.d.snr.Push(1, v)
		f.d.snr.Push(2, v)
	}
	f.d.checkCNoCorrelation()
	f.drain()

	assert.Empty(f.sink.alerts)
}

func Test_CNoStatistical_SilentUntilSigmaBufferFull(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	cfg.Statistical.CNoCount = 2
	cfg.Statistical.CNoMin = 3
	f := newTestDetector(t, cfg)

	for i := 0; i < 4; i++ {
		f.d.snr.Push(1, 40)
		f.d.snr.Push(2, 40)
	}

	// Every tick's cross-channel sigma is ~0, below CNoMin, but the
	// secondary buffer isn't full yet: the check must stay silent.
	for i := 0; i < cnoSigmaBufferCapacity-1; i++ {
		f.d.checkCNoStatistical()
	}
	f.drain()
	assert.Empty(f.sink.alerts)
}

func Test_CNoStatistical_FlagsSigmaCollapseOnceBufferFull(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	cfg.Statistical.CNoCount = 2
	cfg.Statistical.CNoMin = 3
	f := newTestDetector(t, cfg)

	for i := 0; i < 4; i++ {
		f.d.snr.Push(1, 40)
		f.d.snr.Push(2, 40)
	}

	for i := 0; i < cnoSigmaBufferCapacity; i++ {
		f.d.checkCNoStatistical()
	}
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CaseCNoAnomaly, f.sink.alerts[0].CaseID)
}

func Test_InterSatelliteGpsTime_FlagsDivergentAbsoluteTimes(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(1, 0)
	uidB := f.registry.Allocate(2, 0)

	snap := map[navdata.ChannelUID]navdata.GpsTime{
		uidA: {UID: uidA, Week: 2300, TowSeconds: 100, SubframeID: 1, WallClockMs: 0},
		uidB: {UID: uidB, Week: 2300, TowSeconds: 500, SubframeID: 1, WallClockMs: 0},
	}
	f.d.checkInterSatelliteGpsTime(snap)
	f.drain()

	assert.Len(f.sink.alerts, 1)
	assert.Equal(navdata.CasePositionOrTimeAnomaly, f.sink.alerts[0].CaseID)
}

func Test_InterSatelliteGpsTime_AbstainsOnMismatchedSubframe(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(1, 0)
	uidB := f.registry.Allocate(2, 0)

	snap := map[navdata.ChannelUID]navdata.GpsTime{
		uidA: {UID: uidA, Week: 2300, TowSeconds: 100, SubframeID: 1, WallClockMs: 0},
		uidB: {UID: uidB, Week: 2300, TowSeconds: 500, SubframeID: 2, WallClockMs: 0},
	}
	f.d.checkInterSatelliteGpsTime(snap)
	f.drain()

	assert.Empty(f.sink.alerts)
}

func Test_InterSatelliteGpsTime_AbstainsOnWideWallClockSpan(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(1, 0)
	uidB := f.registry.Allocate(2, 0)

	snap := map[navdata.ChannelUID]navdata.GpsTime{
		uidA: {UID: uidA, Week: 2300, TowSeconds: 100, SubframeID: 1, WallClockMs: 0},
		uidB: {UID: uidB, Week: 2300, TowSeconds: 500, SubframeID: 1, WallClockMs: 31000},
	}
	f.d.checkInterSatelliteGpsTime(snap)
	f.drain()

	assert.Empty(f.sink.alerts)
}

func Test_InterSatelliteGpsTime_DropsZeroWeekEntries(t *testing.T) {
	assert := assert.New(t)
	cfg := config.Default()
	f := newTestDetector(t, cfg)

	uidA := f.registry.Allocate(1, 0)
	uidB := f.registry.Allocate(2, 0)

	snap := map[navdata.ChannelUID]navdata.GpsTime{
		uidA: {UID: uidA, Week: 0, TowSeconds: 100, SubframeID: 1, WallClockMs: 0},
		uidB: {UID: uidB, Week: 2300, TowSeconds: 500, SubframeID: 1, WallClockMs: 0},
	}
	f.d.checkInterSatelliteGpsTime(snap)
	f.drain()

	assert.Empty(f.sink.alerts)
}

func Test_AbsoluteGpsTimeMonotonicAcrossWeekRollover(t *testing.T) {
	assert := assert.New(t)
	a := gnsstime.AbsoluteGpsTime(2300, 604799)
	b := gnsstime.AbsoluteGpsTime(2301, 0)
	assert.True(b > a)
}
