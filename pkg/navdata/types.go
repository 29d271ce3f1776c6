// Package navdata holds the value types shared by every component of the
// spoofing-detection core (spec.md §3). They are plain, immutable-at-rest
// records: ledgers (pkg/ledger) hand out clones of them, never live
// pointers, per spec.md §3's ownership rules.
//
// Field names follow gnssgo/types.go's Eph struct (Sat, Iode, Iodc, Sva,
// Svh, Toe, Crc/Crs/Cuc/Cus/Cic/Cis, Tgd) so a reader already familiar with
// that broadcast-ephemeris layout recognizes this one; SqrtA is added
// because spec.md §4.G.6 keys off the wire-transmitted square root of the
// semi-major axis, not gnssgo's derived A.
package navdata

// ChannelUID stably names one tracker instance for the life of a run. Never
// reused (spec.md §3, §8 invariant 2).
type ChannelUID int64

// Peak is a local maximum of the 2-D code-phase/Doppler acquisition grid
// (spec.md §3).
type Peak struct {
	CodePhase int     // sample index, modulo samples-per-code
	Doppler   int     // signed Hz
	Magnitude float64 // nonnegative, squared magnitude divided by FFT size^4 (size^2 per transform)
	TestStat  float64 // Magnitude / input power
}

// Overlaps reports whether two peaks are the "same" correlation peak per
// spec.md §3's non-overlap invariant: code phase within 2 samples AND
// Doppler within one step.
func (p Peak) Overlaps(other Peak, dopplerStep int) bool {
	codeClose := abs(p.CodePhase-other.CodePhase) <= 2
	dopplerClose := abs(p.Doppler-other.Doppler) <= dopplerStep
	return codeClose && dopplerClose
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Subframe is one decoded 300-bit navigation-message subframe (spec.md §3,
// §8 invariant 4: BitPayload is the exact concatenation of 10 30-bit words
// as '0'/'1' characters, parity already stripped).
type Subframe struct {
	UID         ChannelUID
	PRN         int
	SubframeID  int // 1..5
	BitPayload  string
	WallClockMs int64
}

// GpsTime is the last decoded (week, TOW) pair for one channel UID (spec.md
// §3).
type GpsTime struct {
	UID         ChannelUID
	Week        int
	TowSeconds  float64
	WallClockMs int64
	SubframeID  int
}

// SatPos is the last PVT-computed ECEF position for one PRN (spec.md §3).
type SatPos struct {
	PRN         int
	X, Y, Z     float64 // ECEF meters
	WallClockMs int64
}

// EphemerisSnapshot is an immutable record of one satellite's broadcast
// orbit/clock parameters, tagged with the channel UID that produced it
// (spec.md §3).
type EphemerisSnapshot struct {
	PRN    int
	IPeak  ChannelUID // which UID produced this snapshot
	Iode   int
	Iodc   int
	Sva    int
	Svh    int
	Week   int
	SqrtA  float64 // wire-transmitted sqrt(semi-major axis); 0 => G.6 alert
	E      float64
	I0     float64
	Omg0   float64
	Omg    float64
	M0     float64
	Deln   float64
	OmgD   float64
	Idot   float64
	Crc    float64
	Crs    float64
	Cuc    float64
	Cus    float64
	Cic    float64
	Cis    float64
	Toes   float64
	F0, F1, F2 float64
	Tgd    [6]float64
	WallClockMs int64
}

// IonoModel is a Klobuchar ionospheric correction model (8 coefficients).
type IonoModel struct {
	Alpha [4]float64
	Beta  [4]float64
}

// UtcModel is the broadcast UTC offset model.
type UtcModel struct {
	A0, A1     float64
	Tot        float64
	WeekT      int
	DeltaTLS   int
	WeekLSF    int
	DN         int
	DeltaTLSF  int
}

// Almanac is one entry of the reduced-precision almanac (subframes 4/5 or
// SUPL/file assistance data).
type Almanac struct {
	PRN    int
	Week   int
	SqrtA  float64
	E      float64
	Toa    float64
	Health int
}

// RefTime is an externally-supplied reference-time assistance record.
type RefTime struct {
	Week        int
	TowSeconds  float64
	WallClockMs int64
}

// SpoofingAlert is the detector's single output record (spec.md §3, §7).
type SpoofingAlert struct {
	CaseID      int
	Description string
	WallClockMs int64
}

// Spoofing case identifiers, stable per spec.md §7.
const (
	CaseExternalSourceMismatch = 0
	CaseRxTimeInconsistency    = 1
	CaseSubframeMismatch       = 2
	CaseTowJump                = 3
	CasePositionOrTimeAnomaly  = 4
	CaseOrbitImplausible       = 5
	CaseCNoAnomaly             = 10
)
