package detector

import (
	"math"

	"gnssspoof/pkg/navdata"
)

// checkMiddleOfEarth is G.6: an ephemeris with sqrt(A) == 0 resolves to a
// satellite position at the center of the earth, a value no genuine
// broadcast ever carries.
func (d *Detector) checkMiddleOfEarth(snap navdata.EphemerisSnapshot) {
	if snap.SqrtA == 0 {
		d.format(navdata.CaseOrbitImplausible,
			"PRN %d ephemeris has sqrt(A)==0, satellite position resolves to the middle of the earth",
			snap.PRN)
	}
}

// checkExternalEphemeris is G.11: cross-checks a freshly decoded
// ephemeris against the externally-assisted cache (SUPL or local XML,
// component F) for the same PRN, when the cache holds one.
func (d *Detector) checkExternalEphemeris(snap navdata.EphemerisSnapshot) {
	if d.assistance == nil || d.assistance.Empty() {
		return
	}
	reference, ok := d.assistance.GetEphemeris(snap.PRN)
	if !ok {
		return
	}

	const sqrtATolerance = 1.0
	const toeToleranceSec = 7200.0

	if math.Abs(reference.SqrtA-snap.SqrtA) > sqrtATolerance ||
		math.Abs(reference.Toes-snap.Toes) > toeToleranceSec {
		d.format(navdata.CaseExternalSourceMismatch,
			"PRN %d decoded ephemeris disagrees with externally-assisted reference (sqrt(A) %.3f vs %.3f, toe %.0f vs %.0f)",
			snap.PRN, snap.SqrtA, reference.SqrtA, snap.Toes, reference.Toes)
	}
}

// checkSatPosPlausibility is G.7: given a fresh SatPos and the previous
// entry for the same PRN, the distance moved between the two fixes is
// checked against what the maximum plausible orbital speed allows for the
// elapsed time.
//
// Preserves the upstream predicate's literal shape: `diff > 500 ||
// diff < 10000` where diff = distance - elapsed*v_max. The two ranges
// overlap, so the predicate is true for every diff and the check fires on
// every position update whose elapsed time is positive.
// Recorded as a deliberate open-question decision rather than "fixed" to a
// single bound.
func (d *Detector) checkSatPosPlausibility(prev, next navdata.SatPos) {
	const maxPlausibleSpeedMps = 388.9 // 1400 km/h, the upstream v_max literal

	elapsedSec := float64(next.WallClockMs-prev.WallClockMs) / 1000.0
	if elapsedSec <= 0 {
		return
	}

	dx := next.X - prev.X
	dy := next.Y - prev.Y
	dz := next.Z - prev.Z
	distance := math.Sqrt(dx*dx + dy*dy + dz*dz)
	diff := distance - elapsedSec*maxPlausibleSpeedMps

	if diff > 500 || diff < 10000 {
		d.format(navdata.CaseOrbitImplausible,
			"PRN %d position delta %.1fm over %.3fs exceeds plausible-speed bound by %.1fm",
			next.PRN, distance, elapsedSec, diff)
	}
}

// checkPositionSanity is G.8: a computed altitude far above any real
// receiver's operating envelope, or below the earth's surface, points at
// a corrupted or spoofed PVT fix.
func (d *Detector) checkPositionSanity(altitudeMeters float64) {
	maxAltMeters := d.cfg.Statistical.MaxAltKm * 1000.0

	switch {
	case altitudeMeters < 0:
		d.format(navdata.CasePositionOrTimeAnomaly,
			"PVT altitude %.1fm is negative height",
			altitudeMeters)
	case altitudeMeters > maxAltMeters:
		d.format(navdata.CasePositionOrTimeAnomaly,
			"PVT altitude %.1fm is above %.1f km",
			altitudeMeters, d.cfg.Statistical.MaxAltKm)
	}

	d.mu.Lock()
	d.lastAltitude = altitudeMeters
	d.haveAltitude = true
	d.mu.Unlock()
}
