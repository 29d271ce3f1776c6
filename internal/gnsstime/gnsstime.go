// Package gnsstime converts between GPS week/time-of-week and the
// millisecond wall-clock timestamps the rest of the receiver core uses.
//
// Grounded on gnssgo/common.go's Gtime/GpsT2Time/Time2GpsT/TimeAdd/TimeDiff:
// same week-epoch arithmetic, re-expressed for millisecond wall clocks
// instead of gnssgo's fractional-second time_t split.
package gnsstime

import "time"

const (
	secondsPerWeek  = 604800
	millisPerSecond = 1000
	// MaxWeek is the largest GPS week number a GpsTime record may carry
	// (spec.md §3, GpsTime invariant): a 12-bit range, wider than the 10-bit
	// week field broadcast in subframe 1.
	MaxWeek = 4095
)

// GpsEpoch is the origin of GPS time: 1980-01-06T00:00:00 UTC.
var GpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// WallClockMillis returns the current wall-clock timestamp in milliseconds
// since the Unix epoch, the unit every ledger entry and alert carries.
func WallClockMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// AbsoluteGpsTime folds a (week, tow) pair into a single monotonically
// comparable quantity, seconds since the GPS epoch. Invariant 3 of spec.md
// §8 is checked against this value.
func AbsoluteGpsTime(week int, towSeconds float64) float64 {
	return float64(week)*secondsPerWeek + towSeconds
}

// FromWallClock turns a millisecond wall-clock timestamp into an
// approximate (week, tow) pair, used by tests and simulators that only have
// a wall clock to synthesize GpsTime records from.
func FromWallClock(wallClockMs int64) (week int, tow float64) {
	elapsed := time.UnixMilli(wallClockMs).Sub(GpsEpoch)
	totalSeconds := elapsed.Seconds()
	week = int(totalSeconds / secondsPerWeek)
	tow = totalSeconds - float64(week)*secondsPerWeek
	return week, tow
}

// ToWallClock is the inverse of FromWallClock, rounding to the millisecond.
func ToWallClock(week int, towSeconds float64) int64 {
	elapsed := time.Duration((float64(week)*secondsPerWeek + towSeconds) * float64(time.Second))
	return GpsEpoch.Add(elapsed.Round(time.Millisecond)).UnixMilli()
}

// NominalSubframeMillis is the air time of one navigation-message subframe
// (six seconds), used by G.3's shared-subframe cross-PRN check as the widest
// wall-clock gap between two compared pages.
const NominalSubframeMillis = 6000
