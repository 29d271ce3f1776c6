package gnsstime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_AbsoluteGpsTime_MonotonicAcrossWeekRollover(t *testing.T) {
	assert := assert.New(t)
	endOfWeek := AbsoluteGpsTime(2300, 604799)
	startOfNextWeek := AbsoluteGpsTime(2301, 0)
	assert.True(startOfNextWeek > endOfWeek)
	assert.InDelta(1.0, startOfNextWeek-endOfWeek, 1e-9)
}

func Test_WallClockRoundTrip(t *testing.T) {
	assert := assert.New(t)
	week, tow := FromWallClock(1000000000000)
	backToMillis := ToWallClock(week, tow)
	assert.InDelta(1000000000000, backToMillis, 1)
}

func Test_WallClockMillis_MatchesUnixMilli(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	assert.Equal(now.UnixMilli(), WallClockMillis(now))
}
