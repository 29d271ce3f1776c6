package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gnssspoof/pkg/navdata"
)

func Test_Store_WriteReadSnapshotDelete(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[int, string]()

	_, ok := s.Read(1)
	assert.False(ok)

	s.Write(1, "a")
	s.Write(2, "b")
	v, ok := s.Read(1)
	assert.True(ok)
	assert.Equal("a", v)

	snap := s.Snapshot()
	assert.Equal(map[int]string{1: "a", 2: "b"}, snap)

	// Mutating the snapshot must not affect the store (clone-on-read).
	snap[1] = "mutated"
	v, _ = s.Read(1)
	assert.Equal("a", v)

	s.Delete(1)
	_, ok = s.Read(1)
	assert.False(ok)
}

func Test_SubframeLedger_StampsWallClockWhenZero(t *testing.T) {
	assert := assert.New(t)
	l := NewSubframeLedger()

	l.Write(navdata.Subframe{UID: 1, PRN: 5, SubframeID: 1, BitPayload: "0101"})
	sf, ok := l.Read(1)
	assert.True(ok)
	assert.NotZero(sf.WallClockMs)
}

func Test_SubframeLedger_PreservesExplicitWallClock(t *testing.T) {
	assert := assert.New(t)
	l := NewSubframeLedger()

	l.Write(navdata.Subframe{UID: 2, PRN: 6, SubframeID: 2, WallClockMs: 12345})
	sf, _ := l.Read(2)
	assert.Equal(int64(12345), sf.WallClockMs)
}

func Test_SatPosLedger_KeyedByPRN(t *testing.T) {
	assert := assert.New(t)
	l := NewSatPosLedger()

	l.Write(navdata.SatPos{PRN: 7, X: 1, Y: 2, Z: 3, WallClockMs: 1})
	l.Write(navdata.SatPos{PRN: 7, X: 4, Y: 5, Z: 6, WallClockMs: 2})

	sp, ok := l.Read(7)
	assert.True(ok)
	assert.Equal(4.0, sp.X)

	snap := l.Snapshot()
	assert.Len(snap, 1)
}
