package ledger

import (
	"time"

	"gnssspoof/internal/gnsstime"
	"gnssspoof/pkg/navdata"
)

// SubframeLedger is component C: the last decoded subframe per channel UID.
type SubframeLedger struct {
	store *Store[navdata.ChannelUID, navdata.Subframe]
}

func NewSubframeLedger() *SubframeLedger {
	return &SubframeLedger{store: NewStore[navdata.ChannelUID, navdata.Subframe]()}
}

// Write records sf, stamping WallClockMs at commit if it is zero.
func (l *SubframeLedger) Write(sf navdata.Subframe) {
	if sf.WallClockMs == 0 {
		sf.WallClockMs = gnsstime.WallClockMillis(time.Now())
	}
	l.store.Write(sf.UID, sf)
}

func (l *SubframeLedger) Read(uid navdata.ChannelUID) (navdata.Subframe, bool) {
	return l.store.Read(uid)
}

func (l *SubframeLedger) Snapshot() map[navdata.ChannelUID]navdata.Subframe {
	return l.store.Snapshot()
}

func (l *SubframeLedger) Delete(uid navdata.ChannelUID) { l.store.Delete(uid) }

// GpsTimeLedger is component D: the last (week, tow, wall-clock, subframe
// id) per channel UID.
type GpsTimeLedger struct {
	store *Store[navdata.ChannelUID, navdata.GpsTime]
}

func NewGpsTimeLedger() *GpsTimeLedger {
	return &GpsTimeLedger{store: NewStore[navdata.ChannelUID, navdata.GpsTime]()}
}

func (l *GpsTimeLedger) Write(gt navdata.GpsTime) {
	if gt.WallClockMs == 0 {
		gt.WallClockMs = gnsstime.WallClockMillis(time.Now())
	}
	l.store.Write(gt.UID, gt)
}

func (l *GpsTimeLedger) Read(uid navdata.ChannelUID) (navdata.GpsTime, bool) {
	return l.store.Read(uid)
}

func (l *GpsTimeLedger) Snapshot() map[navdata.ChannelUID]navdata.GpsTime {
	return l.store.Snapshot()
}

func (l *GpsTimeLedger) Delete(uid navdata.ChannelUID) { l.store.Delete(uid) }

// SatPosLedger is component E: the last PVT-computed (x,y,z,t) per PRN.
type SatPosLedger struct {
	store *Store[int, navdata.SatPos]
}

func NewSatPosLedger() *SatPosLedger {
	return &SatPosLedger{store: NewStore[int, navdata.SatPos]()}
}

func (l *SatPosLedger) Write(sp navdata.SatPos) {
	if sp.WallClockMs == 0 {
		sp.WallClockMs = gnsstime.WallClockMillis(time.Now())
	}
	l.store.Write(sp.PRN, sp)
}

func (l *SatPosLedger) Read(prn int) (navdata.SatPos, bool) {
	return l.store.Read(prn)
}

func (l *SatPosLedger) Snapshot() map[int]navdata.SatPos {
	return l.store.Snapshot()
}
