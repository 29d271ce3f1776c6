// Package assistance implements component F of spec.md §4.F: a cache of
// ephemeris/iono/UTC/almanac/reference-time data loaded from SUPL or local
// XML files, giving the detector a second, independent source to compare
// on-air navigation messages against (G.11).
//
// Grounded on gnssgo/preceph.go and gnssgo/download.go's two-source
// (network fetch + local cache) shape; the exact XML field-mirroring and
// the SUPL ASN.1-PER boundary follow spec.md §6/§9 ("Boost-archive XML
// persistence -> explicit schema" rewrite; ASN.1 PER is an external
// collaborator, modeled as an interface only).
package assistance

import (
	"sync"

	"gnssspoof/pkg/navdata"
)

// Kind names one of the five assistance-data categories refreshed
// independently (spec.md §4.F).
type Kind int

const (
	KindEphemeris Kind = iota
	KindIono
	KindUtc
	KindAlmanac
	KindRefTime
)

// Source describes where the cache pulls assistance data from (spec.md
// §4.F "Sources").
type Source struct {
	Kind string // "supl" or "file"

	// SUPL fields.
	Server string
	Port   int
	MCC    int
	MNC    int
	LAC    int
	CI     int

	// File fields.
	Directory string
}

// SUPLClient is the external collaborator that speaks ASN.1 PER-encoded
// RRLP to an A-GPS server (spec.md §6 "SUPL over-the-wire"). Out of scope:
// the core only ever sees decoded records through this interface.
type SUPLClient interface {
	FetchEphemeris(server string, port int, mcc, mnc, lac, ci int) ([]navdata.EphemerisSnapshot, error)
	FetchIono(server string, port int, mcc, mnc, lac, ci int) (navdata.IonoModel, error)
	FetchUtc(server string, port int, mcc, mnc, lac, ci int) (navdata.UtcModel, error)
	FetchAlmanac(server string, port int, mcc, mnc, lac, ci int) ([]navdata.Almanac, error)
	FetchRefTime(server string, port int, mcc, mnc, lac, ci int) (navdata.RefTime, error)
}

// FileStore reads/writes the XML archive files spec.md §6 names:
// ephemeris.xml, utc.xml, iono.xml, ref_time.xml, gps_almanac.xml.
// gal_almanac.xml is not part of this interface; only
// XMLFileStore.LoadGalileoAlmanac reads it.
type FileStore interface {
	LoadEphemeris(directory string) ([]navdata.EphemerisSnapshot, error)
	SaveEphemeris(directory string, snaps []navdata.EphemerisSnapshot) error
	LoadIono(directory string) (navdata.IonoModel, error)
	SaveIono(directory string, m navdata.IonoModel) error
	LoadUtc(directory string) (navdata.UtcModel, error)
	SaveUtc(directory string, m navdata.UtcModel) error
	LoadAlmanac(directory string) ([]navdata.Almanac, error)
	SaveAlmanac(directory string, a []navdata.Almanac) error
	LoadRefTime(directory string) (navdata.RefTime, error)
	SaveRefTime(directory string, rt navdata.RefTime) error
}

// Cache is the detector's second, independent source of assistance data. An
// empty cache is a valid, fully-functional state: the detector silently
// skips G.11 comparisons it has no data for (spec.md §4.F, §7).
type Cache struct {
	mu sync.RWMutex

	source Source
	supl   SUPLClient
	files  FileStore

	ephemerisByPRN map[int]navdata.EphemerisSnapshot
	iono           navdata.IonoModel
	haveIono       bool
	utc            navdata.UtcModel
	haveUtc        bool
	almanacByPRN   map[int]navdata.Almanac
	refTime        navdata.RefTime
	haveRefTime    bool

	audit AuditLog
}

// AuditLog records refresh attempts, optionally persisted (pkg/assistance
// ships a ClickHouse-backed implementation, ClickHouseAuditLog; nil
// disables auditing).
type AuditLog interface {
	RecordRefresh(kind string, source string, ok bool, detail string)
}

// New returns an empty cache reading from source.
func New(source Source, supl SUPLClient, files FileStore, audit AuditLog) *Cache {
	return &Cache{
		source:         source,
		supl:           supl,
		files:          files,
		ephemerisByPRN: make(map[int]navdata.EphemerisSnapshot),
		almanacByPRN:   make(map[int]navdata.Almanac),
		audit:          audit,
	}
}

func (c *Cache) record(kind string, ok bool, detail string) {
	if c.audit != nil {
		c.audit.RecordRefresh(kind, c.source.Kind, ok, detail)
	}
}

// Refresh populates the cache for one data kind from the configured
// source. I/O failures are swallowed per spec.md §7/§9: the detector
// treats them as "no data available", never as a fatal error.
func (c *Cache) Refresh(kind Kind) error {
	switch kind {
	case KindEphemeris:
		return c.refreshEphemeris()
	case KindIono:
		return c.refreshIono()
	case KindUtc:
		return c.refreshUtc()
	case KindAlmanac:
		return c.refreshAlmanac()
	case KindRefTime:
		return c.refreshRefTime()
	}
	return nil
}

func (c *Cache) refreshEphemeris() error {
	var snaps []navdata.EphemerisSnapshot
	var err error
	switch c.source.Kind {
	case "supl":
		snaps, err = c.supl.FetchEphemeris(c.source.Server, c.source.Port, c.source.MCC, c.source.MNC, c.source.LAC, c.source.CI)
		if err == nil && c.files != nil {
			_ = c.files.SaveEphemeris(c.source.Directory, snaps)
		}
	case "file":
		snaps, err = c.files.LoadEphemeris(c.source.Directory)
	}
	c.record("ephemeris", err == nil, errString(err))
	if err != nil {
		return nil
	}
	c.mu.Lock()
	for _, s := range snaps {
		c.ephemerisByPRN[s.PRN] = s
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) refreshIono() error {
	var m navdata.IonoModel
	var err error
	switch c.source.Kind {
	case "supl":
		m, err = c.supl.FetchIono(c.source.Server, c.source.Port, c.source.MCC, c.source.MNC, c.source.LAC, c.source.CI)
		if err == nil && c.files != nil {
			_ = c.files.SaveIono(c.source.Directory, m)
		}
	case "file":
		m, err = c.files.LoadIono(c.source.Directory)
	}
	c.record("iono", err == nil, errString(err))
	if err != nil {
		return nil
	}
	c.mu.Lock()
	c.iono, c.haveIono = m, true
	c.mu.Unlock()
	return nil
}

func (c *Cache) refreshUtc() error {
	var m navdata.UtcModel
	var err error
	switch c.source.Kind {
	case "supl":
		m, err = c.supl.FetchUtc(c.source.Server, c.source.Port, c.source.MCC, c.source.MNC, c.source.LAC, c.source.CI)
		if err == nil && c.files != nil {
			_ = c.files.SaveUtc(c.source.Directory, m)
		}
	case "file":
		m, err = c.files.LoadUtc(c.source.Directory)
	}
	c.record("utc", err == nil, errString(err))
	if err != nil {
		return nil
	}
	c.mu.Lock()
	c.utc, c.haveUtc = m, true
	c.mu.Unlock()
	return nil
}

func (c *Cache) refreshAlmanac() error {
	var entries []navdata.Almanac
	var err error
	switch c.source.Kind {
	case "supl":
		entries, err = c.supl.FetchAlmanac(c.source.Server, c.source.Port, c.source.MCC, c.source.MNC, c.source.LAC, c.source.CI)
		if err == nil && c.files != nil {
			_ = c.files.SaveAlmanac(c.source.Directory, entries)
		}
	case "file":
		entries, err = c.files.LoadAlmanac(c.source.Directory)
	}
	c.record("almanac", err == nil, errString(err))
	if err != nil {
		return nil
	}
	c.mu.Lock()
	for _, a := range entries {
		c.almanacByPRN[a.PRN] = a
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) refreshRefTime() error {
	var rt navdata.RefTime
	var err error
	switch c.source.Kind {
	case "supl":
		rt, err = c.supl.FetchRefTime(c.source.Server, c.source.Port, c.source.MCC, c.source.MNC, c.source.LAC, c.source.CI)
		if err == nil && c.files != nil {
			_ = c.files.SaveRefTime(c.source.Directory, rt)
		}
	case "file":
		rt, err = c.files.LoadRefTime(c.source.Directory)
	}
	c.record("reftime", err == nil, errString(err))
	if err != nil {
		return nil
	}
	c.mu.Lock()
	c.refTime, c.haveRefTime = rt, true
	c.mu.Unlock()
	return nil
}

// GetEphemeris returns a cached ephemeris snapshot for prn, if any.
func (c *Cache) GetEphemeris(prn int) (navdata.EphemerisSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.ephemerisByPRN[prn]
	return s, ok
}

// GetIono returns the cached ionospheric model, if any.
func (c *Cache) GetIono() (navdata.IonoModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iono, c.haveIono
}

// GetUtc returns the cached UTC model, if any.
func (c *Cache) GetUtc() (navdata.UtcModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utc, c.haveUtc
}

// GetAlmanac returns a cached almanac entry for prn, if any.
func (c *Cache) GetAlmanac(prn int) (navdata.Almanac, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.almanacByPRN[prn]
	return a, ok
}

// GetRefTime returns the cached reference time, if any.
func (c *Cache) GetRefTime() (navdata.RefTime, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refTime, c.haveRefTime
}

// Empty reports whether nothing has ever been loaded into the cache, in
// which case G.11 silently emits nothing (spec.md §8 boundary behavior).
func (c *Cache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ephemerisByPRN) == 0 && !c.haveIono && !c.haveUtc &&
		len(c.almanacByPRN) == 0 && !c.haveRefTime
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
