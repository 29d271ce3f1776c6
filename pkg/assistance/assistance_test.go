package assistance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gnssspoof/pkg/navdata"
)

func Test_XMLFileStore_EphemerisRoundTrip(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	store := NewXMLFileStore()

	want := []navdata.EphemerisSnapshot{
		{PRN: 12, SqrtA: 5153.65, E: 0.01, Toes: 302400, Iode: 45},
		{PRN: 14, SqrtA: 5153.70, E: 0.02, Toes: 302400, Iode: 46},
	}
	assert.NoError(store.SaveEphemeris(dir, want))

	got, err := store.LoadEphemeris(dir)
	assert.NoError(err)
	assert.Equal(want, got)
}

func Test_XMLFileStore_IonoUtcRefTimeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	store := NewXMLFileStore()

	iono := navdata.IonoModel{Alpha: [4]float64{1, 2, 3, 4}, Beta: [4]float64{5, 6, 7, 8}}
	assert.NoError(store.SaveIono(dir, iono))
	gotIono, err := store.LoadIono(dir)
	assert.NoError(err)
	assert.Equal(iono, gotIono)

	utc := navdata.UtcModel{A0: 1, A1: 2, Tot: 3, WeekT: 4, DeltaTLS: 5, WeekLSF: 6, DN: 7, DeltaTLSF: 8}
	assert.NoError(store.SaveUtc(dir, utc))
	gotUtc, err := store.LoadUtc(dir)
	assert.NoError(err)
	assert.Equal(utc, gotUtc)

	rt := navdata.RefTime{Week: 2300, TowSeconds: 12345, WallClockMs: 1}
	assert.NoError(store.SaveRefTime(dir, rt))
	gotRt, err := store.LoadRefTime(dir)
	assert.NoError(err)
	assert.Equal(rt, gotRt)
}

type stubSUPLClient struct {
	ephemeris []navdata.EphemerisSnapshot
	err       error
}

func (s *stubSUPLClient) FetchEphemeris(server string, port, mcc, mnc, lac, ci int) ([]navdata.EphemerisSnapshot, error) {
	return s.ephemeris, s.err
}
func (s *stubSUPLClient) FetchIono(server string, port, mcc, mnc, lac, ci int) (navdata.IonoModel, error) {
	return navdata.IonoModel{}, s.err
}
func (s *stubSUPLClient) FetchUtc(server string, port, mcc, mnc, lac, ci int) (navdata.UtcModel, error) {
	return navdata.UtcModel{}, s.err
}
func (s *stubSUPLClient) FetchAlmanac(server string, port, mcc, mnc, lac, ci int) ([]navdata.Almanac, error) {
	return nil, s.err
}
func (s *stubSUPLClient) FetchRefTime(server string, port, mcc, mnc, lac, ci int) (navdata.RefTime, error) {
	return navdata.RefTime{}, s.err
}

func Test_Cache_EmptyUntilRefreshed(t *testing.T) {
	assert := assert.New(t)
	c := New(Source{Kind: "supl"}, &stubSUPLClient{ephemeris: []navdata.EphemerisSnapshot{{PRN: 1, SqrtA: 5153.6}}}, nil, nil)

	assert.True(c.Empty())
	assert.NoError(c.Refresh(KindEphemeris))
	assert.False(c.Empty())

	snap, ok := c.GetEphemeris(1)
	assert.True(ok)
	assert.Equal(5153.6, snap.SqrtA)
}

func Test_Cache_RefreshSwallowsIOErrors(t *testing.T) {
	assert := assert.New(t)
	c := New(Source{Kind: "supl"}, &stubSUPLClient{err: assertErr{}}, nil, nil)

	err := c.Refresh(KindEphemeris)
	assert.NoError(err)
	assert.True(c.Empty())
}

type assertErr struct{}

func (assertErr) Error() string { return "simulated I/O failure" }
