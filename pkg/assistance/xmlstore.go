package assistance

import (
	"encoding/xml"
	"os"
	"path/filepath"

	"gnssspoof/pkg/navdata"
)

// XMLFileStore persists assistance records as the XML archives spec.md §6
// names (ephemeris.xml, utc.xml, iono.xml, ref_time.xml, gps_almanac.xml),
// with the schema mirroring the in-memory field names verbatim — spec.md
// §9's rewrite of the original's boost-archive serialization into an
// explicit, stable schema.
type XMLFileStore struct{}

func NewXMLFileStore() *XMLFileStore { return &XMLFileStore{} }

type ephemerisArchive struct {
	XMLName xml.Name                    `xml:"ephemeris_archive"`
	Entries []navdata.EphemerisSnapshot `xml:"ephemeris"`
}

func (s *XMLFileStore) LoadEphemeris(directory string) ([]navdata.EphemerisSnapshot, error) {
	var archive ephemerisArchive
	if err := readXML(filepath.Join(directory, "ephemeris.xml"), &archive); err != nil {
		return nil, err
	}
	return archive.Entries, nil
}

func (s *XMLFileStore) SaveEphemeris(directory string, snaps []navdata.EphemerisSnapshot) error {
	return writeXML(filepath.Join(directory, "ephemeris.xml"), ephemerisArchive{Entries: snaps})
}

type ionoArchive struct {
	XMLName xml.Name        `xml:"iono_archive"`
	Model   navdata.IonoModel `xml:"iono"`
}

func (s *XMLFileStore) LoadIono(directory string) (navdata.IonoModel, error) {
	var archive ionoArchive
	err := readXML(filepath.Join(directory, "iono.xml"), &archive)
	return archive.Model, err
}

func (s *XMLFileStore) SaveIono(directory string, m navdata.IonoModel) error {
	return writeXML(filepath.Join(directory, "iono.xml"), ionoArchive{Model: m})
}

type utcArchive struct {
	XMLName xml.Name       `xml:"utc_archive"`
	Model   navdata.UtcModel `xml:"utc"`
}

func (s *XMLFileStore) LoadUtc(directory string) (navdata.UtcModel, error) {
	var archive utcArchive
	err := readXML(filepath.Join(directory, "utc.xml"), &archive)
	return archive.Model, err
}

func (s *XMLFileStore) SaveUtc(directory string, m navdata.UtcModel) error {
	return writeXML(filepath.Join(directory, "utc.xml"), utcArchive{Model: m})
}

type almanacArchive struct {
	XMLName xml.Name          `xml:"almanac_archive"`
	Entries []navdata.Almanac `xml:"almanac"`
}

// LoadAlmanac loads gps_almanac.xml. Galileo's vendor-specific almanac
// format (spec.md §4.F) is handled by LoadGalileoAlmanac below.
func (s *XMLFileStore) LoadAlmanac(directory string) ([]navdata.Almanac, error) {
	var archive almanacArchive
	if err := readXML(filepath.Join(directory, "gps_almanac.xml"), &archive); err != nil {
		return nil, err
	}
	return archive.Entries, nil
}

func (s *XMLFileStore) SaveAlmanac(directory string, entries []navdata.Almanac) error {
	return writeXML(filepath.Join(directory, "gps_almanac.xml"), almanacArchive{Entries: entries})
}

// LoadGalileoAlmanac loads gal_almanac.xml, the vendor-specific Galileo
// almanac archive spec.md §4.F calls out separately from the GPS one.
func (s *XMLFileStore) LoadGalileoAlmanac(directory string) ([]navdata.Almanac, error) {
	var archive almanacArchive
	if err := readXML(filepath.Join(directory, "gal_almanac.xml"), &archive); err != nil {
		return nil, err
	}
	return archive.Entries, nil
}

type refTimeArchive struct {
	XMLName xml.Name          `xml:"ref_time_archive"`
	RefTime navdata.RefTime `xml:"ref_time"`
}

func (s *XMLFileStore) LoadRefTime(directory string) (navdata.RefTime, error) {
	var archive refTimeArchive
	err := readXML(filepath.Join(directory, "ref_time.xml"), &archive)
	return archive.RefTime, err
}

func (s *XMLFileStore) SaveRefTime(directory string, rt navdata.RefTime) error {
	return writeXML(filepath.Join(directory, "ref_time.xml"), refTimeArchive{RefTime: rt})
}

func readXML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

func writeXML(path string, v interface{}) error {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
