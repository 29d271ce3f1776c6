// Package config defines the receiver's configuration surface (spec.md
// §6's enumerated options) and a YAML loader.
//
// Grounded on gnssgo/options.go's system-options table pattern (grouped
// flags, default thresholds), reimplemented with yaml.v2 tags instead of
// gnssgo's bespoke key=value text parser — gnssgo's own app/rtkrcv/go.mod
// already carries yaml.v2 indirectly, and no pack repo hand-rolls config
// text parsing over an ecosystem YAML library.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// APDetectionConfig enables the auxiliary-peak/reception-time/subframe
// checks G.1-G.3, which require num_peaks_per_prn >= 2 (spec.md §4.A,
// §4.G.1-G.3). Split out from StatisticalConfig to mirror the original's
// two-constructor split noted in SPEC_FULL.md §5.
type APDetectionConfig struct {
	Enabled             bool    `yaml:"d_ap_detection"`
	NumPeaksPerPRN      int     `yaml:"num_peaks_per_prn"`
	MaxRxDiscrepancyNs  float64 `yaml:"d_max_rx_discrepancy_ns"`
	MaxTowDiscrepancyMs float64 `yaml:"d_max_tow_discrepancy_ms"`
	InterSatelliteCheck bool    `yaml:"d_inter_satellite_check"`
	ExternalNavCheck    bool    `yaml:"d_external_nav_check"`
}

// StatisticalConfig enables the C/N0, altitude and satellite-position
// plausibility checks G.7-G.10.
type StatisticalConfig struct {
	CNoDetection     bool    `yaml:"d_cno_detection"`
	CNoCount         int     `yaml:"d_cno_count"`
	CNoMin           float64 `yaml:"d_cno_min"`
	SnrMovingAvgWindow int   `yaml:"d_snr_moving_avg_window"`
	AltDetection     bool    `yaml:"d_alt_detection"`
	MaxAltKm         float64 `yaml:"d_max_alt_km"`
	SatPosDetection  bool    `yaml:"d_satpos_detection"`
}

// Config is the complete enumerated configuration surface of spec.md §6.
type Config struct {
	AP          APDetectionConfig `yaml:"ap"`
	Statistical StatisticalConfig `yaml:"statistical"`
	LogLevel    string            `yaml:"log_level"`
}

// Default returns the receiver's default configuration: auxiliary-peak
// detection on with 2 peaks per PRN, a 0.5us rx-discrepancy floor
// (immediately overridden per SPEC_FULL.md §5, see pkg/detector), a
// 1ms TOW-continuity floor, statistical checks on with a 4-satellite floor
// for the C/N0 check and a 1500km altitude ceiling.
func Default() Config {
	return Config{
		AP: APDetectionConfig{
			Enabled:             true,
			NumPeaksPerPRN:      2,
			MaxRxDiscrepancyNs:  500,
			MaxTowDiscrepancyMs: 1,
			InterSatelliteCheck: true,
			ExternalNavCheck:    true,
		},
		Statistical: StatisticalConfig{
			CNoDetection:       true,
			CNoCount:           4,
			CNoMin:             2.0,
			SnrMovingAvgWindow: 1000,
			AltDetection:       true,
			MaxAltKm:           1500,
			SatPosDetection:    true,
		},
		LogLevel: "info",
	}
}

// Load reads a Config from a YAML file at path. Any field the file omits
// keeps its Default value (yaml.Unmarshal into a Default()-initialized
// struct fills only fields present in the file). On a read or parse error
// it returns Default() together with the error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
