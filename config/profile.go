// Package config loads namespace/device profile presets from a YAML
// database — the same role the teacher's drivedb preset database played
// for SMART drive quirks, repurposed here for ZNS namespace geometry so a
// caller can name a device profile on the command line instead of
// hand-building a driver.NamespaceInfo.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/LinJ0/TraceIO/driver"
)

// Profile is one named namespace/device preset.
type Profile struct {
	Name              string `yaml:"name"`
	Csi               string `yaml:"csi"` // "conventional" or "zoned"
	SectorSize        uint32 `yaml:"sector_size"`
	NumSectors        uint64 `yaml:"num_sectors"`
	ZoneSizeSectors   uint64 `yaml:"zone_size_sectors"`
	NumZones          uint64 `yaml:"num_zones"`
	MaxOpenZones      uint32 `yaml:"max_open_zones"`
	MaxActiveZones    uint32 `yaml:"max_active_zones"`
	MaxZoneAppendSize uint32 `yaml:"max_zone_append_size"`
}

// NamespaceInfo converts p into the driver package's namespace descriptor.
func (p Profile) NamespaceInfo() (driver.NamespaceInfo, error) {
	var csi driver.Csi
	switch p.Csi {
	case "conventional", "":
		csi = driver.CsiConventional
	case "zoned":
		csi = driver.CsiZoned
	default:
		return driver.NamespaceInfo{}, errors.Errorf("config: unknown csi %q", p.Csi)
	}
	return driver.NamespaceInfo{
		Csi:               csi,
		SectorSize:        p.SectorSize,
		NumSectors:        p.NumSectors,
		ZoneSizeSectors:   p.ZoneSizeSectors,
		NumZones:          p.NumZones,
		MaxOpenZones:      p.MaxOpenZones,
		MaxActiveZones:    p.MaxActiveZones,
		MaxZoneAppendSize: p.MaxZoneAppendSize,
	}, nil
}

// Database is a YAML-loaded set of named profiles, keyed by Profile.Name.
type Database struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load reads a profile database from path.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read profile database")
	}
	var db Database
	if err := yaml.Unmarshal(data, &db); err != nil {
		return nil, errors.Wrap(err, "config: parse profile database")
	}
	return &db, nil
}

// Find returns the named profile, or an error if it is not present.
func (db *Database) Find(name string) (Profile, error) {
	for _, p := range db.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, errors.Errorf("config: no profile named %q", name)
}

// Default returns the built-in ZNS profile used when no profile database is
// given and the profile flag (-n, or -profile for workloadgen) names
// "default-zns" or nothing, matching scenario 3 of the testable end-to-end properties (16 zones,
// max_open=8, zone capacity 0x4000).
func Default() Profile {
	return Profile{
		Name:              "default-zns",
		Csi:               "zoned",
		SectorSize:        4096,
		NumSectors:        16 * 0x4000,
		ZoneSizeSectors:   0x4000,
		NumZones:          16,
		MaxOpenZones:      8,
		MaxActiveZones:    8,
		MaxZoneAppendSize: 0x1000,
	}
}
