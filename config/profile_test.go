package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LinJ0/TraceIO/driver"
)

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	body := `
profiles:
  - name: test-zns
    csi: zoned
    sector_size: 4096
    num_sectors: 1048576
    zone_size_sectors: 16384
    num_zones: 16
    max_open_zones: 8
    max_active_zones: 8
    max_zone_append_size: 4096
`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0644))

	db, err := Load(path)
	assert.NoError(t, err)

	p, err := db.Find("test-zns")
	assert.NoError(t, err)
	assert.Equal(t, uint64(16), p.NumZones)

	info, err := p.NamespaceInfo()
	assert.NoError(t, err)
	assert.Equal(t, driver.CsiZoned, info.Csi)
}

func TestFindMissing(t *testing.T) {
	db := &Database{}
	_, err := db.Find("nope")
	assert.Error(t, err)
}

func TestDefaultProfileMatchesScenario3(t *testing.T) {
	p := Default()
	assert.Equal(t, uint32(8), p.MaxOpenZones)
	assert.Equal(t, uint64(0x4000), p.ZoneSizeSectors)
}
