package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LinJ0/TraceIO/driver"
)

func testModel() *Model {
	return Discover(driver.NamespaceInfo{
		Csi:               driver.CsiZoned,
		SectorSize:        4096,
		ZoneSizeSectors:   0x4000,
		NumZones:          16,
		MaxOpenZones:      8,
		MaxActiveZones:    8,
		MaxZoneAppendSize: 0x1000,
	})
}

func TestDiscoverInitialState(t *testing.T) {
	m := testModel()
	assert.Len(t, m.Zones, 16)
	assert.Equal(t, Empty, m.Zones[0].State)
	assert.Equal(t, uint64(0x4000), m.Zones[1].Zslba)
}

func TestApplyWriteAdvancesWp(t *testing.T) {
	m := testModel()
	assert.NoError(t, m.Apply(0, ActionWrite, 8, true))
	assert.Equal(t, ImplicitOpen, m.Zones[0].State)
	assert.Equal(t, uint64(8), m.Zones[0].Wp)
}

func TestApplyWriteToFullFails(t *testing.T) {
	m := testModel()
	require := assert.New(t)
	require.NoError(m.Apply(0, ActionFinish, 0, true))
	require.Equal(Full, m.Zones[0].State)
	require.ErrorIs(m.Apply(0, ActionWrite, 1, true), ErrInvalidTransition)
}

func TestApplyFailedCommandLeavesStateUnchanged(t *testing.T) {
	m := testModel()
	assert.NoError(t, m.Apply(0, ActionWrite, 8, false))
	assert.Equal(t, Empty, m.Zones[0].State)
	assert.Equal(t, m.Zones[0].Zslba, m.Zones[0].Wp)
}

func TestApplyOpenCloseFinishReset(t *testing.T) {
	m := testModel()
	assert.NoError(t, m.Apply(2, ActionOpen, 0, true))
	assert.Equal(t, ExplicitOpen, m.Zones[2].State)
	assert.NoError(t, m.Apply(2, ActionClose, 0, true))
	assert.Equal(t, Closed, m.Zones[2].State)
	assert.NoError(t, m.Apply(2, ActionFinish, 0, true))
	assert.Equal(t, Full, m.Zones[2].State)
	assert.Equal(t, m.Zones[2].Zslba+m.Zones[2].Zcap, m.Zones[2].Wp)
	assert.NoError(t, m.Apply(2, ActionReset, 0, true))
	assert.Equal(t, Empty, m.Zones[2].State)
	assert.Equal(t, m.Zones[2].Zslba, m.Zones[2].Wp)
}

func TestZoneIndex(t *testing.T) {
	m := testModel()
	assert.Equal(t, uint64(0), m.ZoneIndex(100))
	assert.Equal(t, uint64(1), m.ZoneIndex(0x4000))
}

func TestResetAll(t *testing.T) {
	m := testModel()
	assert.NoError(t, m.Apply(0, ActionWrite, 8, true))
	m.ResetAll()
	assert.Equal(t, Empty, m.Zones[0].State)
	assert.Equal(t, m.Zones[0].Zslba, m.Zones[0].Wp)
}
