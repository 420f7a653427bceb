package workloadgen

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinJ0/TraceIO/dispatch"
	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/driver/sim"
)

func znsInfo() driver.NamespaceInfo {
	return driver.NamespaceInfo{
		Csi:               driver.CsiZoned,
		SectorSize:        4096,
		NumSectors:        16 * 0x4000,
		ZoneSizeSectors:   0x4000,
		NumZones:          16,
		MaxOpenZones:      8,
		MaxActiveZones:    8,
		MaxZoneAppendSize: 0x1000,
	}
}

func TestValidateRejectsNonPowerOfTwoBlocks(t *testing.T) {
	err := Options{Mode: ModeSequential, Blocks: 3}.Validate(znsInfo())
	assert.ErrorIs(t, err, ErrArgument)
}

func TestValidateRejectsOversizeTransfer(t *testing.T) {
	info := znsInfo()
	info.MaxZoneAppendSize = 2 // blocks
	err := Options{Mode: ModeSequential, Blocks: 4}.Validate(info)
	assert.ErrorIs(t, err, ErrArgument)
}

func TestSequentialGeneratorFillsAllOpenZones(t *testing.T) {
	info := znsInfo()
	g, err := New(Options{Mode: ModeSequential, Blocks: 4}, info, 0, 1)
	require.NoError(t, err)

	ctrl := sim.NewController(info)
	nss, _ := ctrl.Namespaces(context.Background())
	ns := nss[0]
	qp, _ := ns.Alloc(context.Background())

	d := dispatch.New(ns, qp, dispatch.Options{QueueDepth: 16})
	require.NoError(t, d.Replay(g))

	simNs := ns.(*sim.Namespace)
	for i := 0; i < int(info.MaxOpenZones); i++ {
		z := simNs.Zones().Zones[i]
		assert.Equal(t, z.Zslba+info.ZoneSizeSectors, z.Wp)
	}

	_, err = g.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRandomGeneratorRespectsMix(t *testing.T) {
	info := znsInfo()
	g, err := New(Options{Mode: ModeRandom, Blocks: 1, Mix: 1.0}, info, 50, 42)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		rec, err := g.Next()
		require.NoError(t, err)
		assert.EqualValues(t, 0x02, rec.Opc) // OpcRead
	}
	_, err = g.Next()
	assert.Equal(t, io.EOF, err)
}
