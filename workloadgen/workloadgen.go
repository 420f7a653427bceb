// Package workloadgen implements synthetic workload-generation front ends:
// sequential and random command streams dispatched directly against a
// namespace, without needing a pre-recorded trace file on disk.
package workloadgen

import (
	"io"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/trs"
)

// Mode selects the generation strategy.
type Mode int

const (
	ModeSequential Mode = iota
	ModeRandom
)

// ErrArgument reports a rejected generator configuration: a block count
// that isn't a power of 2, a mix ratio outside [0,1], or a transfer size
// that would exceed the namespace's max zone append size.
var ErrArgument = errors.New("workloadgen: invalid argument")

// Options configures a generator run.
type Options struct {
	Mode   Mode
	Blocks uint32 // blocks per command; must be a power of 2
	Mix    float64 // read fraction in [0,1]; ignored in pure-sequential-write mode
}

// Validate checks Options against info, rejecting configurations the
// dispatcher could never legally replay.
func (o Options) Validate(info driver.NamespaceInfo) error {
	if o.Blocks == 0 || o.Blocks&(o.Blocks-1) != 0 {
		return errors.Wrapf(ErrArgument, "block count %d is not a power of 2", o.Blocks)
	}
	if o.Mix < 0 || o.Mix > 1 {
		return errors.Wrapf(ErrArgument, "mix ratio %f out of [0,1]", o.Mix)
	}
	if info.Csi == driver.CsiZoned && o.Blocks > info.MaxZoneAppendSize {
		return errors.Wrapf(ErrArgument, "block count %d exceeds max_zone_append_size %d blocks", o.Blocks, info.MaxZoneAppendSize)
	}
	return nil
}

// Generator is a dispatch.Stream producing synthetic SUBMIT records. It
// never emits COMPLETE records, since the dispatcher only acts on SUBMITs
// and would discard them anyway.
type Generator struct {
	opts Options
	info driver.NamespaceInfo
	rng  *rand.Rand

	// zone cursor state for ModeSequential against a zoned namespace.
	zoneIdx  int
	zoneCaps uint64
	openZone int

	emitted int
	limit   int
}

// New builds a Generator. For ModeSequential against a zoned namespace the
// stream runs until every zone addressable under max_open_zones is filled;
// for ModeRandom it runs until limit commands have been produced.
func New(opts Options, info driver.NamespaceInfo, limit int, seed int64) (*Generator, error) {
	if err := opts.Validate(info); err != nil {
		return nil, err
	}
	g := &Generator{opts: opts, info: info, rng: rand.New(rand.NewSource(seed)), limit: limit}
	if opts.Mode == ModeSequential && info.Csi == driver.CsiZoned {
		g.zoneCaps = info.ZoneSizeSectors / uint64(opts.Blocks)
		g.limit = int(uint64(info.MaxOpenZones) * g.zoneCaps)
	}
	return g, nil
}

// Next implements dispatch.Stream.
func (g *Generator) Next() (*trs.Record, error) {
	if g.emitted >= g.limit {
		return nil, io.EOF
	}
	g.emitted++

	if g.opts.Mode == ModeSequential && g.info.Csi == driver.CsiZoned {
		return g.nextSequentialAppend(), nil
	}
	return g.nextMixed(), nil
}

// nextSequentialAppend cycles through zones 0..max_open_zones-1, issuing
// zone_cap/blocks appends to each before moving to the next, filling every
// concurrently-open zone to capacity in turn the way a sequential-write
// workload on a ZNS device actually has to.
func (g *Generator) nextSequentialAppend() *trs.Record {
	zidx := uint64(g.zoneIdx)
	zslba := zidx * g.info.ZoneSizeSectors

	g.openZone++
	if uint64(g.openZone) >= g.zoneCaps {
		g.openZone = 0
		g.zoneIdx++
	}

	return submitRecord(trs.OpcZoneAppend, zslba, g.opts.Blocks)
}

// nextMixed issues reads/writes at random LBAs per the configured mix
// ratio, used for ModeRandom and for ModeSequential against a conventional
// namespace.
func (g *Generator) nextMixed() *trs.Record {
	maxSlba := g.info.NumSectors - uint64(g.opts.Blocks)
	slba := uint64(g.rng.Int63n(int64(maxSlba) + 1))

	if g.rng.Float64() < g.opts.Mix {
		return submitRecord(trs.OpcRead, slba, g.opts.Blocks)
	}
	if g.info.Csi == driver.CsiZoned {
		zslba := (slba / g.info.ZoneSizeSectors) * g.info.ZoneSizeSectors
		return submitRecord(trs.OpcZoneAppend, zslba, g.opts.Blocks)
	}
	return submitRecord(trs.OpcWrite, slba, g.opts.Blocks)
}

func submitRecord(opc uint16, slba uint64, nlb uint32) *trs.Record {
	r := &trs.Record{
		Opc:   opc,
		Cdw10: uint32(slba),
		Cdw11: uint32(slba >> 32),
		Cdw12: nlb - 1,
	}
	r.SetTpointName(trs.TpointSubmit)
	return r
}
