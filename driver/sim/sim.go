// Package sim is a software-simulated NVMe controller/namespace: the
// concrete driver backing every test, workloadgen, and the default replay
// target when no real device is attached. It tracks write-pointer state
// for zoned namespaces using the zone package, and otherwise just accepts
// submissions and completes them on the next Poll.
package sim

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/zone"
)

// Controller is a simulated controller exposing a single namespace.
type Controller struct {
	ns *Namespace
}

// NewController builds a simulated controller around a namespace described
// by info.
func NewController(info driver.NamespaceInfo) *Controller {
	ns := &Namespace{info: info}
	if info.Csi == driver.CsiZoned {
		ns.zones = zone.Discover(info)
	}
	return &Controller{ns: ns}
}

func (c *Controller) Namespaces(ctx context.Context) ([]driver.Namespace, error) {
	return []driver.Namespace{c.ns}, nil
}

func (c *Controller) Close() error { return nil }

// Prober implements driver.Prober for a fixed set of controllers, so tests
// and replayer can exercise driver.Probe uniformly with a real backing.
type Prober struct {
	Controllers []driver.Controller
}

func (p Prober) Probe(ctx context.Context) ([]driver.Controller, error) {
	if len(p.Controllers) == 0 {
		return nil, errors.New("sim: no controllers configured")
	}
	return p.Controllers, nil
}

// Namespace is a simulated namespace; zones is nil for conventional
// namespaces.
type Namespace struct {
	info  driver.NamespaceInfo
	zones *zone.Model
}

func (n *Namespace) Info() driver.NamespaceInfo { return n.info }

// Zones exposes the live zone model so a caller (dispatch.ReportZones) can
// read current zone state without going through a command.
func (n *Namespace) Zones() *zone.Model { return n.zones }

func (n *Namespace) Alloc(ctx context.Context) (driver.QueuePair, error) {
	return &QueuePair{ns: n}, nil
}

// buf is the trivial in-process DMA buffer: just a byte slice.
type buf struct {
	data []byte
}

func (b *buf) Bytes() []byte { return b.data }

// pending is one submitted, not-yet-completed command.
type pending struct {
	cb     driver.CompletionFunc
	ctx    interface{}
	status driver.Status
}

// QueuePair is a simulated queue pair. Completions are generated
// synchronously at submission time and queued for the next Poll call,
// mirroring a real polled-mode driver: nothing completes without the
// caller's cooperation, so tests stay deterministic.
type QueuePair struct {
	ns      *Namespace
	mu      sync.Mutex
	ready   []pending
	depth   uint32
	closed  bool
}

func (q *QueuePair) DefaultDepth() uint32 {
	if q.depth == 0 {
		return 32
	}
	return q.depth
}

// SetDefaultDepth lets a caller (e.g. replayer's -q flag) override the
// simulated default queue depth.
func (q *QueuePair) SetDefaultDepth(d uint32) { q.depth = d }

func (q *QueuePair) enqueue(status driver.Status, cb driver.CompletionFunc, ctx interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("sim: queue pair closed")
	}
	q.ready = append(q.ready, pending{cb: cb, ctx: ctx, status: status})
	return nil
}

func (q *QueuePair) checkBounds(slba uint64, nlb uint32) driver.Status {
	info := q.ns.info
	if nlb == 0 || slba+uint64(nlb) > info.NumSectors {
		return driver.Status{Code: 1, Message: "invalid field in command"}
	}
	return driver.Status{Code: 0}
}

func (q *QueuePair) Read(slba uint64, nlb uint32, b driver.Buf, cb driver.CompletionFunc, ctx interface{}) error {
	return q.enqueue(q.checkBounds(slba, nlb), cb, ctx)
}

func (q *QueuePair) Write(slba uint64, nlb uint32, b driver.Buf, cb driver.CompletionFunc, ctx interface{}) error {
	status := q.checkBounds(slba, nlb)
	if status.Success() && q.ns.zones != nil {
		zidx := q.ns.zones.ZoneIndex(slba)
		if err := q.ns.zones.Apply(zidx, zone.ActionWrite, uint64(nlb), true); err != nil {
			status = driver.Status{Code: 2, Message: err.Error()}
		}
	}
	return q.enqueue(status, cb, ctx)
}

func (q *QueuePair) WriteZeroes(slba uint64, nlb uint32, cb driver.CompletionFunc, ctx interface{}) error {
	status := q.checkBounds(slba, nlb)
	if status.Success() && q.ns.zones != nil {
		zidx := q.ns.zones.ZoneIndex(slba)
		if err := q.ns.zones.Apply(zidx, zone.ActionWrite, uint64(nlb), true); err != nil {
			status = driver.Status{Code: 2, Message: err.Error()}
		}
	}
	return q.enqueue(status, cb, ctx)
}

func (q *QueuePair) ZoneAppend(zslba uint64, nlb uint32, b driver.Buf, cb driver.CompletionFunc, ctx interface{}) error {
	status := q.checkBounds(zslba, nlb)
	if status.Success() && q.ns.zones != nil {
		zidx := q.ns.zones.ZoneIndex(zslba)
		if err := q.ns.zones.Apply(zidx, zone.ActionWrite, uint64(nlb), true); err != nil {
			status = driver.Status{Code: 2, Message: err.Error()}
		}
	}
	return q.enqueue(status, cb, ctx)
}

func (q *QueuePair) zoneAction(zslba uint64, selectAll bool, action zone.Action, cb driver.CompletionFunc, ctx interface{}) error {
	if q.ns.zones == nil {
		return q.enqueue(driver.Status{Code: 1, Message: "not a zoned namespace"}, cb, ctx)
	}
	status := driver.Status{Code: 0}
	apply := func(zidx uint64) {
		if err := q.ns.zones.Apply(zidx, action, 0, true); err != nil {
			status = driver.Status{Code: 2, Message: err.Error()}
		}
	}
	if selectAll {
		for i := range q.ns.zones.Zones {
			apply(uint64(i))
		}
	} else {
		apply(q.ns.zones.ZoneIndex(zslba))
	}
	return q.enqueue(status, cb, ctx)
}

func (q *QueuePair) ZoneOpen(zslba uint64, selectAll bool, cb driver.CompletionFunc, ctx interface{}) error {
	return q.zoneAction(zslba, selectAll, zone.ActionOpen, cb, ctx)
}

func (q *QueuePair) ZoneClose(zslba uint64, selectAll bool, cb driver.CompletionFunc, ctx interface{}) error {
	return q.zoneAction(zslba, selectAll, zone.ActionClose, cb, ctx)
}

func (q *QueuePair) ZoneFinish(zslba uint64, selectAll bool, cb driver.CompletionFunc, ctx interface{}) error {
	return q.zoneAction(zslba, selectAll, zone.ActionFinish, cb, ctx)
}

func (q *QueuePair) ZoneReset(zslba uint64, selectAll bool, cb driver.CompletionFunc, ctx interface{}) error {
	if q.ns.zones != nil && selectAll {
		q.ns.zones.ResetAll()
		return q.enqueue(driver.Status{Code: 0}, cb, ctx)
	}
	return q.zoneAction(zslba, selectAll, zone.ActionReset, cb, ctx)
}

func (q *QueuePair) ZoneOffline(zslba uint64, selectAll bool, cb driver.CompletionFunc, ctx interface{}) error {
	// A device takes a zone offline on its own account (media wear-out,
	// uncorrectable errors), not in response to a Zone-Mgmt-Send a host
	// issues; simulate it as always succeeding without a state change.
	return q.enqueue(driver.Status{Code: 0}, cb, ctx)
}

func (q *QueuePair) Poll() int {
	q.mu.Lock()
	batch := q.ready
	q.ready = nil
	q.mu.Unlock()

	for _, p := range batch {
		p.cb(p.ctx, p.status)
	}
	return len(batch)
}

func (q *QueuePair) DmaAlloc(size int) (driver.Buf, error) {
	return &buf{data: make([]byte, size)}, nil
}

func (q *QueuePair) DmaFree(b driver.Buf) {}

func (q *QueuePair) Free() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
