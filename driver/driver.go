// Package driver defines the device-side interface the dispatcher and zone
// model consume: controller/namespace discovery, queue pairs, submission
// primitives, and the DMA allocator. Two concrete backings are provided:
// driver/sim (software-simulated, what the dispatcher and zone model
// actually exercise) and driver/pcie (a thin real-hardware identify path
// over go-nvme).
package driver

import "context"

// Csi is the NVMe command-set identifier for a namespace.
type Csi int

const (
	CsiConventional Csi = iota
	CsiZoned
)

// NamespaceInfo describes a namespace's addressable geometry and, for ZNS
// namespaces, its zone geometry and device-advertised limits.
type NamespaceInfo struct {
	Csi            Csi
	SectorSize     uint32
	NumSectors     uint64
	ZoneSizeSectors uint64
	NumZones        uint64
	MaxOpenZones    uint32
	MaxActiveZones  uint32
	MaxZoneAppendSize uint32
}

// Status is the decoded outcome of a completed command.
type Status struct {
	Code     uint32
	Message  string
	ResourceExhausted bool
}

func (s Status) Success() bool { return s.Code == 0 }

// CompletionFunc is invoked exactly once per submitted command, from within
// a call to QueuePair.Poll. It must not block or submit further commands.
type CompletionFunc func(ctx interface{}, status Status)

// Controller is a probed, attached NVMe controller.
type Controller interface {
	// Namespaces returns the namespaces attached to this controller.
	Namespaces(ctx context.Context) ([]Namespace, error)
	// Close releases any resources held for this controller.
	Close() error
}

// Namespace is one attached NVMe namespace.
type Namespace interface {
	Info() NamespaceInfo
	// Alloc creates a queue pair bound to this namespace.
	Alloc(ctx context.Context) (QueuePair, error)
}

// Buf is a DMA-capable buffer handle.
type Buf interface {
	Bytes() []byte
}

// QueuePair is a paired submission/completion ring owned by one namespace on
// one logical core. Submission and completion for a given queue pair always
// run on the same goroutine, so implementations need no internal locking.
type QueuePair interface {
	DefaultDepth() uint32

	Read(slba uint64, nlb uint32, buf Buf, cb CompletionFunc, ctx interface{}) error
	Write(slba uint64, nlb uint32, buf Buf, cb CompletionFunc, ctx interface{}) error
	WriteZeroes(slba uint64, nlb uint32, cb CompletionFunc, ctx interface{}) error
	ZoneAppend(zslba uint64, nlb uint32, buf Buf, cb CompletionFunc, ctx interface{}) error

	ZoneOpen(zslba uint64, selectAll bool, cb CompletionFunc, ctx interface{}) error
	ZoneClose(zslba uint64, selectAll bool, cb CompletionFunc, ctx interface{}) error
	ZoneFinish(zslba uint64, selectAll bool, cb CompletionFunc, ctx interface{}) error
	ZoneReset(zslba uint64, selectAll bool, cb CompletionFunc, ctx interface{}) error
	ZoneOffline(zslba uint64, selectAll bool, cb CompletionFunc, ctx interface{}) error

	// Poll drains completions, invoking their callbacks, and returns the
	// number consumed. It never blocks past what is currently ready.
	Poll() int

	// DmaAlloc/DmaFree are the DMA allocator primitive; every buffer handed
	// out by DmaAlloc must be matched by exactly one DmaFree call.
	DmaAlloc(size int) (Buf, error)
	DmaFree(buf Buf)

	// Free releases the queue pair; it must be called exactly once, after
	// replay has drained all outstanding commands.
	Free() error
}

// Probe enumerates attachable controllers.
func Probe(ctx context.Context, p Prober) ([]Controller, error) {
	return p.Probe(ctx)
}

// Prober is implemented by each concrete backing (driver/sim, driver/pcie).
type Prober interface {
	Probe(ctx context.Context) ([]Controller, error)
}
