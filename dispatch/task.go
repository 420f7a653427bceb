package dispatch

import "github.com/LinJ0/TraceIO/driver"

// task is a per-in-flight-command object, owning its DMA buffer until the
// matching completion fires. release is safe to call more than once; only
// the first call has effect, so every exit path through the completion
// callback can call it unconditionally without double-freeing the buffer.
type task struct {
	qp      driver.QueuePair
	opc     uint16
	slba    uint64
	nlb     uint32
	buf     driver.Buf
	released bool
}

func newTask(qp driver.QueuePair, opc uint16, slba uint64, nlb uint32, buf driver.Buf) *task {
	return &task{qp: qp, opc: opc, slba: slba, nlb: nlb, buf: buf}
}

func (t *task) release() {
	if t.released {
		return
	}
	t.released = true
	if t.buf != nil {
		t.qp.DmaFree(t.buf)
	}
}
