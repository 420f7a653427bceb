// Package dispatch implements the I/O Dispatcher: the replay engine that
// classifies a TRS stream by opcode and re-issues each command against a
// queue pair, honoring the ZNS write-pointer state machine, queue-depth
// backpressure, and per-command buffer lifetimes.
package dispatch

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/trs"
	"github.com/LinJ0/TraceIO/tsc"
)

// Stream is the minimal interface the dispatcher consumes a TRS sequence
// through; *reader.Reader satisfies it.
type Stream interface {
	Next() (*trs.Record, error)
}

// Options tunes a single replay run.
type Options struct {
	// QueueDepth overrides the queue pair's advertised default depth when
	// non-zero (replayer's -q flag).
	QueueDepth uint32
	// PayloadFill is the byte every allocated write/append buffer is
	// filled with. Replayed payloads are synthetic, not a copy of whatever
	// the original command actually wrote, so a constant fill is enough to
	// make every run reproducible without caring what bytes go to disk.
	PayloadFill byte
}

// state is the dispatcher's per-queue-pair lifecycle: a replay only ever
// moves forward from accepting submissions, to waiting for the last ones to
// drain, to fully released.
type state int

const (
	stateIdle state = iota
	stateDraining
	stateFreed
)

// Dispatcher drives a single queue pair through one replay run. It is not
// safe for concurrent use; submissions and completions for a queue pair run
// on the same goroutine, so the only shared mutable state — the outstanding
// counter and the zone table — never needs a lock.
type Dispatcher struct {
	ns driver.Namespace
	qp driver.QueuePair

	opts       Options
	depth      uint32
	outstanding int
	state      state

	Malformed int
	Errors    int

	StartTick uint64
	EndTick   uint64
}

// New builds a Dispatcher for one replay run against ns/qp.
func New(ns driver.Namespace, qp driver.QueuePair, opts Options) *Dispatcher {
	depth := opts.QueueDepth
	if depth == 0 {
		depth = qp.DefaultDepth()
	}
	return &Dispatcher{ns: ns, qp: qp, opts: opts, depth: depth, state: stateIdle}
}

// Replay consumes stream to completion, resetting every zone first on a ZNS
// namespace so write pointers start from a known state.
func (d *Dispatcher) Replay(stream Stream) error {
	info := d.ns.Info()

	if info.Csi == driver.CsiZoned {
		if err := d.resetAll(); err != nil {
			return err
		}
	}

	d.StartTick = tsc.Now()

	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "dispatch: read stream")
		}
		if rec.Tpoint() != trs.TpointSubmitEvent {
			continue // a replay only re-issues commands, it never replays their completions
		}
		if err := d.submitRecord(rec, info); err != nil {
			if errors.Cause(err) == ErrDeviceLost {
				return err
			}
			// Any other submission error is fatal to the replay, except
			// MalformedTrace which is counted and skipped by submitRecord
			// itself before returning here.
			if !isMalformed(err) {
				return err
			}
		}
	}

	d.state = stateDraining
	if err := d.drain(); err != nil {
		return err
	}
	d.state = stateFreed
	d.EndTick = tsc.Now()
	return nil
}

// resetAll issues a Reset-All before the first submission of a ZNS replay.
func (d *Dispatcher) resetAll() error {
	done := make(chan driver.Status, 1)
	if err := d.qp.ZoneReset(0, true, func(ctx interface{}, status driver.Status) {
		done <- status
	}, nil); err != nil {
		return errors.Wrap(err, "dispatch: reset-all")
	}
	for {
		select {
		case status := <-done:
			if !status.Success() {
				return errors.Errorf("dispatch: reset-all failed: %s", status.Message)
			}
			return nil
		default:
			d.qp.Poll()
		}
	}
}

// waitForSlot busy-polls until outstanding < depth, the backpressure gate
// every submission has to clear before it is allowed onto the queue pair.
func (d *Dispatcher) waitForSlot() {
	for d.outstanding >= int(d.depth) {
		d.qp.Poll()
	}
}

// lostIndicator is implemented by queue pairs that can detect a vanished
// attachment; driver/sim's QueuePair does not implement it, since a
// simulated device never disappears.
type lostIndicator interface {
	Lost() bool
}

func (d *Dispatcher) drain() error {
	lost, _ := d.qp.(lostIndicator)
	for d.outstanding > 0 {
		if lost != nil && lost.Lost() {
			return ErrDeviceLost
		}
		// qp.Poll() invokes each ready completion's callback synchronously,
		// which is what decrements d.outstanding; a hung device hangs the
		// replay here indefinitely — there is no timeout to fall back to.
		d.qp.Poll()
	}
	return nil
}

// submitRecord classifies and dispatches one SUBMIT record.
func (d *Dispatcher) submitRecord(rec *trs.Record, info driver.NamespaceInfo) error {
	opInfo := trs.Classify(rec.Opc)
	decoded := trs.Decode(rec)

	if opInfo.Class == trs.ClassUnknown {
		d.Malformed++
		return ErrMalformedTrace
	}
	if opInfo.Class != trs.ClassZoneMgmtSend && opInfo.Class != trs.ClassZoneMgmtRecv {
		if decoded.Nlb == 0 || decoded.Slba >= info.NumSectors {
			d.Malformed++
			return ErrMalformedTrace
		}
	}

	switch opInfo.Class {
	case trs.ClassRead:
		return d.withSlot(func(t *task) error {
			return d.qp.Read(decoded.Slba, decoded.Nlb, t.buf, d.completion(t), t)
		}, rec.Opc, decoded.Slba, decoded.Nlb, info.SectorSize)

	case trs.ClassWrite:
		if info.Csi == driver.CsiZoned {
			zslba := (decoded.Slba / info.ZoneSizeSectors) * info.ZoneSizeSectors
			return d.withSlot(func(t *task) error {
				d.fill(t.buf)
				return d.qp.ZoneAppend(zslba, decoded.Nlb, t.buf, d.completion(t), t)
			}, rec.Opc, zslba, decoded.Nlb, info.SectorSize)
		}
		return d.withSlot(func(t *task) error {
			d.fill(t.buf)
			return d.qp.Write(decoded.Slba, decoded.Nlb, t.buf, d.completion(t), t)
		}, rec.Opc, decoded.Slba, decoded.Nlb, info.SectorSize)

	case trs.ClassZoneAppend:
		return d.withSlot(func(t *task) error {
			d.fill(t.buf)
			return d.qp.ZoneAppend(decoded.Slba, decoded.Nlb, t.buf, d.completion(t), t)
		}, rec.Opc, decoded.Slba, decoded.Nlb, info.SectorSize)

	case trs.ClassWriteZeroes:
		d.waitForSlot()
		t := newTask(d.qp, rec.Opc, decoded.Slba, decoded.Nlb, nil)
		d.outstanding++
		return d.retrying(func() error {
			return d.qp.WriteZeroes(decoded.Slba, decoded.Nlb, d.completion(t), t)
		})

	case trs.ClassZoneMgmtSend:
		return d.dispatchZoneMgmtSend(decoded)

	case trs.ClassZoneMgmtRecv:
		// a zone report is a read-only observation of device state; replaying
		// it does nothing to the namespace, so it's cheaper to skip outright
		return nil

	case trs.ClassNotReplayed:
		return nil
	}
	return nil
}

func (d *Dispatcher) dispatchZoneMgmtSend(decoded trs.Decoded) error {
	d.waitForSlot()
	t := newTask(d.qp, trs.OpcZoneMgmtSend, decoded.Slba, 0, nil)
	d.outstanding++
	submit := func() error { return errors.New("dispatch: unknown zone action") }
	switch decoded.Zsa {
	case trs.ZsaOpen:
		submit = func() error { return d.qp.ZoneOpen(decoded.Slba, decoded.SelectAll, d.completion(t), t) }
	case trs.ZsaClose:
		submit = func() error { return d.qp.ZoneClose(decoded.Slba, decoded.SelectAll, d.completion(t), t) }
	case trs.ZsaFinish:
		submit = func() error { return d.qp.ZoneFinish(decoded.Slba, decoded.SelectAll, d.completion(t), t) }
	case trs.ZsaReset:
		submit = func() error { return d.qp.ZoneReset(decoded.Slba, decoded.SelectAll, d.completion(t), t) }
	case trs.ZsaOffline:
		submit = func() error { return d.qp.ZoneOffline(decoded.Slba, decoded.SelectAll, d.completion(t), t) }
	}
	return d.retrying(submit)
}

// withSlot waits for a submission slot, allocates a buffer sized to nlb
// sectors, and invokes submit with the new task.
func (d *Dispatcher) withSlot(submit func(t *task) error, opc uint16, slba uint64, nlb uint32, sectorSize uint32) error {
	d.waitForSlot()
	buf, err := d.qp.DmaAlloc(int(nlb) * int(sectorSize))
	if err != nil {
		return errors.Wrap(err, "dispatch: dma alloc")
	}
	t := newTask(d.qp, opc, slba, nlb, buf)
	d.outstanding++
	if err := d.retrying(func() error { return submit(t) }); err != nil {
		// no completion will ever fire for a refused command
		t.release()
		d.outstanding--
		return err
	}
	return nil
}

// retrying submits the command; on a ResourceExhausted refusal — the driver
// signaling it has no free submission slot right now, not that the command
// itself is bad — it polls once to free one up and retries the same
// command, repeating for as long as the refusal is resource exhaustion.
// Any other error is fatal.
func (d *Dispatcher) retrying(submit func() error) error {
	err := submit()
	for IsResourceExhausted(err) {
		d.qp.Poll()
		err = submit()
	}
	if err == nil {
		return nil
	}
	if IsDeviceLost(err) {
		return errors.Wrap(ErrDeviceLost, "dispatch: submission")
	}
	return errors.Wrap(err, "dispatch: submission failed")
}

func (d *Dispatcher) fill(buf driver.Buf) {
	if buf == nil {
		return
	}
	b := buf.Bytes()
	for i := range b {
		b[i] = d.opts.PayloadFill
	}
}

// completion builds the per-command callback: logs a diagnostic on error,
// releases the task, decrements outstanding. It must not block or submit
// further commands — it runs synchronously out of qp.Poll().
func (d *Dispatcher) completion(t *task) driver.CompletionFunc {
	return func(ctx interface{}, status driver.Status) {
		if !status.Success() {
			d.Errors++
			logrus.WithFields(logrus.Fields{
				"opc":  t.opc,
				"slba": t.slba,
				"nlb":  t.nlb,
			}).Warnf("dispatch: completion error: %s", status.Message)
		}
		t.release()
		d.outstanding--
	}
}
