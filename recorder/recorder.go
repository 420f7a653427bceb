// Package recorder implements the Trace Recorder: it consumes submit/
// complete tracepoint events from the driver's shared-memory ring and
// serializes them as trs.Record values to an append-only file: each retained
// SUBMIT as it arrives, and each COMPLETE that matches an earlier SUBMIT.
package recorder

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LinJ0/TraceIO/trs"
	"github.com/LinJ0/TraceIO/units"
)

// Event is one tracepoint entry as read from the driver's cursor, before
// recorder filtering. AdminQueue and ObjectStartSentinel are decoded by the
// cursor implementation from the driver-internal event representation.
type Event struct {
	Name                string
	Lcore               uint32
	Tsc                 uint64
	TscRate             uint64
	ObjID               uint64
	ObjectStart         uint64
	AdminQueue          bool
	ObjectStartSentinel bool // high bit of the object-start field is set

	// Populated on NVME_IO_SUBMIT.
	Opc   uint16
	Cid   uint16
	Nsid  uint32
	Cdw10 uint32
	Cdw11 uint32
	Cdw12 uint32
	Cdw13 uint32

	// Populated on NVME_IO_COMPLETE.
	Cpl uint32
}

// Cursor is the opaque collaborator over the driver's tracepoint buffer;
// the recorder only ever pulls events forward through it, never rewinds.
type Cursor interface {
	// Next returns the next tracepoint event, or io.EOF when the capture
	// session has ended.
	Next() (*Event, error)
}

// submitted tracks a SUBMIT event awaiting its matching COMPLETE.
type submitted struct {
	rec trs.Record
	tsc uint64
}

// Recorder consumes a Cursor and appends trs.Record values to w.
type Recorder struct {
	cursor Cursor
	w      io.Writer
	order  binary.ByteOrder

	epoch   uint64
	haveEpoch bool
	inflight  map[uint64]submitted

	Discarded int
	Written   int
}

// New builds a Recorder writing records to w in the host's native byte
// order, reading events from cursor.
func New(cursor Cursor, w io.Writer) *Recorder {
	return &Recorder{
		cursor:   cursor,
		w:        w,
		order:    units.NativeEndian,
		inflight: make(map[uint64]submitted),
	}
}

// Run drains cursor until io.EOF, writing every retained SUBMIT and every
// COMPLETE whose SUBMIT was seen. An I/O error on the output file is fatal: Run closes out its state
// and returns the error without attempting to continue, since a partially
// written record would corrupt every downstream reader of the file.
func (r *Recorder) Run() error {
	for {
		ev, err := r.cursor.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "recorder: read tracepoint cursor")
		}
		if err := r.process(ev); err != nil {
			logrus.WithError(err).WithField("obj_id", ev.ObjID).Error("recorder: fatal I/O error, terminating")
			return err
		}
	}
}

func (r *Recorder) process(ev *Event) error {
	if ev.Name != trs.TpointSubmit && ev.Name != trs.TpointComplete {
		r.Discarded++
		return nil
	}
	if ev.AdminQueue {
		r.Discarded++
		return nil
	}
	if ev.ObjectStartSentinel {
		r.Discarded++
		return nil
	}

	if !r.haveEpoch {
		r.epoch = ev.Tsc
		r.haveEpoch = true
	}

	switch ev.Name {
	case trs.TpointSubmit:
		rec := trs.Record{
			Lcore:        ev.Lcore,
			TscRate:      ev.TscRate,
			TscTimestamp: ev.Tsc - r.epoch,
			ObjID:        ev.ObjID,
			TscScTime:    0,
			Opc:          ev.Opc,
			Cid:          ev.Cid,
			Nsid:         ev.Nsid,
			Cdw10:        ev.Cdw10,
			Cdw11:        ev.Cdw11,
			Cdw12:        ev.Cdw12,
			Cdw13:        ev.Cdw13,
		}
		rec.SetTpointName(trs.TpointSubmit)
		r.inflight[ev.ObjID] = submitted{rec: rec, tsc: ev.Tsc}
		return r.write(&rec)

	case trs.TpointComplete:
		sub, ok := r.inflight[ev.ObjID]
		if !ok {
			r.Discarded++
			return nil
		}
		delete(r.inflight, ev.ObjID)

		rec := sub.rec
		rec.TscTimestamp = ev.Tsc - r.epoch
		rec.TscScTime = ev.Tsc - sub.tsc
		rec.Cpl = ev.Cpl
		rec.SetTpointName(trs.TpointComplete)
		return r.write(&rec)
	}
	return nil
}

func (r *Recorder) write(rec *trs.Record) error {
	data, err := trs.Pack(rec, r.order)
	if err != nil {
		return errors.Wrap(err, "recorder: pack record")
	}
	if _, err := r.w.Write(data); err != nil {
		return errors.Wrap(err, "recorder: write record")
	}
	r.Written++
	return nil
}
