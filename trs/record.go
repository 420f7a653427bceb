// Package trs defines the Trace Record Schema: the fixed-width on-wire event
// record shared by the recorder, reader, dispatcher and analyzer.
package trs

import (
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Tracepoint names as they appear on the wire, ASCII, NUL-padded to 32 bytes.
const (
	TpointSubmit   = "NVME_IO_SUBMIT"
	TpointComplete = "NVME_IO_COMPLETE"
)

// Record is the fixed-width trace event record. Field order and widths match
// the wire layout exactly; the fixed-size array pins TpointName's width and
// the producer's native byte order is passed explicitly at pack/unpack time.
type Record struct {
	Lcore        uint32
	TscRate      uint64
	TscTimestamp uint64
	ObjID        uint64
	TscScTime    uint64
	TpointName   [32]byte
	Opc          uint16
	Cid          uint16
	Nsid         uint32
	Cpl          uint32
	Cdw10        uint32
	Cdw11        uint32
	Cdw12        uint32
	Cdw13        uint32
}

// Size is the fixed on-wire size of a Record, used by the reader to detect
// truncated files without unpacking a partial record.
var Size = func() int {
	n, err := struc.Sizeof(&Record{})
	if err != nil {
		panic(err)
	}
	return n
}()

// Tpoint returns the tagged sum-type classification of TpointName, parsed
// once on read so downstream logic switches on a Go type rather than a
// fixed-width ASCII string.
type Tpoint int

const (
	TpointUnknown Tpoint = iota
	TpointSubmitEvent
	TpointCompleteEvent
)

func (t Tpoint) String() string {
	switch t {
	case TpointSubmitEvent:
		return TpointSubmit
	case TpointCompleteEvent:
		return TpointComplete
	default:
		return "UNKNOWN"
	}
}

func (r *Record) Tpoint() Tpoint {
	name := string(bytes.TrimRight(r.TpointName[:], "\x00"))
	switch name {
	case TpointSubmit:
		return TpointSubmitEvent
	case TpointComplete:
		return TpointCompleteEvent
	default:
		return TpointUnknown
	}
}

// SetTpointName writes name into TpointName, NUL-padded/truncated to 32 bytes.
func (r *Record) SetTpointName(name string) {
	var buf [32]byte
	copy(buf[:], name)
	r.TpointName = buf
}

// Pack serializes r in the given byte order (the producer's native order;
// the format carries no header recording which order was used).
func Pack(r *Record, order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, r, order); err != nil {
		return nil, errors.Wrap(err, "trs: pack record")
	}
	return buf.Bytes(), nil
}

// Unpack deserializes exactly one Record from data, which must be at least
// Size bytes, in the given byte order.
func Unpack(data []byte, order binary.ByteOrder) (*Record, error) {
	if len(data) < Size {
		return nil, errors.Errorf("trs: short record: %d bytes, want %d", len(data), Size)
	}
	r := &Record{}
	if err := struc.UnpackWithOrder(bytes.NewReader(data[:Size]), r, order); err != nil {
		return nil, errors.Wrap(err, "trs: unpack record")
	}
	return r, nil
}
