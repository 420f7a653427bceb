// Package reader streams trs.Record values out of a trace file in bounded
// chunks rather than loading the whole file, so a multi-gigabyte capture
// can be replayed or analyzed without holding it all in memory at once. The
// resulting stream is lazy and single-pass: once consumed, a record is gone.
package reader

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/trs"
)

// ErrMalformed is returned when a file's length is not an integer multiple
// of the record size, or a chunk read returns fewer records than requested
// before end-of-file.
var ErrMalformed = errors.New("reader: malformed trace file")

// defaultChunk is the number of records read per chunk — a small bounded
// buffer, matching the teacher's own habit of decoding fixed-width binary
// records in small fixed-size reads rather than slurping a whole file.
const defaultChunk = 256

// Reader streams trs.Record values from an underlying io.Reader in bounded
// chunks.
type Reader struct {
	r        io.Reader
	order    binary.ByteOrder
	chunk    int
	buf      []byte
	pending  []trs.Record
	consumed int
	done     bool
}

// New wraps r, reading records encoded in the given byte order.
func New(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{
		r:     r,
		order: order,
		chunk: defaultChunk,
		buf:   make([]byte, defaultChunk*trs.Size),
	}
}

// Next returns the next record, or io.EOF when the stream is exhausted, or
// ErrMalformed when the file is truncated mid-record or mid-chunk.
func (rd *Reader) Next() (*trs.Record, error) {
	if len(rd.pending) > 0 {
		rec := rd.pending[0]
		rd.pending = rd.pending[1:]
		return &rec, nil
	}
	if rd.done {
		return nil, io.EOF
	}
	if err := rd.fill(); err != nil {
		return nil, err
	}
	return rd.Next()
}

// fill reads one chunk, decoding however many whole records it contains.
func (rd *Reader) fill() error {
	n, err := io.ReadFull(rd.r, rd.buf)
	switch {
	case err == nil:
		// full chunk read
	case errors.Is(err, io.EOF):
		rd.done = true
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n%trs.Size != 0 {
			return ErrMalformed
		}
		rd.done = true
	default:
		return errors.Wrap(err, "reader: read chunk")
	}

	count := n / trs.Size
	records := make([]trs.Record, count)
	for i := 0; i < count; i++ {
		off := i * trs.Size
		rec := trs.Record{}
		if uerr := struc.UnpackWithOrder(byteReader(rd.buf[off:off+trs.Size]), &rec, rd.order); uerr != nil {
			return errors.Wrap(uerr, "reader: decode record")
		}
		records[i] = rec
	}
	rd.pending = records

	if rd.done && len(records) == 0 {
		return io.EOF
	}
	return nil
}

// byteReader adapts a []byte to io.Reader without the extra allocation of
// bytes.NewReader's larger API surface.
type sliceReader struct {
	b []byte
	i int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.i >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.i:])
	s.i += n
	return n, nil
}

func byteReader(b []byte) io.Reader { return &sliceReader{b: b} }

// ReadAll drains rd into a slice, for callers that don't need streaming.
func ReadAll(rd *Reader) ([]trs.Record, error) {
	var out []trs.Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, *rec)
	}
}
