package recorder

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/LinJ0/TraceIO/reader"
	"github.com/LinJ0/TraceIO/units"
)

// DebugDump re-reads a just-written trace file and prints one line per
// record, the Go equivalent of trace_io_record's -d flag (which re-reads
// and prints the .bin file it had just written for operator sanity
// checking).
func DebugDump(w io.Writer, r io.Reader, order binary.ByteOrder) error {
	rd := reader.New(r, order)
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "lcore=%d tsc=%d obj_id=%#x tp=%s opc=%#02x cid=%#04x nsid=%d sc_time=%d\n",
			rec.Lcore, rec.TscTimestamp, rec.ObjID, rec.Tpoint(), rec.Opc, rec.Cid, rec.Nsid, rec.TscScTime)
	}
}

// NativeOrder is exported for callers (cmd/recorder) that want the same
// default byte order Recorder uses.
var NativeOrder = units.NativeEndian
