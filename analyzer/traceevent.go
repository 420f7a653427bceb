package analyzer

import (
	"fmt"
	"io"

	"github.com/LinJ0/TraceIO/trs"
)

// PrintEvent writes one human-readable line per record, in the style of
// trace_io_parser.c's per-event dump, for eyeballing a capture record by
// record instead of waiting on the aggregate summary. filterGroup restricts
// output to "submit", "complete", or "" for both.
func PrintEvent(w io.Writer, rec *trs.Record, filterGroup string, includeTsc bool) {
	tp := rec.Tpoint()
	switch filterGroup {
	case "submit":
		if tp != trs.TpointSubmitEvent {
			return
		}
	case "complete":
		if tp != trs.TpointCompleteEvent {
			return
		}
	}

	var tscPrefix string
	if includeTsc {
		tscPrefix = fmt.Sprintf("[%10d] ", rec.TscTimestamp)
	}

	info := trs.Classify(rec.Opc)
	decoded := trs.Decode(rec)

	switch tp {
	case trs.TpointSubmitEvent:
		fmt.Fprintf(w, "%slcore=%d cid=%#04x nsid=%d opc=%#02x class=%d slba=%#x nlb=%d\n",
			tscPrefix, rec.Lcore, rec.Cid, rec.Nsid, rec.Opc, info.Class, decoded.Slba, decoded.Nlb)
	case trs.TpointCompleteEvent:
		fmt.Fprintf(w, "%slcore=%d cid=%#04x cpl=%#x sc_time=%d\n",
			tscPrefix, rec.Lcore, rec.Cid, rec.Cpl, rec.TscScTime)
	default:
		fmt.Fprintf(w, "%slcore=%d unknown tpoint\n", tscPrefix, rec.Lcore)
	}
}
