package dispatch

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/LinJ0/TraceIO/zone"
)

// ZoneReporter is implemented by a namespace backing that keeps a live
// zone.Model (driver/sim.Namespace), letting ReportZones read current zone
// state straight out of memory instead of issuing a zone-report command.
type ZoneReporter interface {
	Zones() *zone.Model
}

// ReportZones prints the first n zones' ZSLBA/ZCAP/WP/state/type fields,
// matching the fields trace_io_replay's report_zone/print_zns_zone print.
// n == 0 means all zones.
func ReportZones(w io.Writer, ns interface{}, n int) error {
	zr, ok := ns.(ZoneReporter)
	if !ok {
		return errors.New("dispatch: namespace has no zone model to report")
	}
	model := zr.Zones()
	if model == nil {
		return errors.New("dispatch: namespace is not zoned")
	}

	count := n
	if count == 0 || count > len(model.Zones) {
		count = len(model.Zones)
	}
	for i := 0; i < count; i++ {
		z := model.Zones[i]
		fmt.Fprintf(w, "zone %4d: zslba=%#x zcap=%#x wp=%#x state=%s type=%d\n",
			i, z.Zslba, z.Zcap, z.Wp, z.State, z.Type)
	}
	return nil
}
