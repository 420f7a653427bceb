// Command replayer re-issues a captured TRS stream against a namespace,
// honoring the ZNS write-pointer state machine and queue-depth backpressure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/LinJ0/TraceIO/config"
	"github.com/LinJ0/TraceIO/dispatch"
	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/driver/sim"
	"github.com/LinJ0/TraceIO/reader"
	"github.com/LinJ0/TraceIO/tsc"
	"github.com/LinJ0/TraceIO/units"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("replayer", flag.ContinueOnError)
	file := fs.String("f", "", "TRS file to replay (required)")
	reportZones := fs.Int("z", 0, "report the first N zones after replay (0 = all)")
	queueDepth := fs.Uint("q", 0, "queue depth (0 = driver default)")
	traceGroup := fs.String("e", "", "enable debug-level logging for the whole replay (the group name is only logged)")
	profileName := fs.String("n", "default-zns", "namespace profile name")
	profileDB := fs.String("profiledb", "", "path to a profile database (overrides the built-in default)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "replayer: -f is required")
		return 1
	}
	if *traceGroup != "" {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Infof("replayer: tracing enabled for group %q", *traceGroup)
	}

	profile, err := loadProfile(*profileDB, *profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		return 1
	}
	nsInfo, err := profile.NamespaceInfo()
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		return 1
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		return 2
	}
	defer f.Close()

	ctx := context.Background()
	ctrl := sim.NewController(nsInfo)
	nss, err := ctrl.Namespaces(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		return 2
	}
	ns := nss[0]
	fmt.Printf("replaying against a %s namespace\n", units.FormatCapacity(nsInfo.NumSectors, nsInfo.SectorSize))
	qp, err := ns.Alloc(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		return 2
	}
	if simQp, ok := qp.(*sim.QueuePair); ok && *queueDepth != 0 {
		simQp.SetDefaultDepth(uint32(*queueDepth))
	}
	defer qp.Free()

	d := dispatch.New(ns, qp, dispatch.Options{QueueDepth: uint32(*queueDepth), PayloadFill: 0xA5})
	rd := reader.New(f, units.NativeEndian)
	if err := d.Replay(rd); err != nil {
		fmt.Fprintln(os.Stderr, "replayer: fatal:", err)
		return 2
	}

	elapsed := float64(d.EndTick-d.StartTick) / float64(tsc.Rate())
	fmt.Printf("replay complete: malformed=%d errors=%d duration=%.6fs\n", d.Malformed, d.Errors, elapsed)

	if nsInfo.Csi == driver.CsiZoned {
		if err := dispatch.ReportZones(os.Stdout, ns, *reportZones); err != nil {
			fmt.Fprintln(os.Stderr, "replayer:", err)
			return 2
		}
	}
	return 0
}

func loadProfile(dbPath, name string) (config.Profile, error) {
	if dbPath == "" {
		if name == "" || name == "default-zns" {
			return config.Default(), nil
		}
		return config.Profile{}, fmt.Errorf("replayer: no profile database given, cannot resolve %q", name)
	}
	db, err := config.Load(dbPath)
	if err != nil {
		return config.Profile{}, err
	}
	return db.Find(name)
}
