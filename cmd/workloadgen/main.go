// Command workloadgen produces a synthetic sequential or random command
// stream and dispatches it directly against a namespace, without going
// through a captured TRS file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/LinJ0/TraceIO/config"
	"github.com/LinJ0/TraceIO/dispatch"
	"github.com/LinJ0/TraceIO/driver/sim"
	"github.com/LinJ0/TraceIO/workloadgen"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("workloadgen", flag.ContinueOnError)
	pattern := fs.String("w", "seq", "workload pattern: seq or rand")
	blocks := fs.Uint("b", 8, "blocks per command (power of 2)")
	mix := fs.Float64("m", 0.0, "read fraction in [0,1] (ignored for seq against a ZNS namespace)")
	limit := fs.Int("n", 10000, "command count for rand mode (ignored for seq against a ZNS namespace)")
	reportZones := fs.Int("z", 0, "report the first N zones after the run (0 = all)")
	profileName := fs.String("profile", "default-zns", "namespace profile name")
	profileDB := fs.String("profiledb", "", "path to a profile database (overrides the built-in default)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var mode workloadgen.Mode
	switch *pattern {
	case "seq":
		mode = workloadgen.ModeSequential
	case "rand":
		mode = workloadgen.ModeRandom
	default:
		fmt.Fprintf(os.Stderr, "workloadgen: -w must be seq or rand, got %q\n", *pattern)
		return 1
	}

	profile, err := loadProfile(*profileDB, *profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
		return 1
	}
	nsInfo, err := profile.NamespaceInfo()
	if err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
		return 1
	}

	opts := workloadgen.Options{Mode: mode, Blocks: uint32(*blocks), Mix: *mix}
	gen, err := workloadgen.New(opts, nsInfo, *limit, 1)
	if err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
		return 1
	}

	ctx := context.Background()
	ctrl := sim.NewController(nsInfo)
	nss, err := ctrl.Namespaces(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
		return 2
	}
	ns := nss[0]
	qp, err := ns.Alloc(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
		return 2
	}
	defer qp.Free()

	d := dispatch.New(ns, qp, dispatch.Options{QueueDepth: 16, PayloadFill: 0x5A})
	if err := d.Replay(gen); err != nil {
		fmt.Fprintln(os.Stderr, "workloadgen: fatal:", err)
		return 2
	}
	fmt.Printf("workloadgen complete: malformed=%d errors=%d\n", d.Malformed, d.Errors)

	if err := dispatch.ReportZones(os.Stdout, ns, *reportZones); err != nil {
		// Not every profile is zoned; a missing zone model is not fatal.
		fmt.Fprintln(os.Stderr, "workloadgen:", err)
	}
	return 0
}

func loadProfile(dbPath, name string) (config.Profile, error) {
	if dbPath == "" {
		if name == "" || name == "default-zns" {
			return config.Default(), nil
		}
		return config.Profile{}, fmt.Errorf("workloadgen: no profile database given, cannot resolve %q", name)
	}
	db, err := config.Load(dbPath)
	if err != nil {
		return config.Profile{}, err
	}
	return db.Find(name)
}
