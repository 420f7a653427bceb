// Command analyzer runs a read-only two-pass aggregation over a TRS file
// and prints a summary.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/LinJ0/TraceIO/analyzer"
	"github.com/LinJ0/TraceIO/config"
	"github.com/LinJ0/TraceIO/driver"
	"github.com/LinJ0/TraceIO/reader"
	"github.com/LinJ0/TraceIO/units"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	file := fs.String("f", "", "TRS file to analyze (required)")
	perEvent := fs.Bool("d", false, "print a per-event trace while scanning")
	includeTsc := fs.Bool("t", false, "include tsc_timestamp in the per-event trace")
	lbaHist := fs.Bool("b", false, "print the per-LBA access histogram")
	zoneHist := fs.Bool("z", false, "print the per-zone access histogram")
	profileName := fs.String("n", "default-zns", "namespace profile name")
	profileDB := fs.String("profiledb", "", "path to a profile database (overrides the built-in default)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "analyzer: -f is required")
		return 1
	}

	profile, err := loadProfile(*profileDB, *profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "analyzer:", err)
		return 1
	}
	nsInfo, err := profile.NamespaceInfo()
	if err != nil {
		fmt.Fprintln(os.Stderr, "analyzer:", err)
		return 1
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "analyzer:", err)
		return 2
	}
	defer f.Close()

	zoned := nsInfo.Csi == driver.CsiZoned
	fmt.Printf("analyzing against a %s namespace profile %q\n", units.FormatCapacity(nsInfo.NumSectors, nsInfo.SectorSize), *profileName)
	a := analyzer.New(zoned, nsInfo.ZoneSizeSectors, zoned || *lbaHist || *zoneHist)

	rd := reader.New(f, units.NativeEndian)
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "analyzer:", err)
			return 2
		}
		if *perEvent {
			analyzer.PrintEvent(os.Stdout, rec, "", *includeTsc)
		}
		a.Process(rec)
	}

	printSummary(a.Summary(), *lbaHist, *zoneHist)
	return 0
}

func loadProfile(dbPath, name string) (config.Profile, error) {
	if dbPath == "" {
		if name == "" || name == "default-zns" {
			return config.Default(), nil
		}
		return config.Profile{}, fmt.Errorf("analyzer: no profile database given, cannot resolve %q", name)
	}
	db, err := config.Load(dbPath)
	if err != nil {
		return config.Profile{}, err
	}
	return db.Find(name)
}

func printSummary(s analyzer.Summary, lbaHist, zoneHist bool) {
	fmt.Printf("submitted=%d completed=%d reads=%d writes=%d rw_ratio=%.1f%%\n",
		s.SubmitCount, s.CompleteCount, s.Reads, s.Writes, s.ReadWriteRatio()*100)
	fmt.Printf("latency: min=%d max=%d avg=%.1f ticks\n", s.LatencyMin, s.LatencyMax, s.LatencyAvg)

	fmt.Println("request-size histogram (log2(nlb) buckets):")
	for i := 0; i <= 16; i++ {
		if c, ok := s.SizeHistogram[i]; ok {
			fmt.Printf("  2^%-2d blocks: %d\n", i, c)
		}
	}

	if lbaHist {
		fmt.Println("per-LBA histogram:")
		for lba, c := range s.LbaCounts {
			fmt.Printf("  lba=%#x reads=%d writes=%d\n", lba, c.Reads, c.Writes)
		}
	}
	if zoneHist {
		fmt.Println("per-zone histogram:")
		for zidx, c := range s.ZoneCounts {
			fmt.Printf("  zone=%d reads=%d writes=%d\n", zidx, c.Reads, c.Writes)
		}
	}
}
