// Package analyzer implements the Analyzer: a read-only two-pass aggregator
// over a TRS file, grounded on original_source's trace_io_analysis.c (R/W
// ratio, latency min/max/avg) and trace_analyzer.c (the fuller request-size
// histogram and per-LBA/per-zone pass).
package analyzer

import (
	"math"

	"github.com/LinJ0/TraceIO/trs"
	"github.com/LinJ0/TraceIO/units"
)

// latencyAccumulator sums tsc_sc_time samples in buckets, starting a new
// bucket whenever the next sample would overflow the current one, so a long
// capture's latency sum never wraps before the average is computed.
type latencyAccumulator struct {
	buckets []uint64
	count   uint64
	min     uint64
	max     uint64
	haveMin bool
}

func (a *latencyAccumulator) add(v uint64) {
	if len(a.buckets) == 0 {
		a.buckets = append(a.buckets, 0)
	}
	last := len(a.buckets) - 1
	if a.buckets[last] > math.MaxUint64-v {
		a.buckets = append(a.buckets, v)
	} else {
		a.buckets[last] += v
	}
	a.count++
	if !a.haveMin || v < a.min {
		a.min = v
		a.haveMin = true
	}
	if v > a.max {
		a.max = v
	}
}

func (a *latencyAccumulator) avg() float64 {
	if a.count == 0 {
		return 0
	}
	var sum float64
	for _, b := range a.buckets {
		sum += float64(b)
	}
	return sum / float64(a.count)
}

// Summary is the Pass 1 aggregate result.
type Summary struct {
	SubmitCount   uint64
	CompleteCount uint64
	Reads         uint64
	Writes        uint64

	FirstSubmitTsc   uint64
	LastCompleteTsc  uint64
	HaveFirstSubmit  bool
	HaveLastComplete bool

	LatencyMin uint64
	LatencyMax uint64
	LatencyAvg float64

	// SizeHistogram counts requests by RequestSizeBucket(nlb) bucket.
	SizeHistogram map[int]uint64

	// LbaCounts and ZoneCounts are populated by Pass 2.
	LbaCounts  map[uint64]rwCount
	ZoneCounts map[uint64]rwCount
}

type rwCount struct {
	Reads  uint64
	Writes uint64
}

// IOPS reports completed_requests / (last_complete_tsc - first_submit_tsc)
// in the given tick rate, or 0 if there is not enough data.
func (s *Summary) IOPS(tscRate uint64) float64 {
	if !s.HaveFirstSubmit || !s.HaveLastComplete || s.LastCompleteTsc <= s.FirstSubmitTsc || tscRate == 0 {
		return 0
	}
	seconds := float64(s.LastCompleteTsc-s.FirstSubmitTsc) / float64(tscRate)
	if seconds == 0 {
		return 0
	}
	return float64(s.CompleteCount) / seconds
}

// ReadWriteRatio returns reads / (reads + writes), or 0 when no classified
// commands were seen.
func (s *Summary) ReadWriteRatio() float64 {
	total := s.Reads + s.Writes
	if total == 0 {
		return 0
	}
	return float64(s.Reads) / float64(total)
}

// Analyzer runs Pass 1 (always) and Pass 2 (when requested or the namespace
// is zoned) over a sequence of records.
type Analyzer struct {
	zoneSize   uint64
	zoned      bool
	pass2      bool
	lat        latencyAccumulator
	summary    Summary
}

// New builds an Analyzer. zoneSize is used for Pass 2's zone index when
// pass2 is enabled; it is ignored otherwise.
func New(zoned bool, zoneSize uint64, pass2 bool) *Analyzer {
	return &Analyzer{
		zoneSize: zoneSize,
		zoned:    zoned,
		pass2:    pass2 || zoned,
		summary: Summary{
			SizeHistogram: make(map[int]uint64),
		},
	}
}

// Process feeds one record into the aggregator.
func (a *Analyzer) Process(rec *trs.Record) {
	switch rec.Tpoint() {
	case trs.TpointSubmitEvent:
		a.processSubmit(rec)
	case trs.TpointCompleteEvent:
		a.processComplete(rec)
	}
}

func (a *Analyzer) processSubmit(rec *trs.Record) {
	a.summary.SubmitCount++
	if !a.summary.HaveFirstSubmit {
		a.summary.FirstSubmitTsc = rec.TscTimestamp
		a.summary.HaveFirstSubmit = true
	}

	info := trs.Classify(rec.Opc)
	decoded := trs.Decode(rec)

	switch info.Class {
	case trs.ClassRead:
		a.summary.Reads++
	case trs.ClassWrite, trs.ClassZoneAppend, trs.ClassWriteZeroes:
		a.summary.Writes++
	}

	if info.Class == trs.ClassRead || info.Class == trs.ClassWrite ||
		info.Class == trs.ClassZoneAppend || info.Class == trs.ClassWriteZeroes {
		a.summary.SizeHistogram[units.RequestSizeBucket(decoded.Nlb)]++

		if a.pass2 {
			a.bump(decoded.Slba, info.Class == trs.ClassRead)
		}
	}
}

func (a *Analyzer) processComplete(rec *trs.Record) {
	a.summary.CompleteCount++
	a.summary.LastCompleteTsc = rec.TscTimestamp
	a.summary.HaveLastComplete = true
	a.lat.add(rec.TscScTime)
}

func (a *Analyzer) bump(slba uint64, isRead bool) {
	if a.summary.LbaCounts == nil {
		a.summary.LbaCounts = make(map[uint64]rwCount)
	}
	c := a.summary.LbaCounts[slba]
	if isRead {
		c.Reads++
	} else {
		c.Writes++
	}
	a.summary.LbaCounts[slba] = c

	if a.zoneSize == 0 {
		return
	}
	zidx := slba / a.zoneSize
	if a.summary.ZoneCounts == nil {
		a.summary.ZoneCounts = make(map[uint64]rwCount)
	}
	zc := a.summary.ZoneCounts[zidx]
	if isRead {
		zc.Reads++
	} else {
		zc.Writes++
	}
	a.summary.ZoneCounts[zidx] = zc
}

// Summary returns the accumulated result. Call after feeding every record.
func (a *Analyzer) Summary() Summary {
	s := a.summary
	s.LatencyMin = a.lat.min
	s.LatencyMax = a.lat.max
	s.LatencyAvg = a.lat.avg()
	return s
}
