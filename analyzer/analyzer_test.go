package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LinJ0/TraceIO/trs"
)

func submit(opc uint16, slba uint64, nlb uint32) trs.Record {
	r := trs.Record{Opc: opc, Cdw10: uint32(slba), Cdw11: uint32(slba >> 32), Cdw12: nlb - 1}
	r.SetTpointName(trs.TpointSubmit)
	return r
}

func complete(tscTimestamp, scTime uint64) trs.Record {
	r := trs.Record{TscTimestamp: tscTimestamp, TscScTime: scTime}
	r.SetTpointName(trs.TpointComplete)
	return r
}

func TestPass1ReadWriteRatioAndIOPS(t *testing.T) {
	a := New(false, 0, false)
	s0 := submit(trs.OpcRead, 0, 8)
	s0.TscTimestamp = 1000
	a.Process(&s0)
	s1 := submit(trs.OpcWrite, 8, 8)
	s1.TscTimestamp = 1000
	a.Process(&s1)
	a.Process(ptr(complete(2000, 50)))
	a.Process(ptr(complete(3000, 150)))

	sum := a.Summary()
	assert.Equal(t, uint64(1), sum.Reads)
	assert.Equal(t, uint64(1), sum.Writes)
	assert.InDelta(t, 0.5, sum.ReadWriteRatio(), 0.0001)
	assert.Equal(t, uint64(50), sum.LatencyMin)
	assert.Equal(t, uint64(150), sum.LatencyMax)
	assert.InDelta(t, 100.0, sum.LatencyAvg, 0.0001)
	assert.Greater(t, sum.IOPS(1000), 0.0)
}

func TestSizeHistogramBucketsByLog2Nlb(t *testing.T) {
	a := New(false, 0, false)
	a.Process(ptr(submit(trs.OpcRead, 0, 8)))
	a.Process(ptr(submit(trs.OpcRead, 100, 8)))
	a.Process(ptr(submit(trs.OpcRead, 200, 1)))

	sum := a.Summary()
	assert.Equal(t, uint64(2), sum.SizeHistogram[3])
	assert.Equal(t, uint64(1), sum.SizeHistogram[0])
}

func TestPass2ZoneCountsIndexedByZoneSize(t *testing.T) {
	a := New(true, 0x4000, true)
	a.Process(ptr(submit(trs.OpcZoneAppend, 0, 8)))
	a.Process(ptr(submit(trs.OpcZoneAppend, 0x4000, 8)))
	a.Process(ptr(submit(trs.OpcRead, 0x4000+16, 8)))

	sum := a.Summary()
	assert.Equal(t, uint64(1), sum.ZoneCounts[0].Writes)
	assert.Equal(t, uint64(1), sum.ZoneCounts[1].Writes)
	assert.Equal(t, uint64(1), sum.ZoneCounts[1].Reads)
}

func TestLatencyAccumulatorOverflowsIntoNewBucket(t *testing.T) {
	var acc latencyAccumulator
	acc.add(^uint64(0))
	acc.add(1)
	assert.Len(t, acc.buckets, 2)
	assert.InDelta(t, float64(^uint64(0))/2+0.5, acc.avg(), 1)
}

func ptr(r trs.Record) *trs.Record { return &r }
