package recorder

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	rdr "github.com/LinJ0/TraceIO/reader"
	"github.com/LinJ0/TraceIO/trs"
	"github.com/LinJ0/TraceIO/units"
)

type fakeCursor struct {
	events []Event
	i      int
}

func (c *fakeCursor) Next() (*Event, error) {
	if c.i >= len(c.events) {
		return nil, io.EOF
	}
	ev := c.events[c.i]
	c.i++
	return &ev, nil
}

func TestDiscardsAdminAndSentinelAndUnknown(t *testing.T) {
	cursor := &fakeCursor{events: []Event{
		{Name: "NVME_IO_SUBMIT", AdminQueue: true, ObjID: 1, Tsc: 10},
		{Name: "NVME_IO_SUBMIT", ObjectStartSentinel: true, ObjID: 2, Tsc: 20},
		{Name: "SOME_OTHER_TPOINT", ObjID: 3, Tsc: 30},
		{Name: "NVME_IO_SUBMIT", ObjID: 4, Tsc: 40, Opc: trs.OpcRead},
		{Name: "NVME_IO_COMPLETE", ObjID: 4, Tsc: 50},
	}}
	var buf bytes.Buffer
	r := New(cursor, &buf)
	assert.NoError(t, r.Run())
	assert.Equal(t, 3, r.Discarded)
	assert.Equal(t, 2, r.Written)
}

func TestEpochAndLatencyComputation(t *testing.T) {
	cursor := &fakeCursor{events: []Event{
		{Name: "NVME_IO_SUBMIT", ObjID: 1, Tsc: 1000, Opc: trs.OpcRead},
		{Name: "NVME_IO_COMPLETE", ObjID: 1, Tsc: 1100},
	}}
	var buf bytes.Buffer
	r := New(cursor, &buf)
	assert.NoError(t, r.Run())

	rd := rdr.New(bytes.NewReader(buf.Bytes()), units.NativeEndian)
	recs, err := rdr.ReadAll(rd)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, uint64(0), recs[0].TscTimestamp)
	assert.Equal(t, uint64(100), recs[1].TscTimestamp)
	assert.Equal(t, uint64(100), recs[1].TscScTime)
	assert.Equal(t, uint64(0), recs[0].TscScTime)
}

func TestDebugDumpRoundTrip(t *testing.T) {
	cursor := &fakeCursor{events: []Event{
		{Name: "NVME_IO_SUBMIT", ObjID: 1, Tsc: 1000, Opc: trs.OpcRead},
		{Name: "NVME_IO_COMPLETE", ObjID: 1, Tsc: 1100},
	}}
	var buf bytes.Buffer
	r := New(cursor, &buf)
	assert.NoError(t, r.Run())

	var out bytes.Buffer
	assert.NoError(t, DebugDump(&out, bytes.NewReader(buf.Bytes()), units.NativeEndian))
	assert.Contains(t, out.String(), "NVME_IO_SUBMIT")
	assert.Contains(t, out.String(), "NVME_IO_COMPLETE")
}
