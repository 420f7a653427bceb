package reader

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LinJ0/TraceIO/trs"
)

func packRecords(t *testing.T, recs []trs.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	for i := range recs {
		data, err := trs.Pack(&recs[i], binary.LittleEndian)
		assert.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestReadAllRoundTrip(t *testing.T) {
	recs := []trs.Record{
		{ObjID: 1, Opc: trs.OpcRead},
		{ObjID: 2, Opc: trs.OpcWrite},
	}
	data := packRecords(t, recs)

	rd := New(bytes.NewReader(data), binary.LittleEndian)
	got, err := ReadAll(rd)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ObjID)
	assert.Equal(t, uint64(2), got[1].ObjID)
}

func TestEmptyFile(t *testing.T) {
	rd := New(bytes.NewReader(nil), binary.LittleEndian)
	_, err := rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTruncatedMidRecord(t *testing.T) {
	recs := []trs.Record{{ObjID: 1}}
	data := packRecords(t, recs)
	truncated := data[:len(data)-1]

	rd := New(bytes.NewReader(truncated), binary.LittleEndian)
	_, err := rd.Next()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestManyRecordsAcrossChunks(t *testing.T) {
	recs := make([]trs.Record, defaultChunk+5)
	for i := range recs {
		recs[i].ObjID = uint64(i)
	}
	data := packRecords(t, recs)

	rd := New(bytes.NewReader(data), binary.LittleEndian)
	got, err := ReadAll(rd)
	assert.NoError(t, err)
	assert.Len(t, got, len(recs))
	assert.Equal(t, uint64(len(recs)-1), got[len(got)-1].ObjID)
}
