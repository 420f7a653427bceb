package trs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordSize(t *testing.T) {
	// 4 + 8*4 + 32 + 2*2 + 4*2 + 4*4 = 4+32+32+4+8+16 = 96
	assert.Equal(t, 96, Size)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	r := &Record{
		Lcore:        1,
		TscRate:      2_400_000_000,
		TscTimestamp: 1234,
		ObjID:        0xdeadbeef,
		TscScTime:    0,
		Opc:          OpcRead,
		Cid:          7,
		Nsid:         1,
		Cdw10:        0x1000,
		Cdw11:        0,
		Cdw12:        7,
	}
	r.SetTpointName(TpointSubmit)

	data, err := Pack(r, binary.LittleEndian)
	assert.NoError(t, err)
	assert.Len(t, data, Size)

	got, err := Unpack(data, binary.LittleEndian)
	assert.NoError(t, err)
	assert.Equal(t, r.ObjID, got.ObjID)
	assert.Equal(t, r.Cdw10, got.Cdw10)
	assert.Equal(t, TpointSubmitEvent, got.Tpoint())
}

func TestUnpackShort(t *testing.T) {
	_, err := Unpack(make([]byte, Size-1), binary.LittleEndian)
	assert.Error(t, err)
}

func TestDecodeReadLikeOpcode(t *testing.T) {
	r := &Record{Opc: OpcWrite, Cdw10: 0x100, Cdw11: 0x1, Cdw12: 7}
	d := Decode(r)
	assert.Equal(t, (uint64(1)<<32)|0x100, d.Slba)
	assert.Equal(t, uint32(8), d.Nlb)
}

func TestDecodeZoneMgmtSend(t *testing.T) {
	r := &Record{Opc: OpcZoneMgmtSend, Cdw13: uint32(ZsaOpen) | (1 << 8)}
	d := Decode(r)
	assert.Equal(t, uint8(ZsaOpen), d.Zsa)
	assert.True(t, d.SelectAll)
}

func TestClassifyUnknownOpcode(t *testing.T) {
	info := Classify(0xFE)
	assert.Equal(t, ClassUnknown, info.Class)
}
