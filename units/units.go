// Package units collects the small numeric helpers the rest of the tree
// shares for talking about request sizes and device capacities: bucketing
// a command's block count for the analyzer's histogram, rendering a
// namespace's sector-addressed capacity in human terms, and picking the
// byte order a local recorder/reader pair should agree on.
package units

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"unsafe"
)

// NativeEndian is the byte order of the host this binary runs on. TRS files
// are not required to be portable across producer/consumer architectures,
// so recorder and reader both default to whatever order the local machine
// uses.
var NativeEndian binary.ByteOrder

func init() {
	i := uint32(1)
	b := (*[4]byte)(unsafe.Pointer(&i))
	if b[0] == 1 {
		NativeEndian = binary.LittleEndian
	} else {
		NativeEndian = binary.BigEndian
	}
}

// RequestSizeBucket returns the analyzer's histogram bucket for a command
// transferring nlb blocks: the index of the highest set bit, so 1-block and
// 2-block requests land in distinct buckets from 1M-block ones without a
// linear-size table.
func RequestSizeBucket(nlb uint32) int {
	if nlb == 0 {
		return 0
	}
	return bits.Len32(nlb) - 1
}

// FormatCapacity renders a namespace's addressable capacity (numSectors
// sectors of sectorSize bytes each) as a human-readable byte quantity, the
// way replayer and analyzer report a namespace's size in their summaries.
func FormatCapacity(numSectors uint64, sectorSize uint32) string {
	v := numSectors * uint64(sectorSize)
	var i int

	suffixes := [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	d := uint64(1)

	for i = 0; i < len(suffixes)-1; i++ {
		if v >= d*1000 {
			d *= 1000
		} else {
			break
		}
	}

	if i == 0 {
		return fmt.Sprintf("%d %s", v, suffixes[i])
	}
	return fmt.Sprintf("%.3g %s", float64(v)/float64(d), suffixes[i])
}
