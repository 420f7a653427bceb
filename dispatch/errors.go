package dispatch

import "github.com/pkg/errors"

// Error kinds the dispatcher defines. Argument validation happens before a
// replay starts (cmd/ and workloadgen.Options.Validate). Besides the kinds
// below, Replay returns stream-read, reset-all, DMA-allocation and fatal
// submission failures as wrapped errors.
var (
	// ErrDeviceLost: probe returned no controllers, or the device
	// disappeared mid-run — fatal to replay.
	ErrDeviceLost = errors.New("dispatch: device lost")

	// ErrMalformedTrace: unknown opcode, zero nlb, or out-of-range LBA in a
	// SUBMIT record. The record is skipped and counted; replay continues.
	ErrMalformedTrace = errors.New("dispatch: malformed trace record")
)

// IsResourceExhausted reports whether err is the driver's transient
// "no submission slot" signal — handled by polling once and retrying,
// never surfaced to the caller.
func IsResourceExhausted(err error) bool {
	type resourceExhausted interface{ ResourceExhausted() bool }
	re, ok := errors.Cause(err).(resourceExhausted)
	return ok && re.ResourceExhausted()
}

// IsDeviceLost reports whether err is the driver's "attachment dropped"
// signal.
func IsDeviceLost(err error) bool {
	type deviceLost interface{ DeviceLost() bool }
	dl, ok := errors.Cause(err).(deviceLost)
	return ok && dl.DeviceLost()
}

// isMalformed reports whether err is (or wraps) ErrMalformedTrace.
func isMalformed(err error) bool {
	return errors.Cause(err) == ErrMalformedTrace
}
