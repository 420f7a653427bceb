// Package tsc provides the monotonic tick source the dispatcher uses, in
// place of a hardware Time Stamp Counter, to time a replay run:
// CLOCK_MONOTONIC ticks at a fixed, reported rate.
package tsc

import (
	"time"

	"golang.org/x/sys/unix"
)

// rate is the tick rate Rate reports: one tick per nanosecond, so Now()
// values are directly comparable to wall time.
const rate = uint64(time.Second)

// Rate returns the invariant ticks-per-second for this process, which
// callers divide a Now() difference by to get seconds.
func Rate() uint64 {
	return rate
}

// Now returns the current tick count, taken from CLOCK_MONOTONIC so it never
// runs backward across a recording or replay session.
func Now() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// CLOCK_MONOTONIC is always available on Linux; a failure here means
		// the kernel ABI assumption this package makes no longer holds.
		panic(err)
	}
	return uint64(ts.Sec)*rate + uint64(ts.Nsec)
}
