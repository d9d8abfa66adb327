// Package clock reads the host wall clock.
package clock

import (
	"math"
	"time"

	"github.com/wippyai/wasync/hostcall"
)

// Now returns the time since the Unix epoch reported by the default host.
func Now() time.Duration {
	return NowWith(hostcall.Default())
}

// NowWith returns the time since the Unix epoch reported through ch.
// Negative or non-finite readings are reported as zero.
func NowWith(ch *hostcall.Channel) time.Duration {
	return fromSeconds(ch.SecondsNow())
}

// Time returns the host wall clock as a time.Time.
func Time() time.Time {
	return time.Unix(0, int64(Now()))
}

func fromSeconds(s float64) time.Duration {
	switch {
	case math.IsNaN(s) || s <= 0:
		return 0
	case s >= math.MaxInt64/float64(time.Second):
		return math.MaxInt64
	}
	return time.Duration(s * float64(time.Second))
}
