package store

import "time"

// Timestamps are stored as INTEGER Unix nanoseconds so ordering and
// round-trips are exact.

func encodeTime(t time.Time) int64 {
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeBool(b bool) int {
	if b {
		return 1
	}
	return 0
}
