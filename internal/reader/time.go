package reader

import "time"

// processStart anchors every event's monotonic When to process start,
// matching the source's "systemTime()" semantics closely enough for this
// module's purposes: non-decreasing, nanosecond resolution, never
// compared across process restarts.
var processStart = time.Now()

func monotonicNow() time.Duration {
	return time.Since(processStart)
}
