package common

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

var (
	// spawned counts every background task started via SafeGo
	spawned int64
	// running counts background tasks that have not returned yet
	running int64
)

// GetGoroutineCount returns the number of background tasks started via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&spawned)
}

// GetRunningCount returns the number of SafeGo tasks still in flight
// (detached exports and event deliveries)
func GetRunningCount() int64 {
	return atomic.LoadInt64(&running)
}

// SafeGo runs fn in a goroutine. A panic is logged with its stack and
// swallowed so a failing export or subscriber cannot take the server down.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&spawned, 1)
	atomic.AddInt64(&running, 1)

	go func() {
		defer atomic.AddInt64(&running, -1)
		defer recoverTask(logger, name)
		fn()
	}()
}

func recoverTask(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	if logger == nil {
		fmt.Fprintf(os.Stderr, "PANIC in task %s: %v\n%s\n", name, r, buf[:n])
		return
	}
	logger.Error().
		Str("task", name).
		Str("panic", fmt.Sprintf("%v", r)).
		Str("stack", string(buf[:n])).
		Msg("Recovered from panic in background task")
}
