package roadrage

import "time"

// CancelFunc stops a scheduled action. It reports false when the action has
// already fired or was already cancelled.
type CancelFunc func() bool

// Scheduler runs f once after d without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) CancelFunc
}

// TimerScheduler schedules on the runtime timer heap.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) CancelFunc {
	return time.AfterFunc(d, f).Stop
}
