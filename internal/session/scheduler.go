package session

import "time"

// CancelFunc stops a scheduled task. Calling it after the task ran, or more
// than once, has no effect.
type CancelFunc func()

// Scheduler runs fn once after d.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules tasks with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
