// Package timing holds the arithmetic shared by the production and merge timers.
package timing

import "time"

// CeilMinutes rounds a remaining duration up to whole minutes. Non-positive durations are 0.
func CeilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return (ms + 59999) / 60000
}

// CeilSeconds rounds a remaining duration up to whole seconds.
func CeilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// Remaining is the time left until deadline, never negative.
func Remaining(now, deadline time.Time) time.Duration {
	if !now.Before(deadline) {
		return 0
	}
	return deadline.Sub(now)
}

// Progress computes initial + floor(elapsed/wait * (100-initial)), clamped to [initial, 100].
func Progress(initial int, elapsed, wait time.Duration) int {
	if initial >= 100 || wait <= 0 || elapsed >= wait {
		return 100
	}
	if elapsed <= 0 {
		return initial
	}
	gained := int64(elapsed) * int64(100-initial) / int64(wait)
	p := initial + int(gained)
	if p > 100 {
		return 100
	}
	return p
}
