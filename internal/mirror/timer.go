// Package mirror is the client side of the timer protocol. It predicts when a server
// call is worth making; the server stays authoritative for every state change.
package mirror

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"game-service/internal/clock"
	"game-service/internal/timing"
)

type countdown struct {
	startedAt time.Time
	wait      time.Duration
	initial   int
}

// Timer holds local countdowns keyed by BuildingKey or MergeKey.
type Timer struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]countdown
}

func NewTimer(clk clock.Clock) *Timer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Timer{clock: clk, entries: make(map[string]countdown)}
}

func BuildingKey(userID string) string {
	return "building:" + userID
}

// MergeKey is the same for (a, b) and (b, a).
func MergeKey(userID string, a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if second < first {
		first, second = second, first
	}
	return fmt.Sprintf("merge:%s:%s:%s", userID, first, second)
}

// Start (re)starts a countdown from now, replacing any previous one for key.
func (t *Timer) Start(key string, wait time.Duration, initialProgress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = countdown{startedAt: t.clock.Now(), wait: wait, initial: initialProgress}
}

// Remaining is the predicted time left. ok is false when nothing is tracked for key.
func (t *Timer) Remaining(key string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return 0, false
	}
	return timing.Remaining(t.clock.Now(), e.startedAt.Add(e.wait)), true
}

// Progress predicts the percentage. A zero-wait countdown keeps the progress the server
// last reported.
func (t *Timer) Progress(key string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return 0, false
	}
	if e.wait <= 0 {
		return e.initial, true
	}
	return timing.Progress(e.initial, t.clock.Now().Sub(e.startedAt), e.wait), true
}

// LikelyReady is a hint for when to call the server, never a completion.
func (t *Timer) LikelyReady(key string) bool {
	remaining, ok := t.Remaining(key)
	return ok && remaining == 0
}

func (t *Timer) Stop(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

func (t *Timer) Tracking(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[key]
	return ok
}
