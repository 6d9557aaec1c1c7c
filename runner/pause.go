package runner

import (
	"sync/atomic"
	"time"
)

// PauseState is a point-in-time snapshot of the Pause Controller.
// Invariant: Paused implies NextAttemptAfter is within [base, max].
type PauseState struct {
	Paused           bool
	Since            time.Time
	Attempt          int
	NextAttemptAfter time.Duration
	Reason           string
}

// PauseController holds an atomic pause descriptor with exponential
// backoff. Single-writer (the driver), read elsewhere via Snapshot.
type PauseController struct {
	base, max time.Duration
	clock     Clock

	state atomic.Pointer[PauseState]

	pausedHistory   atomic.Int64
	unpausedHistory atomic.Int64

	onPause  func(reason string, d time.Duration)
	onResume func()
}

// NewPauseController builds a controller starting in the non-paused
// state.
func NewPauseController(base, max time.Duration, clock Clock) *PauseController {
	pc := &PauseController{base: base, max: max, clock: clock}
	pc.state.Store(&PauseState{})
	return pc
}

// RequestPause sets paused=true, bumps the attempt counter, and
// computes the next backoff unless duration is explicitly given.
func (pc *PauseController) RequestPause(reason string, duration time.Duration) {
	prev := pc.state.Load()
	attempt := prev.Attempt + 1

	next := duration
	if next <= 0 {
		next = backoff(pc.base, pc.max, attempt-1)
	}
	if next > pc.max {
		next = pc.max
	}

	pc.state.Store(&PauseState{
		Paused:           true,
		Since:            pc.clock.Now(),
		Attempt:          attempt,
		NextAttemptAfter: next,
		Reason:           reason,
	})
	pc.pausedHistory.Add(1)

	if pc.onPause != nil {
		pc.onPause(reason, next)
	}
}

// backoff computes min(max, base*2^attempt), saturating rather than
// overflowing for large attempt counts.
func backoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 32 {
		return max
	}
	d := base * time.Duration(int64(1)<<uint(attempt))
	if d <= 0 || d > max {
		return max
	}
	return d
}

// TryResume flips paused->false and resets the attempt counter when now
// has reached since+nextAttemptAfter. Returns whether a transition
// happened.
func (pc *PauseController) TryResume(now time.Time) bool {
	s := pc.state.Load()
	if !s.Paused {
		return false
	}
	if now.Before(s.Since.Add(s.NextAttemptAfter)) {
		return false
	}

	pc.state.Store(&PauseState{})
	pc.unpausedHistory.Add(1)

	if pc.onResume != nil {
		pc.onResume()
	}
	return true
}

// NotifySuccess resets the backoff attempt counter after a batch with no
// pause request, so a later pause starts from the base delay again.
func (pc *PauseController) NotifySuccess() {
	s := pc.state.Load()
	if !s.Paused && s.Attempt != 0 {
		reset := *s
		reset.Attempt = 0
		pc.state.Store(&reset)
	}
}

// Snapshot returns the current PauseState.
func (pc *PauseController) Snapshot() PauseState {
	return *pc.state.Load()
}

func (pc *PauseController) PausedHistory() int64   { return pc.pausedHistory.Load() }
func (pc *PauseController) UnpausedHistory() int64 { return pc.unpausedHistory.Load() }
