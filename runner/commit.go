package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// UnitCommitFunc commits the next-offsets map for one unit. The default
// implementation calls the broker client; tests substitute a failing
// one via the Runner's unit factory override point.
type UnitCommitFunc func(ctx context.Context, offsets map[PartitionID]int64) error

const (
	commitBackoffStart = 100 * time.Millisecond
	commitBackoffCap   = 2 * time.Second
)

// CommitEngine wraps a broker commit call with bounded retry on
// CommitTimeout and a single retry on any other error.
type CommitEngine struct {
	attempts int
	clock    Clock

	committed atomic.Int64
}

// NewCommitEngine builds a commit engine that escalates to Fatal once
// attempts commit calls have timed out (that is, attempts-1 retries on
// CommitTimeout).
func NewCommitEngine(attempts int, clock Clock) *CommitEngine {
	return &CommitEngine{attempts: attempts, clock: clock}
}

// NextOffsets computes, per partition in the unit, {partition ->
// max(offset)+1}.
func NextOffsets(unit ProcessUnit) map[PartitionID]int64 {
	offsets := make(map[PartitionID]int64)
	for _, r := range unit.Records {
		pid := r.PartitionOf()
		if next := r.Offset + 1; next > offsets[pid] {
			offsets[pid] = next
		}
	}
	return offsets
}

// Commit computes the unit's next-offsets map and commits it, retrying
// per the engine's policy. It never commits for a unit whose invocation
// did not return Ok; the caller is responsible for only calling Commit
// on an OutcomeOK unit.
func (ce *CommitEngine) Commit(ctx context.Context, unit ProcessUnit, commit UnitCommitFunc) error {
	offsets := NextOffsets(unit)

	backoff := commitBackoffStart
	timeoutAttempts := 0
	nonTimeoutRetried := false

	for {
		err := commit(ctx, offsets)
		if err == nil {
			ce.committed.Add(1)
			return nil
		}

		var timeoutErr *CommitTimeoutError
		if errors.As(err, &timeoutErr) {
			timeoutAttempts++
			if timeoutAttempts >= ce.attempts {
				return &FatalError{Cause: fmt.Errorf("commit timeout exhausted after %d attempts: %w", ce.attempts, err)}
			}
			if sleepErr := ce.clock.Sleep(ctx, backoff); sleepErr != nil {
				return &FatalError{Cause: sleepErr}
			}
			backoff *= 2
			if backoff > commitBackoffCap {
				backoff = commitBackoffCap
			}
			continue
		}

		if !nonTimeoutRetried {
			nonTimeoutRetried = true
			continue
		}
		return &FatalError{Cause: fmt.Errorf("commit failed after retry: %w", err)}
	}
}

// Committed returns the total number of units this engine has
// successfully committed.
func (ce *CommitEngine) Committed() int64 { return ce.committed.Load() }
