package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zverev/streamrunner/runner"
	"github.com/zverev/streamrunner/streamtest"
)

func unitFor(records ...runner.Record) runner.ProcessUnit {
	return runner.ProcessUnit{Records: records}
}

func TestNextOffsetsTakesMaxPlusOnePerPartition(t *testing.T) {
	p0 := runner.PartitionID{Topic: "t", Partition: 0}
	p1 := runner.PartitionID{Topic: "t", Partition: 1}

	unit := unitFor(
		runner.Record{Topic: "t", Partition: 0, Offset: 3},
		runner.Record{Topic: "t", Partition: 0, Offset: 7},
		runner.Record{Topic: "t", Partition: 1, Offset: 1},
	)

	offsets := runner.NextOffsets(unit)
	assert.Equal(t, int64(8), offsets[p0])
	assert.Equal(t, int64(2), offsets[p1])
}

// TestCommitEngineTimeoutThenSuccess covers S4: two CommitTimeouts
// followed by success — three calls total, one committed unit.
func TestCommitEngineTimeoutThenSuccess(t *testing.T) {
	clock := streamtest.NewFakeClock(time.Unix(0, 0))
	ce := runner.NewCommitEngine(3, clock)

	calls := 0
	commitFn := func(ctx context.Context, offsets map[runner.PartitionID]int64) error {
		calls++
		if calls <= 2 {
			return &runner.CommitTimeoutError{Cause: errors.New("broker slow")}
		}
		return nil
	}

	err := ce.Commit(context.Background(), unitFor(runner.Record{Topic: "t", Partition: 0, Offset: 1}), commitFn)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(1), ce.Committed())
}

// TestCommitEngineTimeoutThenOtherError covers S5: two CommitTimeouts
// then a different error — the engine retries once more on the
// non-timeout error before escalating to Fatal, so four calls total.
func TestCommitEngineTimeoutThenOtherError(t *testing.T) {
	clock := streamtest.NewFakeClock(time.Unix(0, 0))
	ce := runner.NewCommitEngine(3, clock)

	calls := 0
	commitFn := func(ctx context.Context, offsets map[runner.PartitionID]int64) error {
		calls++
		switch calls {
		case 1, 2:
			return &runner.CommitTimeoutError{Cause: errors.New("broker slow")}
		default:
			return errors.New("broker rejected offsets")
		}
	}

	err := ce.Commit(context.Background(), unitFor(runner.Record{Topic: "t", Partition: 0, Offset: 1}), commitFn)
	require.Error(t, err)

	var fatal *runner.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 4, calls)
	assert.Equal(t, int64(0), ce.Committed())
}

func TestCommitEngineExhaustsTimeoutBudget(t *testing.T) {
	clock := streamtest.NewFakeClock(time.Unix(0, 0))
	ce := runner.NewCommitEngine(2, clock)

	calls := 0
	commitFn := func(ctx context.Context, offsets map[runner.PartitionID]int64) error {
		calls++
		return &runner.CommitTimeoutError{Cause: errors.New("broker slow")}
	}

	err := ce.Commit(context.Background(), unitFor(runner.Record{Topic: "t", Partition: 0, Offset: 1}), commitFn)
	require.Error(t, err)
	var fatal *runner.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 2, calls)
}
