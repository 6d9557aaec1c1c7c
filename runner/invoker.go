package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zverev/streamrunner/protocol"
)

// Processor is the user override point: given the records of one unit,
// produce a ProcessResult or fail. A failure that is a *NeedForPauseError
// requests cooperative pause; a *FatalError stops the Runner; anything
// else is classified per Config.OnUnknownHandlerFailure.
type Processor func(ctx context.Context, records []Record) (ProcessResult, error)

// OutcomeKind classifies what a Process Invoker call resulted in.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeNeedForPause
	OutcomeFatal
)

// Outcome is the Process Invoker's classification of one unit
// invocation.
type Outcome struct {
	Kind   OutcomeKind
	Result ProcessResult
	Reason string
	Pause  time.Duration
	Err    error
}

// ProcessInvoker calls the user Processor, awaits it with an internal
// timeout, and classifies the result.
type ProcessInvoker struct {
	clock             Clock
	log               protocol.Logger
	delaySingleRecord time.Duration
	invokeTimeout     time.Duration
	onUnknown         OnUnknownHandlerFailure
}

// NewProcessInvoker builds an invoker bound to one Runner's
// configuration. invokeTimeout should be max(pollTimeout*5, 30s) per the
// Process Invoker contract.
func NewProcessInvoker(clock Clock, log protocol.Logger, delaySingleRecord, invokeTimeout time.Duration, onUnknown OnUnknownHandlerFailure) *ProcessInvoker {
	return &ProcessInvoker{
		clock:             clock,
		log:               log,
		delaySingleRecord: delaySingleRecord,
		invokeTimeout:     invokeTimeout,
		onUnknown:         onUnknown,
	}
}

// InvokeTimeout returns max(pollTimeout*5, 30s), the bound the spec
// requires for awaiting a Processor's completion.
func InvokeTimeout(pollTimeout time.Duration) time.Duration {
	t := pollTimeout * 5
	if t < 30*time.Second {
		t = 30 * time.Second
	}
	return t
}

type invokeResult struct {
	result ProcessResult
	err    error
}

// Invoke calls proc on unit.Records, enforcing per-record throttling and
// the invoker's timeout, and classifies the outcome.
func (pi *ProcessInvoker) Invoke(ctx context.Context, proc Processor, unit ProcessUnit) Outcome {
	if pi.delaySingleRecord > 0 {
		for range unit.Records {
			if err := pi.clock.Sleep(ctx, pi.delaySingleRecord); err != nil {
				return Outcome{Kind: OutcomeFatal, Err: err}
			}
		}
	}

	resultCh := make(chan invokeResult, 1)
	go func() {
		res, err := proc(ctx, unit.Records)
		resultCh <- invokeResult{res, err}
	}()

	timer := time.NewTimer(pi.invokeTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Outcome{Kind: OutcomeFatal, Err: ctx.Err()}
	case <-timer.C:
		return Outcome{Kind: OutcomeNeedForPause, Reason: "process invocation timed out"}
	case r := <-resultCh:
		return pi.classify(ctx, unit, r)
	}
}

func (pi *ProcessInvoker) classify(ctx context.Context, unit ProcessUnit, r invokeResult) Outcome {
	if r.err == nil {
		if len(r.result.Records) != len(unit.Records) {
			pi.log.Warn(ctx, "processor result record count differs from unit, using unit records for commit",
				"unit_index", unit.Index,
				"result_records", len(r.result.Records),
				"unit_records", len(unit.Records))
		}
		return Outcome{Kind: OutcomeOK, Result: ProcessResult{ID: r.result.ID, Records: unit.Records}}
	}

	var needPause *NeedForPauseError
	var fatal *FatalError
	switch {
	case errors.As(r.err, &needPause):
		return Outcome{Kind: OutcomeNeedForPause, Reason: needPause.Reason, Pause: needPause.Duration}
	case errors.As(r.err, &fatal):
		return Outcome{Kind: OutcomeFatal, Err: fatal.Cause}
	default:
		if pi.onUnknown == FailFatal {
			return Outcome{Kind: OutcomeFatal, Err: r.err}
		}
		return Outcome{
			Kind:   OutcomeNeedForPause,
			Reason: fmt.Sprintf("transient handler failure: %v", r.err),
		}
	}
}
