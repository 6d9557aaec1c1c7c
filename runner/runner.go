package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zverev/streamrunner/pipeline"
	"github.com/zverev/streamrunner/protocol"
)

// idlePollYield is how long the driver sleeps after a poll returns no
// records or while paused, so an idle Runner does not busy-loop.
const idlePollYield = 50 * time.Millisecond

var instanceSeq atomic.Int64

// Runner owns the poll/process/commit loop against a BrokerClient. It
// is the supervisor component (C6): lifecycle, strategy, and hooks all
// live here, delegating to the Pause Controller, Commit Engine, Batch
// Dispatcher, and Process Invoker for their specific concerns.
//
// A Runner exclusively owns its broker client handle; every broker call
// happens on the single driver goroutine started by Start.
type Runner struct {
	instanceID int64

	mu   sync.Mutex
	life *fsm.FSM
	cfg  Config

	broker    BrokerClient
	clock     Clock
	log       protocol.Logger
	processor Processor

	unitFactory func(ProcessUnit) UnitCommitFunc

	pause        *PauseController
	hooks        *HookBus
	invoker      *ProcessInvoker
	commitEngine *CommitEngine

	exitFunc func(error)

	runningFlag atomic.Bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopClosed  bool
	cancel      context.CancelFunc

	postCommitCount atomic.Int64
}

// New builds a Runner. Options are applied in order over a baseline
// (NopLogger, real clock, os.Exit-based exit func); WithConfig/WithBroker
// /WithProcessor are typically required before Start will succeed.
func New(options ...Option) (*Runner, error) {
	r := &Runner{
		instanceID: instanceSeq.Add(1),
		life:       newLifecycleFSM(),
		hooks:      NewHookBus(),
		exitFunc: func(err error) {
			os.Exit(1)
		},
	}

	for _, option := range append(defaultOptions(), options...) {
		if err := option(r); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	if r.unitFactory == nil {
		r.unitFactory = r.defaultUnitFactory
	}

	return r, nil
}

// Configure validates cfg, fills its zero-valued numeric defaults, and
// stores it. Fails with *InvalidConfigError when a required field is
// missing; the Runner's lifecycle state is left unchanged on failure.
func (r *Runner) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.withZeroValueDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = cfg
	r.pause = NewPauseController(cfg.PauseBase, cfg.PauseMax, r.effectiveClock())
	r.pause.onPause = func(reason string, d time.Duration) {
		r.hooks.FirePause(context.Background(), r.log, reason, d)
	}
	r.pause.onResume = func() {
		r.hooks.FireResume(context.Background(), r.log)
	}
	r.invoker = NewProcessInvoker(r.effectiveClock(), r.effectiveLogger(), cfg.DelaySingleRecord, InvokeTimeout(cfg.PollTimeout), cfg.OnUnknownHandlerFailure)
	r.commitEngine = NewCommitEngine(cfg.CommitAttempts, r.effectiveClock())

	if r.life.Can(eventConfigure) {
		_ = r.life.Event(eventConfigure)
	}
	return nil
}

func (r *Runner) effectiveClock() Clock {
	if r.clock != nil {
		return r.clock
	}
	return realClock{}
}

func (r *Runner) effectiveLogger() protocol.Logger {
	if r.log != nil {
		return r.log
	}
	return protocol.NopLogger{}
}

// Start performs an idempotent transition to Running. It fails fast
// with *InvalidConfigError if the config is incomplete, transitioning
// the Runner straight to Stopped; Running() observes false in that
// case. On success it spawns the driver goroutine and returns
// immediately.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	cfg := r.cfg
	current := r.life.Current()
	r.mu.Unlock()

	if current == StateRunning {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		r.mu.Lock()
		if r.life.Can(eventFail) {
			_ = r.life.Event(eventFail)
		}
		r.mu.Unlock()
		r.runningFlag.Store(false)
		r.effectiveLogger().Error(ctx, "invalid configuration, runner will not start", "err", err, "runner_instance", r.instanceID)
		return &InvalidConfigError{Msg: err.Error()}
	}

	if r.broker == nil {
		return &InvalidConfigError{Msg: "broker client not configured"}
	}

	r.mu.Lock()
	if !r.life.Can(eventStart) {
		r.mu.Unlock()
		return nil
	}
	if err := r.life.Event(eventStart); err != nil {
		r.mu.Unlock()
		return errors.Wrap(err, "lifecycle transition")
	}
	driverCtx, cancel := context.WithCancel(context.Background())
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.stopClosed = false
	r.cancel = cancel
	r.mu.Unlock()

	if err := r.broker.Subscribe(cfg.Topics); err != nil {
		r.mu.Lock()
		if r.life.Can(eventFail) {
			_ = r.life.Event(eventFail)
		}
		r.mu.Unlock()
		cancel()
		return errors.Wrap(err, "subscribe")
	}

	r.runningFlag.Store(true)
	go r.driverLoop(driverCtx)
	return nil
}

// Stop cooperatively shuts the Runner down and waits for the driver to
// release the broker handle. Idempotent: a second call while already
// stopped (or stopping) is a no-op that returns once the first call's
// shutdown has completed. Cancelling the driver's context immediately
// interrupts every cancellation-aware sleep (idle poll yield,
// DelayRecords, DelaySingleRecord, commit backoff) instead of letting
// them run to completion.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	stopCh := r.stopCh
	doneCh := r.doneCh
	cancel := r.cancel
	if stopCh != nil && !r.stopClosed {
		close(stopCh)
		r.stopClosed = true
	}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if doneCh == nil {
		return nil
	}

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the driver loop is currently active.
func (r *Runner) Running() bool { return r.runningFlag.Load() }

func (r *Runner) PausedHistory() int64 {
	if r.pause == nil {
		return 0
	}
	return r.pause.PausedHistory()
}

func (r *Runner) UnpausedHistory() int64 {
	if r.pause == nil {
		return 0
	}
	return r.pause.UnpausedHistory()
}

func (r *Runner) PostCommitCount() int64 { return r.postCommitCount.Load() }

// String satisfies fmt.Stringer so a Runner can be registered as an
// application.Component under its configured Name (or a generated
// instance label if Name is empty).
func (r *Runner) String() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return fmt.Sprintf("runner-%d", r.instanceID)
}

// AsComponent returns the Runner itself under the given name, so it can
// be registered directly with application.WithComponents alongside a
// producer or any other protocol.Lifecycle component. A Runner already
// satisfies fmt.Stringer and protocol.Lifecycle; this only exists to
// let a caller override the label String() would otherwise derive from
// Config.Name or the instance counter.
func (r *Runner) AsComponent(name string) *Runner {
	r.mu.Lock()
	r.cfg.Name = name
	r.mu.Unlock()
	return r
}

func (r *Runner) OnPrePoll(f func())                              { r.hooks.OnPrePoll(f) }
func (r *Runner) OnPostCommit(f func(int))                         { r.hooks.OnPostCommit(f) }
func (r *Runner) OnPause(f func(reason string, d time.Duration))   { r.hooks.OnPause(f) }
func (r *Runner) OnResume(f func())                                { r.hooks.OnResume(f) }
func (r *Runner) OnFatal(f func(error))                            { r.hooks.OnFatal(f) }

func (r *Runner) defaultUnitFactory(unit ProcessUnit) UnitCommitFunc {
	return func(ctx context.Context, offsets map[PartitionID]int64) error {
		return r.broker.CommitOffsets(ctx, offsets)
	}
}

// driverLoop is the single driver goroutine: it owns every broker call
// and decides poll vs paused-poll, dispatch, invoke, commit, and hook
// firing for as long as the Runner stays Running. ctx is cancelled by
// Stop, so every cancellation-aware sleep downstream (idle poll yield,
// DelayRecords, DelaySingleRecord, commit backoff) unblocks promptly
// instead of running to completion.
func (r *Runner) driverLoop(ctx context.Context) {
	defer close(r.doneCh)
	defer r.runningFlag.Store(false)

	for {
		select {
		case <-r.stopCh:
			r.shutdown(ctx)
			return
		default:
		}

		now := r.clock.Now()
		snap := r.pause.Snapshot()

		if snap.Paused && now.Before(snap.Since.Add(snap.NextAttemptAfter)) {
			// Paused poll: keep the broker session alive without
			// surfacing records.
			_, _ = r.broker.Poll(ctx, 0)
			if err := r.clock.Sleep(ctx, idlePollYield); err != nil {
				r.shutdown(ctx)
				return
			}
			continue
		}

		if snap.Paused && r.pause.TryResume(now) {
			r.broker.ResumeFetchPartitions(topicPartitionMap(r.broker.Assignment()))
		}

		if !r.runOnePoll(ctx) {
			return
		}
	}
}

// topicPartitionMap groups an assignment set into the topic->partitions
// shape the broker's pause/resume calls expect.
func topicPartitionMap(assignment map[PartitionID]struct{}) map[string][]int32 {
	out := make(map[string][]int32)
	for pid := range assignment {
		out[pid.Topic] = append(out[pid.Topic], pid.Partition)
	}
	return out
}

// runOnePoll performs one iteration's poll-dispatch-process-commit
// cycle. It returns false if the driver should stop.
func (r *Runner) runOnePoll(ctx context.Context) bool {
	r.hooks.FirePrePoll(ctx, r.log)

	var batch PollBatch
	var pollErr error

	pipeline.New(ctx, func(context.Context) error {
		b, err := r.broker.Poll(ctx, r.cfg.PollTimeout)
		batch = b
		return err
	}).ThenCatch(func(err error) error {
		r.log.Error(ctx, "poll failed", "err", err, "runner_instance", r.instanceID)
		pollErr = err
		return nil
	}).Run(func(error) {})

	if pollErr != nil {
		if sleepErr := r.clock.Sleep(ctx, idlePollYield); sleepErr != nil {
			r.shutdown(ctx)
			return false
		}
		return true
	}

	if len(batch.Records) == 0 {
		if err := r.clock.Sleep(ctx, idlePollYield); err != nil {
			r.shutdown(ctx)
			return false
		}
		return true
	}

	if err := r.decodeBatch(&batch); err != nil {
		r.handleFatal(ctx, err)
		return false
	}

	if r.cfg.DelayRecords > 0 {
		if err := r.clock.Sleep(ctx, r.cfg.DelayRecords); err != nil {
			r.shutdown(ctx)
			return false
		}
	}

	units := Dispatch(batch, r.cfg.Strategy)
	committed, fatal := r.processUnits(ctx, units)
	if fatal {
		// handleFatal already closed the broker, fired onFatal, and
		// moved the lifecycle to Stopped; no further hooks may fire
		// per §7, and the driver must not poll the now-closed broker
		// again.
		return false
	}

	if len(units) > 0 {
		r.hooks.FirePostCommit(ctx, r.log, committed)
		r.postCommitCount.Add(int64(committed))
	}

	return true
}

// processUnits invokes each unit in order, committing on success and
// aborting the remainder of the batch on pause or fatal. It returns the
// number of units committed in this pass and whether a Fatal outcome
// (from the Process Invoker or an escalated Commit Engine error)
// stopped the batch early; the caller must not fire onPostCommit or
// keep polling when fatal is true.
//
// When Config.ParallelUnits is set, units are invoked concurrently via
// an errgroup.Group (the partitions behind OnePerPartition units are
// independent, so concurrent invocation is safe); commit order still
// follows unit order, and the first non-OK outcome in that order wins
// even if a later unit's invocation happened to finish first.
func (r *Runner) processUnits(ctx context.Context, units []ProcessUnit) (committed int, fatal bool) {
	outcomes := r.invokeUnits(ctx, units)

	for i, unit := range units {
		select {
		case <-r.stopCh:
			return committed, false
		default:
		}

		outcome := outcomes[i]

		switch outcome.Kind {
		case OutcomeOK:
			commitFn := r.unitFactory(unit)
			if err := r.commitEngine.Commit(ctx, unit, commitFn); err != nil {
				var fatalErr *FatalError
				if stderrors.As(err, &fatalErr) {
					r.handleFatal(ctx, fatalErr.Cause)
				} else {
					r.handleFatal(ctx, err)
				}
				return committed, true
			}
			r.pause.NotifySuccess()
			committed++

		case OutcomeNeedForPause:
			r.pause.RequestPause(outcome.Reason, outcome.Pause)
			r.broker.PauseFetchPartitions(topicPartitionMap(r.broker.Assignment()))
			return committed, false

		case OutcomeFatal:
			r.handleFatal(ctx, outcome.Err)
			return committed, true
		}
	}

	return committed, false
}

// invokeUnits runs the Process Invoker over every unit, sequentially by
// default or concurrently when Config.ParallelUnits is set, and returns
// outcomes aligned to units by index regardless of completion order.
func (r *Runner) invokeUnits(ctx context.Context, units []ProcessUnit) []Outcome {
	outcomes := make([]Outcome, len(units))

	if !r.cfg.ParallelUnits || len(units) < 2 {
		for i, unit := range units {
			outcomes[i] = r.invoker.Invoke(ctx, r.processor, unit)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			outcomes[i] = r.invoker.Invoke(gctx, r.processor, unit)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *Runner) decodeBatch(batch *PollBatch) error {
	for i := range batch.Records {
		rec := &batch.Records[i]
		if r.cfg.KeyDeserializer != nil {
			k, err := r.cfg.KeyDeserializer(rec.Key)
			if err != nil {
				return fmt.Errorf("decode key: %w", err)
			}
			rec.DecodedKey = k
		}
		if r.cfg.ValueDeserializer != nil {
			v, err := r.cfg.ValueDeserializer(rec.Value)
			if err != nil {
				return fmt.Errorf("decode value: %w", err)
			}
			rec.DecodedValue = v
		}
	}
	return nil
}

func (r *Runner) handleFatal(ctx context.Context, cause error) {
	r.mu.Lock()
	if r.life.Can(eventFail) {
		_ = r.life.Event(eventFail)
	}
	r.mu.Unlock()

	r.log.Error(ctx, "fatal error, stopping runner", "err", cause, "runner_instance", r.instanceID)
	r.hooks.FireFatal(ctx, r.log, cause)

	if r.broker != nil {
		if err := r.broker.Close(); err != nil {
			r.log.Error(ctx, "error closing broker client after fatal", "err", err)
		}
	}
	r.runningFlag.Store(false)

	if r.cfg.ForceExit && r.exitFunc != nil {
		r.exitFunc(cause)
	}
}

// shutdown transitions Stopping->Stopped and releases the broker
// handle. Safe to call once the driver has decided to exit.
func (r *Runner) shutdown(ctx context.Context) {
	r.mu.Lock()
	if r.life.Current() == StateStopped {
		r.mu.Unlock()
		return
	}
	if r.life.Can(eventStop) {
		_ = r.life.Event(eventStop)
	}
	r.mu.Unlock()

	if r.broker != nil {
		if err := r.broker.Close(); err != nil {
			r.log.Error(ctx, "error closing broker client", "err", err, "runner_instance", r.instanceID)
		}
	}

	r.mu.Lock()
	if r.life.Can(eventStopped) {
		_ = r.life.Event(eventStopped)
	}
	r.mu.Unlock()
}
