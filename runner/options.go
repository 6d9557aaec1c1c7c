package runner

import (
	"errors"

	"github.com/zverev/streamrunner/protocol"
)

// Option configures a Runner during New.
type Option func(*Runner) error

func defaultOptions() []Option {
	return []Option{
		WithLogger(protocol.NopLogger{}),
		WithClock(realClock{}),
	}
}

// WithLogger sets the Runner's logger. Defaults to a no-op logger.
func WithLogger(log protocol.Logger) Option {
	return func(r *Runner) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}
		r.log = log
		return nil
	}
}

// WithClock overrides the Clock used for timing and sleeps. Tests
// inject a fake clock to drive pause/backoff without real delay.
func WithClock(c Clock) Option {
	return func(r *Runner) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		r.clock = c
		return nil
	}
}

// WithBroker sets the broker client the Runner's driver will poll,
// commit against, and pause/resume.
func WithBroker(b BrokerClient) Option {
	return func(r *Runner) error {
		if b == nil {
			return errors.New("broker cannot be nil")
		}
		r.broker = b
		return nil
	}
}

// WithProcessor sets the user record handler.
func WithProcessor(p Processor) Option {
	return func(r *Runner) error {
		if p == nil {
			return errors.New("processor cannot be nil")
		}
		r.processor = p
		return nil
	}
}

// WithUnitFactory overrides how a unit's commit action is built. The
// default factory commits through the broker client; tests substitute
// one that fails on demand to exercise the Commit Engine's retry path.
func WithUnitFactory(f func(ProcessUnit) UnitCommitFunc) Option {
	return func(r *Runner) error {
		if f == nil {
			return errors.New("unit factory cannot be nil")
		}
		r.unitFactory = f
		return nil
	}
}

// WithConfig validates and stores cfg, filling zero-valued
// numeric/duration fields from DefaultConfig. Equivalent to calling
// Configure(cfg) after New.
func WithConfig(cfg Config) Option {
	return func(r *Runner) error {
		return r.Configure(cfg)
	}
}

// WithExitFunc overrides what "signal host exit" means on a Fatal
// outcome when Config.ForceExit is true. Defaults to os.Exit(1); tests
// inject a function that records the call instead.
func WithExitFunc(f func(error)) Option {
	return func(r *Runner) error {
		if f == nil {
			return errors.New("exit func cannot be nil")
		}
		r.exitFunc = f
		return nil
	}
}
