package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zverev/streamrunner/protocol"
)

// HookBus fans out lifecycle events to zero-or-more observers. Hooks
// fire synchronously on the driver; a panicking hook is recovered,
// logged, and suppressed. Registration is copy-on-write: a hook added
// after start takes effect on the next event.
type HookBus struct {
	prePoll    atomic.Pointer[[]func()]
	postCommit atomic.Pointer[[]func(int)]
	pause      atomic.Pointer[[]func(reason string, d time.Duration)]
	resume     atomic.Pointer[[]func()]
	fatal      atomic.Pointer[[]func(error)]
}

// NewHookBus builds an empty bus.
func NewHookBus() *HookBus {
	h := &HookBus{}
	h.prePoll.Store(&[]func(){})
	h.postCommit.Store(&[]func(int){})
	h.pause.Store(&[]func(string, time.Duration){})
	h.resume.Store(&[]func(){})
	h.fatal.Store(&[]func(error){})
	return h
}

func appendHook[T any](p *atomic.Pointer[[]T], f T) {
	for {
		old := p.Load()
		next := make([]T, len(*old)+1)
		copy(next, *old)
		next[len(*old)] = f
		if p.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (h *HookBus) OnPrePoll(f func())                               { appendHook(&h.prePoll, f) }
func (h *HookBus) OnPostCommit(f func(int))                         { appendHook(&h.postCommit, f) }
func (h *HookBus) OnPause(f func(reason string, d time.Duration))   { appendHook(&h.pause, f) }
func (h *HookBus) OnResume(f func())                                { appendHook(&h.resume, f) }
func (h *HookBus) OnFatal(f func(error))                            { appendHook(&h.fatal, f) }

func safeCall(ctx context.Context, log protocol.Logger, f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "hook panicked", "panic", r)
		}
	}()
	f()
}

func (h *HookBus) FirePrePoll(ctx context.Context, log protocol.Logger) {
	for _, f := range *h.prePoll.Load() {
		f := f
		safeCall(ctx, log, func() { f() })
	}
}

func (h *HookBus) FirePostCommit(ctx context.Context, log protocol.Logger, n int) {
	for _, f := range *h.postCommit.Load() {
		f := f
		safeCall(ctx, log, func() { f(n) })
	}
}

func (h *HookBus) FirePause(ctx context.Context, log protocol.Logger, reason string, d time.Duration) {
	for _, f := range *h.pause.Load() {
		f := f
		safeCall(ctx, log, func() { f(reason, d) })
	}
}

func (h *HookBus) FireResume(ctx context.Context, log protocol.Logger) {
	for _, f := range *h.resume.Load() {
		f := f
		safeCall(ctx, log, func() { f() })
	}
}

func (h *HookBus) FireFatal(ctx context.Context, log protocol.Logger, cause error) {
	for _, f := range *h.fatal.Load() {
		f := f
		safeCall(ctx, log, func() { f(cause) })
	}
}
