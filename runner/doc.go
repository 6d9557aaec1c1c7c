// Package runner drives a long-lived poll/process/commit loop against a
// partitioned, at-least-once log broker. It turns an asynchronous
// record handler into a supervised, backpressure-aware pipeline with
// explicit pause/resume, timeout-aware commit recovery, and two dispatch
// strategies (per-partition or whole-batch).
//
// A Runner owns a single broker client handle on its own driver
// goroutine; the user-supplied Processor runs on whatever execution
// context the caller's closures use. Results are marshaled back to the
// driver before the next unit is dispatched.
//
// Example:
//
//	r, err := runner.New(
//	    runner.WithBroker(brokerClient),
//	    runner.WithConfig(cfg),
//	    runner.WithProcessor(func(ctx context.Context, records []runner.Record) (runner.ProcessResult, error) {
//	        return runner.ProcessResult{ID: uuid.NewString(), Records: records}, nil
//	    }),
//	)
//	err = r.Start(ctx)
package runner
