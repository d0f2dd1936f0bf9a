package runner

import (
	"context"
	"sync"
	"time"
)

// Run invokes the bound target loop times on each of threads goroutines and
// samples throughput every max(loop/10, 1) iterations. With threads <= 1 the
// target runs on the calling goroutine.
func (r *Runner) Run(ctx context.Context, loop int64, threads int) (Result, error) {
	return r.RunPrefix(ctx, "", loop, 0, threads)
}

// RunPrefix is Run with an explicit sampling interval and trace label.
// A non-empty prefix writes one trace line per sample to the configured output.
// A non-positive interval is derived from loop.
//
// Target failures and panics are counted and never stop the run. A cancelled
// ctx stops every worker before its next invocation; the partial Result is
// returned together with ctx.Err().
func (r *Runner) RunPrefix(ctx context.Context, prefix string, loop, interval int64, threads int) (Result, error) {
	if r.target == nil {
		return Result{}, ErrNoTarget
	}
	if loop <= 0 {
		return Result{}, ErrInvalidLoop
	}
	if interval <= 0 {
		interval = intervalFor(loop)
	}

	r.Start(loop, interval)
	r.opt.Logger.Debug("run started",
		"id", r.ID(),
		"loop", loop,
		"interval", interval,
		"threads", max(threads, 1),
	)

	elapsed := r.exec(ctx, prefix, loop, interval, threads)
	res := Result{
		Iterations: r.Count(),
		Failures:   r.collector.Stats().Failures,
		Elapsed:    elapsed,
	}
	r.opt.Logger.Debug("run finished",
		"id", r.ID(),
		"iterations", res.Iterations,
		"failures", res.Failures,
		"elapsed", res.Elapsed,
	)
	return res, ctx.Err()
}

// RunMethod binds the named method of receiver for a single invocation,
// leaving the bound target untouched.
func (r *Runner) RunMethod(ctx context.Context, prefix string, receiver any, name string) (Result, error) {
	t, err := Method(receiver, name)
	if err != nil {
		return Result{}, err
	}
	prev := r.target
	r.target = t
	defer func() { r.target = prev }()
	return r.RunPrefix(ctx, prefix, 1, 1, 1)
}

func (r *Runner) exec(ctx context.Context, prefix string, loop, interval int64, threads int) time.Duration {
	if threads <= 1 {
		s := r.newSampler(prefix, interval)
		done := ctx.Done()
		for r.Loop() {
			if cancelled(done) {
				break
			}
			r.invoke(ctx)
			s.observe(r.counter.Load())
		}
		return r.Stop()
	}

	var wg sync.WaitGroup
	for range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx, r.newSampler(prefix, interval), loop)
		}()
	}
	// Workers observe ctx between invocations, so this returns promptly on cancellation.
	wg.Wait()
	// The terminating Loop call.
	r.counter.Add(1)
	return r.Stop()
}

// work is one worker's full loop. Completed iterations are folded into the
// shared counter at sample points and on exit.
func (r *Runner) work(ctx context.Context, s *sampler, loop int64) {
	done := ctx.Done()
	var n, folded int64
	for n < loop {
		if cancelled(done) {
			break
		}
		r.invoke(ctx)
		n++
		if n%s.interval == 0 {
			s.observe(n)
			r.counter.Add(n - folded)
			folded = n
		}
	}
	r.counter.Add(n - folded)
}

func cancelled(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
