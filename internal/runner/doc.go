// Package runner is the measurement engine of kipbench.
//
// A [Runner] drives a [Target] for a fixed number of iterations, samples
// throughput every interval iterations and accumulates the samples in a
// stats.Accumulator. Time spent sampling is tracked as "lost" overhead and
// excluded from the reported elapsed time.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{Out: os.Stdout})
//	r.BindFunc(func(ctx context.Context) error {
//		work()
//		return nil
//	})
//	if _, err := r.Run(ctx, 1_000_000, 4); err != nil {
//		return err
//	}
//	fmt.Println(r.Metric("measure"))
//
// With threads > 1 every goroutine executes the full loop, so the target is
// invoked loop × threads times.
//
// # Manual Loops
//
// Code that cannot be expressed as a Target drives the state machine itself:
//
//	r.Start(total, interval)
//	for r.Loop() {
//		work()
//		r.TracePrefix("trace")
//	}
//	r.Stop()
//
// # Failures
//
// Errors returned by the target and recovered panics ([PanicError]) are
// tallied in the metrics.Collector and never end the loop. [WithLogging]
// reports them through a [FailureLogger].
package runner
