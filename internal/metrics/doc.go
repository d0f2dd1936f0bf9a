// Package metrics tallies what a benchmark run observed beyond the raw
// throughput samples.
//
// # Collector
//
// A [Collector] counts target invocations, splits failures by error type and
// keeps an HDR histogram of throughput samples so exact-ish quantiles can be
// reported next to the streaming statistics:
//
//	collector := metrics.NewCollector()
//	collector.RecordResult(err)    // once per invocation
//	collector.RecordSample(kips)   // once per sampling interval
//	stats := collector.Stats()
//
// Successful invocations only touch an atomic counter, so recording them from
// many worker goroutines stays cheap. Failures and samples take a mutex.
//
// # Error names
//
// Failures are grouped under [ErrorLabel]. Errors implementing [Labeler] name
// their own group ("HTTP error response", "Target panic"); anything else is
// grouped by its dynamic type, rendered through [TypeLabel].
package metrics
