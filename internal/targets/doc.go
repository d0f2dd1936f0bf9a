// Package targets holds the built-in benchmark targets selectable by name
// from the command line: noop, norm, sleep and http.
//
//	t, err := targets.New("sleep", targets.Options{Sleep: 150 * time.Millisecond, SleepJitter: 100 * time.Millisecond})
//
// All targets are safe for concurrent use.
package targets
