// Package iterutil provides the error-tee adapter used throughout the
// pipeline: it splits a stream of (value, error) results into a data
// path and a diagnostic side path, so a single malformed line or row
// never halts the pipeline. Modeled on
// original_source/src/utils/send_errors.rs's SendErrors/ParallelSendErrors,
// reimplemented over Go channels and slices since Go has no lazy
// iterator trait to extend.
package iterutil

// Result pairs a value with an error the way a fallible parse or
// database call produces it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Errf wraps a failure.
func Errf[T any](err error) Result[T] { return Result[T]{Err: err} }

// TrySend delivers msg on diag without blocking. A diagnostic receiver
// that has gone away (channel full on an unbuffered consumer, or the
// aggregator having already exited) is non-fatal per SPEC_FULL.md §6 —
// the send is simply dropped.
func TrySend[M any](diag chan<- M, msg M) {
	select {
	case diag <- msg:
	default:
	}
}

// TeeSlice splits a slice of Results into its Ok values (returned, in
// order) and its Err values (converted with wrap and sent to diag).
// This is the synchronous, single-goroutine counterpart of the
// Rust SendErrors iterator adapter.
func TeeSlice[T, M any](in []Result[T], diag chan<- M, wrap func(error) M) []T {
	out := make([]T, 0, len(in))
	for _, r := range in {
		if r.Err != nil {
			TrySend(diag, wrap(r.Err))
			continue
		}
		out = append(out, r.Value)
	}
	return out
}

// MapErr wraps each error from in through f before it would be
// observed, without touching Ok values. Mirrors
// original_source/src/utils/map_errs.rs's MapErrs iterator adapter —
// used when a lower layer's error type (e.g. a raw scan error) must
// become a higher layer's diagnostic message type before teeing.
func MapErr[T any](in []Result[T], f func(error) error) []Result[T] {
	out := make([]Result[T], len(in))
	for i, r := range in {
		if r.Err != nil {
			out[i] = Result[T]{Err: f(r.Err)}
			continue
		}
		out[i] = r
	}
	return out
}
