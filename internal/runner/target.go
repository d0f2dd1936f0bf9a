package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidTarget is returned when a method cannot be bound as a target.
var ErrInvalidTarget = errors.New("invalid target")

// Target is the operation under measurement.
// Implementations must be safe for concurrent use when run with more than one thread.
type Target interface {
	Do(ctx context.Context) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(ctx context.Context) error

func (f TargetFunc) Do(ctx context.Context) error { return f(ctx) }

// Supplier adapts a zero-argument, value-producing function. The value is discarded.
func Supplier[T any](fn func() (T, error)) Target {
	return TargetFunc(func(context.Context) error {
		_, err := fn()
		return err
	})
}

// PanicError carries a value recovered from a panicking target.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("target panicked: %v", e.Value)
}

func (e *PanicError) ErrorLabel() string { return "Target panic" }

// Method binds the exported, argument-less method name of receiver.
// A trailing error result becomes the invocation's error; other results are discarded.
func Method(receiver any, name string) (Target, error) {
	if receiver == nil {
		return nil, fmt.Errorf("%w: nil receiver", ErrInvalidTarget)
	}
	m := reflect.ValueOf(receiver).MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %q", ErrInvalidTarget, receiver, name)
	}
	mt := m.Type()
	if mt.NumIn() != 0 {
		return nil, fmt.Errorf("%w: %T.%s takes %d arguments", ErrInvalidTarget, receiver, name, mt.NumIn())
	}

	errIdx := -1
	errType := reflect.TypeFor[error]()
	if n := mt.NumOut(); n > 0 && mt.Out(n-1) == errType {
		errIdx = n - 1
	}

	return TargetFunc(func(context.Context) error {
		out := m.Call(nil)
		if errIdx < 0 || out[errIdx].IsNil() {
			return nil
		}
		return out[errIdx].Interface().(error)
	}), nil
}

// call invokes t, converting a panic into a *PanicError.
func call(ctx context.Context, t Target) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return t.Do(ctx)
}
