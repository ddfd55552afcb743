package opstate

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is the tracked outcome of one async operation. A value and an
// error message are never set together.
type State[T any] struct {
	status Status
	value  T
	err    string
}

func Idle[T any]() State[T] {
	return State[T]{status: StatusIdle}
}

func Loading[T any]() State[T] {
	return State[T]{status: StatusLoading}
}

func Succeeded[T any](value T) State[T] {
	return State[T]{status: StatusSucceeded, value: value}
}

func Failed[T any](message string) State[T] {
	return State[T]{status: StatusFailed, err: message}
}

// Status reports the variant. The zero State is Idle.
func (s State[T]) Status() Status {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

func (s State[T]) Busy() bool {
	return s.status == StatusLoading
}

// Value returns the result when the state is Succeeded.
func (s State[T]) Value() (T, bool) {
	if s.status != StatusSucceeded {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Err returns the failure message when the state is Failed.
func (s State[T]) Err() string {
	if s.status != StatusFailed {
		return ""
	}
	return s.err
}
