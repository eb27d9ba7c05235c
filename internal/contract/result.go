package contract

// Kind tells the view layer how a bridge call ended.
type Kind int

const (
	OK Kind = iota
	Empty
	Failed
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	default:
		return "failed"
	}
}

// Result distinguishes data, a legitimately empty answer and a failure.
type Result[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

func (r Result[T]) Failed() bool { return r.Kind == Failed }

func succeeded[T any](v T, empty bool) Result[T] {
	if empty {
		return Result[T]{Kind: Empty, Value: v}
	}
	return Result[T]{Kind: OK, Value: v}
}

func failed[T any](err error) Result[T] { return Result[T]{Kind: Failed, Err: err} }
