package extract

// Status tags how a lookup ended.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	// StatusFault means the lookup broke rather than came up empty.
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFault:
		return "fault"
	default:
		return "not_found"
	}
}

// Outcome carries a value only when Status is StatusFound.
type Outcome[T any] struct {
	Status Status
	Value  T
	Reason error
}

func Found[T any](v T) Outcome[T] { return Outcome[T]{Status: StatusFound, Value: v} }

func NotFound[T any]() Outcome[T] { return Outcome[T]{Status: StatusNotFound} }

func Fault[T any](err error) Outcome[T] { return Outcome[T]{Status: StatusFault, Reason: err} }

func (o Outcome[T]) Ok() bool { return o.Status == StatusFound }

func (o Outcome[T]) Get() (T, bool) { return o.Value, o.Status == StatusFound }

// Ptr returns nil unless the value was found.
func (o Outcome[T]) Ptr() *T {
	if o.Status != StatusFound {
		return nil
	}
	v := o.Value
	return &v
}
