package recovery

import "fmt"

// StrictStrategy implements a fail-fast recovery strategy: any malformation,
// however minor, aborts the parse.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(err error, location Location) Action {
	return ActionFail
}

// LenientStrategy implements a best-effort recovery strategy. Malformed
// constructs are skipped and recorded.
type LenientStrategy struct {
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(err error, location Location) Action {
	s.Errors = append(s.Errors, fmt.Errorf("[%s] line %d col %d (offset %d): %w",
		location.Component, location.Line, location.Column, location.ByteOffset, err))
	return ActionSkip
}
