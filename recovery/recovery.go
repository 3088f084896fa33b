package recovery

// Strategy decides how the scanner and parser react to recoverable
// malformations in legacy input. Resource-limit violations never reach a
// Strategy; those are always fatal.
type Strategy interface {
	OnError(err error, location Location) Action
}

// Location pinpoints where in the input a recoverable error was detected.
type Location struct {
	ByteOffset int
	Line       int
	Column     int
	Component  string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionWarn
)
