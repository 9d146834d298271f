package bench

import (
	"errors"
	"fmt"
)

// Kind classifies a benchmark failure.
type Kind int

const (
	// KindConfiguration is an invalid workload for the device. It is
	// reported before any pipe is created.
	KindConfiguration Kind = iota

	// KindResource is a pipe or buffer allocation failure.
	KindResource

	// KindExecution is a kernel launch failure or a device-side fault.
	KindExecution

	// KindVerification is an accumulator that does not match the host count.
	KindVerification
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrResource      = errors.New("resource error")
	ErrExecution     = errors.New("execution error")
	ErrVerification  = errors.New("verification error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindResource:
		return ErrResource
	case KindExecution:
		return ErrExecution
	case KindVerification:
		return ErrVerification
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Phase is the part of a run in which a failure happened.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseStaging
	PhaseExecution
	PhaseRetrieval
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseStaging:
		return "staging"
	case PhaseExecution:
		return "execution"
	case PhaseRetrieval:
		return "retrieval"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Error is a failure of a benchmark run, tagged with the phase and the mode
// it happened in.
type Error struct {
	Kind  Kind
	Phase Phase
	Mode  Mode
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s phase: %s: %v", e.Phase, e.Kind, e.Err)

	if e.Mode != ModeNone {
		msg = e.Mode.String() + ": " + msg
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(kind Kind, phase Phase, mode Mode, err error) *Error {
	return &Error{
		Kind:  kind,
		Phase: phase,
		Mode:  mode,
		Err:   err,
	}
}

func configErrorf(format string, args ...any) *Error {
	return newError(KindConfiguration, PhaseSetup, ModeNone,
		fmt.Errorf(format, args...))
}
