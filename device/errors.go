package device

import "errors"

var (
	// ErrOutOfMemory is returned when an allocation does not fit in the
	// remaining global memory.
	ErrOutOfMemory = errors.New("device out of memory")

	// ErrInvalidPipe is returned for a pipe with an unsupported geometry.
	ErrInvalidPipe = errors.New("invalid pipe")

	// ErrPipeNotDrained is returned when a pipe is released while it still
	// holds packets.
	ErrPipeNotDrained = errors.New("pipe not drained")

	// ErrPipeDrained is the fault raised by a consumer that waits on a pipe
	// whose producers have all completed.
	ErrPipeDrained = errors.New("pipe drained before consumer finished")

	// ErrInvalidLaunch is returned for a kernel launch that cannot run.
	ErrInvalidLaunch = errors.New("invalid kernel launch")

	// ErrUnknownHandle is returned for a pipe or buffer that does not belong
	// to the device or was already released.
	ErrUnknownHandle = errors.New("unknown device handle")
)
