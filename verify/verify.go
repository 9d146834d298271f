// Package verify checks benchmark results against a host reference and
// reports them.
//
// The reference is a plain scan of the input on the host. It does not depend
// on how the input was split over pipes or which kernel flavor moved it, so
// a single expected value serves every mode of a run:
//
//	expected := verify.Count(input, reference)
//	res := verify.Verify(input, reference, accumulator)
//	if err := res.Err(); err != nil {
//		...
//	}
//
// Report collects the verified scenarios of a run and renders them as a
// table.
package verify

import "fmt"

// Count returns the number of values in input equal to ref.
func Count(input []uint32, ref uint32) uint32 {
	var n uint32

	for _, v := range input {
		if v == ref {
			n++
		}
	}

	return n
}

// Result is the outcome of one verification.
type Result struct {
	Expected uint32
	Actual   uint32
}

// Verify compares an accumulator read back from the device with the host
// reference count.
func Verify(input []uint32, ref uint32, actual uint32) Result {
	return Result{
		Expected: Count(input, ref),
		Actual:   actual,
	}
}

// Match tells if the device counted exactly as many matches as the host.
func (r Result) Match() bool {
	return r.Expected == r.Actual
}

// Err returns a *MismatchError if the result does not match, or nil.
func (r Result) Err() error {
	if r.Match() {
		return nil
	}

	return &MismatchError{
		Expected: r.Expected,
		Actual:   r.Actual,
	}
}

// MismatchError reports a device count that differs from the host count.
type MismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification failed: expected %d matches, got %d",
		e.Expected, e.Actual)
}
