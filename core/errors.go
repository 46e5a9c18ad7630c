package core

import "errors"

var (
	// ErrInvalidOutputID is returned by the output driver when the id has no
	// table entry and the driver runs with RejectInvalidID.
	ErrInvalidOutputID = errors.New("invalid output id")

	// ErrInvalidOutputTable is returned when an output table cannot be built.
	ErrInvalidOutputTable = errors.New("invalid output table")

	// ErrResourceExhausted is returned when the kernel cannot create a task.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrInvalidTask is returned when a task is spawned without an entry.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidPeriod is returned for a periodic task with a zero period.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrKernelHalted is returned by operations on a halted kernel.
	ErrKernelHalted = errors.New("kernel halted")
)

// OutputError records a failed output operation and the id that caused it.
type OutputError struct {
	Op  string
	ID  OutputID
	Err error
}

func (e *OutputError) Error() string {
	return "output " + e.Op + " id=" + utoa(uint32(e.ID)) + ": " + e.Err.Error()
}

func (e *OutputError) Unwrap() error { return e.Err }

// SpawnError records a failed task creation.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return "spawn " + e.Name + ": " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }
