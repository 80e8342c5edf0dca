package model

import (
	"errors"
	"fmt"
)

// Worker exit protocol. A worker detects its own bind failure and reports
// it with a dedicated exit code; the supervisor never infers "port in use"
// from log scraping.
const (
	ExitOK        = 0
	ExitRuntime   = 1
	ExitPortInUse = 98 // mirrors EADDRINUSE
)

var ErrTokenSource = errors.New("secure random source unavailable")

// PortInUseError reports that a worker could not bind its configured
// port because another process holds it. Fatal to that worker only.
type PortInUseError struct {
	Service string // "API" or "GUI"
	Port    int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("%s port %d is already in use", e.Service, e.Port)
}

// UnexpectedExitError reports a worker that returned without error even
// though it is designed to run forever. Treated as a bug.
type UnexpectedExitError struct {
	Service string
}

func (e *UnexpectedExitError) Error() string {
	return fmt.Sprintf("%s unexpectedly exited", e.Service)
}

// RuntimeError carries any other worker failure with its message
// verbatim.
type RuntimeError struct {
	Service string
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s failed with: %s", e.Service, e.Message)
}

// ExitCodeFor maps an error returned by a server run function to the
// worker exit protocol. Used by the worker process itself when it exits.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var portErr *PortInUseError
	if errors.As(err, &portErr) {
		return ExitPortInUse
	}
	return ExitRuntime
}
