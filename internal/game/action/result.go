package action

import "fmt"

// Result is the outcome of an action. A business-rule failure is a Result
// with a Reason, never an error.
type Result struct {
	Reason string
}

func success() Result { return Result{} }

func failure(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Success reports whether the action was applied.
func (r Result) Success() bool { return r.Reason == "" }

// Failure reports whether the action was refused.
func (r Result) Failure() bool { return !r.Success() }
