package requirement

import "strings"

// TestResult is the outcome of testing one or more requirements.
// The zero value is a success.
type TestResult struct {
	reasons []string
	failed  bool
}

// Success returns a passing result.
func Success() TestResult { return TestResult{} }

// Failure returns a failing result with the given reasons, in order.
func Failure(reasons ...string) TestResult {
	return TestResult{reasons: append([]string(nil), reasons...), failed: true}
}

// Of returns success if ok, otherwise a failure with reason.
func Of(ok bool, reason string) TestResult {
	if ok {
		return Success()
	}
	return Failure(reason)
}

// Success reports whether the tested requirements are met.
func (r TestResult) Success() bool { return !r.failed }

// Failure is the negation of Success.
func (r TestResult) Failure() bool { return r.failed }

// Reasons returns a copy of the failure reasons.
func (r TestResult) Reasons() []string { return append([]string(nil), r.reasons...) }

// Error joins all reasons into one message; empty for a success.
func (r TestResult) Error() string { return strings.Join(r.reasons, "\n") }

// Merge combines two results. The merged result succeeds only if both do and
// keeps every failure reason of both sides in order.
func (r TestResult) Merge(other TestResult) TestResult {
	if !r.failed && !other.failed {
		return Success()
	}
	reasons := make([]string, 0, len(r.reasons)+len(other.reasons))
	reasons = append(reasons, r.reasons...)
	reasons = append(reasons, other.reasons...)
	return TestResult{reasons: reasons, failed: true}
}
