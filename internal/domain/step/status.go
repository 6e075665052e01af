package step

// Status is the outcome of probing a step's target state.
type Status string

const (
	// StatusSatisfied indicates the step's target state already holds.
	StatusSatisfied Status = "satisfied"
	// StatusNeedsApply indicates the step must be applied.
	StatusNeedsApply Status = "needs-apply"
	// StatusUnknown indicates the target state could not be determined.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// NeedsAction returns true if the step requires execution.
func (s Status) NeedsAction() bool {
	return s == StatusNeedsApply || s == StatusUnknown
}
