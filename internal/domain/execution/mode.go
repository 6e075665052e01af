package execution

// Mode controls how a single orchestrator invocation behaves. It is fixed
// for the lifetime of the invocation.
type Mode int

const (
	// ModeNormal applies changes after interactive confirmation.
	ModeNormal Mode = iota
	// ModeDryRun simulates every mutating step and prints what it would do.
	ModeDryRun
	// ModeAutoConfirm applies changes without prompting.
	ModeAutoConfirm
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDryRun:
		return "dry-run"
	case ModeAutoConfirm:
		return "auto-confirm"
	default:
		return "unknown"
	}
}

// IsDryRun reports whether mutating actions are suppressed.
func (m Mode) IsDryRun() bool {
	return m == ModeDryRun
}

// NeedsConfirmation reports whether the run must block for an interactive
// yes/no prompt before the first mutating step.
func (m Mode) NeedsConfirmation() bool {
	return m == ModeNormal
}
