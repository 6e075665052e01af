package execution

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"
)

// RunState represents where a single orchestrator run currently is.
type RunState string

const (
	// RunStateInit is the state before the plan is ready.
	RunStateInit RunState = "init"
	// RunStateConfirming is the state while waiting for the confirmation gate.
	RunStateConfirming RunState = "confirming"
	// RunStateRunning is the state while steps execute.
	RunStateRunning RunState = "running"
	// RunStateVerifying is the read-only verification pass.
	RunStateVerifying RunState = "verifying"
	// RunStateDone is the terminal success state (with or without warnings).
	RunStateDone RunState = "done"
	// RunStateAborted is the terminal failure state: the user declined or a
	// required step failed.
	RunStateAborted RunState = "aborted"
)

// Event types for the run state machine.
const (
	EventPlanReady  = "PLAN_READY"
	EventConfirmed  = "CONFIRMED"
	EventDeclined   = "DECLINED"
	EventStepFailed = "STEP_FAILED"
	EventStepsDone  = "STEPS_DONE"
	EventVerified   = "VERIFIED"
	EventReset      = "RESET"
)

// RunInfo is the statekit context for a run.
type RunInfo struct {
	ID        string
	Mode      string
	StartedAt time.Time
}

// Run tracks one orchestrator invocation through its lifecycle:
// init -> confirming -> {aborted | running} -> (required failure -> aborted)
// | verifying -> done.
type Run struct {
	id     string
	mode   Mode
	interp *statekit.Interpreter[RunInfo]
}

// NewRun creates a run with a generated ID and starts its state machine.
func NewRun(mode Mode) (*Run, error) {
	id := uuid.New().String()

	machine, err := statekit.NewMachine[RunInfo]("courseboot-run").
		WithInitial(statekit.StateID(RunStateInit)).
		WithContext(RunInfo{
			ID:        id,
			Mode:      mode.String(),
			StartedAt: time.Now(),
		}).
		State(statekit.StateID(RunStateInit)).
		On(EventPlanReady).Target(statekit.StateID(RunStateConfirming)).Done().
		State(statekit.StateID(RunStateConfirming)).
		On(EventConfirmed).Target(statekit.StateID(RunStateRunning)).
		On(EventDeclined).Target(statekit.StateID(RunStateAborted)).Done().
		State(statekit.StateID(RunStateRunning)).
		On(EventStepFailed).Target(statekit.StateID(RunStateAborted)).
		On(EventStepsDone).Target(statekit.StateID(RunStateVerifying)).Done().
		State(statekit.StateID(RunStateVerifying)).
		On(EventVerified).Target(statekit.StateID(RunStateDone)).Done().
		State(statekit.StateID(RunStateDone)).
		On(EventReset).Target(statekit.StateID(RunStateInit)).Done().
		State(statekit.StateID(RunStateAborted)).
		On(EventReset).Target(statekit.StateID(RunStateInit)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()

	return &Run{
		id:     id,
		mode:   mode,
		interp: interp,
	}, nil
}

// ID returns the unique run identifier.
func (r *Run) ID() string {
	return r.id
}

// Mode returns the execution mode of this run.
func (r *Run) Mode() Mode {
	return r.mode
}

// State returns the current lifecycle state.
func (r *Run) State() RunState {
	return RunState(r.interp.State().Value)
}

// PlanReady moves the run to the confirmation gate.
func (r *Run) PlanReady() {
	r.interp.Send(statekit.Event{Type: EventPlanReady})
}

// Confirm records a positive confirmation (or an auto-confirmed mode).
func (r *Run) Confirm() {
	r.interp.Send(statekit.Event{Type: EventConfirmed})
}

// Decline records a negative confirmation; the run is aborted with no steps
// executed.
func (r *Run) Decline() {
	r.interp.Send(statekit.Event{Type: EventDeclined})
}

// StepFailed records a required-step failure; the run is aborted and the
// verification pass does not happen.
func (r *Run) StepFailed() {
	r.interp.Send(statekit.Event{Type: EventStepFailed})
}

// StepsDone moves the run into the verification pass.
func (r *Run) StepsDone() {
	r.interp.Send(statekit.Event{Type: EventStepsDone})
}

// Verified marks the run complete.
func (r *Run) Verified() {
	r.interp.Send(statekit.Event{Type: EventVerified})
}

// Finished reports whether the run reached a terminal state.
func (r *Run) Finished() bool {
	state := r.State()
	return state == RunStateDone || state == RunStateAborted
}
