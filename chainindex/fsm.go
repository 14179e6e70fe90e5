package chainindex

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// Control handler states and events, per §4.4's event table. The table lists
// every event as valid from "any" state and never changing it — there is
// exactly one operational state, "Ready" — so the machine's job is not to
// model a real state graph but to reject any event name that isn't one of
// the five the table names, and to give transition logging for free.
const (
	fsmStateReady = "Ready"

	fsmEventAppendBlock    = "AppendBlock"
	fsmEventRollback       = "Rollback"
	fsmEventResumeSync     = "ResumeSync"
	fsmEventCollectGarbage = "CollectGarbage"
	fsmEventGetDiagnostics = "GetDiagnostics"
)

// newControlFSM builds the supervisory state machine described above. It
// never rejects a well-formed event, but validating the event name against
// it first (via canFire) keeps a typo or a future unplanned event from
// reaching the index/database mutation logic at all.
func newControlFSM() *fsm.FSM {
	return fsm.NewFSM(
		fsmStateReady,
		fsm.Events{
			{Name: fsmEventAppendBlock, Src: []string{fsmStateReady}, Dst: fsmStateReady},
			{Name: fsmEventRollback, Src: []string{fsmStateReady}, Dst: fsmStateReady},
			{Name: fsmEventResumeSync, Src: []string{fsmStateReady}, Dst: fsmStateReady},
			{Name: fsmEventCollectGarbage, Src: []string{fsmStateReady}, Dst: fsmStateReady},
			{Name: fsmEventGetDiagnostics, Src: []string{fsmStateReady}, Dst: fsmStateReady},
		},
		fsm.Callbacks{},
	)
}

// canFire reports whether event is one of the control handler's allowed
// events, transitioning the machine as a side effect (its state never
// actually changes, but a bad event name returns fsm.UnknownEventError).
func canFire(ctx context.Context, machine *fsm.FSM, event string) error {
	err := machine.Event(ctx, event)
	if errors.As(err, &fsm.NoTransitionError{}) {
		// The control FSM's only state never changes, so looplab/fsm's
		// same-state sentinel error is the expected, successful outcome.
		return nil
	}
	return err
}
