package runner

import "github.com/looplab/fsm"

// Lifecycle states and events, per SPEC_FULL.md §3: New -> Configured ->
// Running -> {Paused <-> Running} -> Stopping -> Stopped. Stopped is
// terminal only in the sense that a fresh Start() re-enters Running;
// the Runner itself is never reused past a caller-initiated Stop once
// the process is done with it, but the state machine allows restart.
const (
	StateNew        = "new"
	StateConfigured = "configured"
	StateRunning    = "running"
	StatePaused     = "paused"
	StateStopping   = "stopping"
	StateStopped    = "stopped"

	eventConfigure = "configure"
	eventStart     = "start"
	eventPause     = "pause"
	eventResume    = "resume"
	eventStop      = "stop"
	eventStopped   = "stopped"
	eventFail      = "fail"
)

// newLifecycleFSM builds the Runner's state machine using the same
// library the application package uses for its own start/stop FSM,
// generalized to the Runner's richer state set.
func newLifecycleFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateNew,
		fsm.Events{
			{Name: eventConfigure, Src: []string{StateNew}, Dst: StateConfigured},
			{Name: eventStart, Src: []string{StateConfigured, StateStopped}, Dst: StateRunning},
			{Name: eventPause, Src: []string{StateRunning}, Dst: StatePaused},
			{Name: eventResume, Src: []string{StatePaused}, Dst: StateRunning},
			{Name: eventStop, Src: []string{StateNew, StateConfigured, StateRunning, StatePaused}, Dst: StateStopping},
			{Name: eventStopped, Src: []string{StateStopping}, Dst: StateStopped},
			{Name: eventFail, Src: []string{StateNew, StateConfigured, StateRunning, StatePaused, StateStopping}, Dst: StateStopped},
		},
		fsm.Callbacks{},
	)
}
