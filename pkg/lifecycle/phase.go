package lifecycle

import (
	"fmt"
	"slices"
)

// Phase is the state of a lifecycle session.
type Phase int

// Session phases.
const (
	NotStarted Phase = iota
	Starting
	Running
	Stopping
	Done
	// StartFailed is terminal: discovery or a start hook failed, so nothing is torn down.
	StartFailed
)

var phaseNames = map[Phase]string{
	NotStarted:  "not_started",
	Starting:    "starting",
	Running:     "running",
	Stopping:    "stopping",
	Done:        "done",
	StartFailed: "start_failed",
}

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	NotStarted: {Starting},
	Starting:   {Running, StartFailed},
	Running:    {Stopping},
	Stopping:   {Done},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// CanTransition reports whether a session may move from p to next.
func (p Phase) CanTransition(next Phase) bool {
	return slices.Contains(transitions[p], next)
}

// Terminal reports whether no phase follows p.
func (p Phase) Terminal() bool {
	return p == Done || p == StartFailed
}
