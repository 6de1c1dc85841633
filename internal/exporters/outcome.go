package exporters

import "time"

// State is a step of a single export request.
type State string

const (
	StateIdle      State = "idle"
	StateBuilding  State = "building"
	StateBuilt     State = "built"
	StateSkipped   State = "skipped"
	StateExporting State = "exporting"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// transitions lists the legal next states for each state.
var transitions = map[State][]State{
	StateIdle:      {StateBuilding},
	StateBuilding:  {StateBuilt, StateSkipped, StateFailed},
	StateBuilt:     {StateExporting},
	StateExporting: {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether next may follow s.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Status is the user-facing result of an export request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

const (
	MessageSuccess = "Data exported successfully"
	MessageSkipped = "No data to export"
	MessageFailed  = "Export failed"
)

// Outcome describes how one export request ended.
type Outcome struct {
	Status   Status
	Message  string
	Err      error
	Filename string
	Platform string
	Origin   string

	Rows  int
	Bytes int

	// States lists every state the request passed through, starting at idle.
	States []State

	BuildDuration time.Duration
	Duration      time.Duration
}

// Final returns the last state reached.
func (o Outcome) Final() State {
	if len(o.States) == 0 {
		return StateIdle
	}
	return o.States[len(o.States)-1]
}
