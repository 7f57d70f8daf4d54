package dialogue

import (
	"context"
	"encoding/json"
)

// StepID names a workflow step. Each workflow declares its own closed set.
type StepID string

// End is the terminal marker a router returns to finish a thread.
const End StepID = "__end__"

// Kind tells the engine when a step may run.
type Kind int

const (
	// KindEager steps only reshape collected data and run immediately.
	KindEager Kind = iota
	// KindTurn steps need a fresh user message before they run.
	KindTurn
	// KindSuspending steps emit a SuspendRequest on entry and consume a
	// resume payload when re-entered.
	KindSuspending
)

func (k Kind) String() string {
	switch k {
	case KindEager:
		return "eager"
	case KindTurn:
		return "turn"
	case KindSuspending:
		return "suspending"
	}
	return "unknown"
}

// SuspendRequest is what a suspending step hands back to the caller.
type SuspendRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
	Title  string `json:"title,omitempty"`
}

// Input is the external input of one Advance call.
type Input struct {
	// Text is a fresh user turn for turn-based steps.
	Text string `json:"text,omitempty"`
	// Payload answers the pending SuspendRequest.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Turn is what a handler receives. Resume is nil on first entry.
type Turn struct {
	Text   string
	Resume *Resume
}

// Handler computes a step's delta. It must not mutate state.
type Handler func(ctx context.Context, state State, turn Turn) (Delta, error)

type Step struct {
	ID      StepID
	Kind    Kind
	Handler Handler
}

// Transition is a router decision. ConsumeResume clears the resume target
// and decision as part of the move.
type Transition struct {
	To            StepID
	ConsumeResume bool
}

// Go moves to id.
func Go(id StepID) Transition {
	return Transition{To: id}
}

// ResumeTo moves to the recorded resume target and consumes it.
// fallback is used when no target was recorded.
func ResumeTo(s State, fallback StepID) Transition {
	to := s.Control.ResumeTarget
	if to == "" {
		to = fallback
	}
	return Transition{To: to, ConsumeResume: true}
}

// Router picks the step that follows from.
type Router func(from StepID, state State) (Transition, error)

// Definition is one complete workflow.
type Definition struct {
	Name  string
	Start StepID
	Steps []Step
	Route Router
}
