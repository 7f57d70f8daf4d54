package dialogue

import "strings"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Decision records what the user chose at a checkpoint.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionContinue Decision = "continue"
	DecisionAsk      Decision = "ask"
)

// Rejection is input a field step could not use. The clarification step
// consumes it.
type Rejection struct {
	Step   StepID `json:"step"`
	Input  string `json:"input,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Control is the engine-owned bookkeeping of a thread.
type Control struct {
	CurrentStep     StepID          `json:"current_step"`
	Decision        Decision        `json:"decision,omitempty"`
	PendingQuestion string          `json:"pending_question,omitempty"`
	ResumeTarget    StepID          `json:"resume_target,omitempty"`
	Completed       bool            `json:"completed"`
	Pending         *SuspendRequest `json:"pending,omitempty"`
	Rejected        *Rejection      `json:"rejected,omitempty"`
}

// State is the full, serializable state of one conversation thread.
// Steps never mutate it directly; they return a Delta.
type State struct {
	ThreadID   string            `json:"thread_id"`
	Workflow   string            `json:"workflow"`
	Locale     string            `json:"locale,omitempty"`
	Transcript []Message         `json:"transcript"`
	Collected  map[string]string `json:"collected"`
	Control    Control           `json:"control"`
}

// NewState returns a fresh thread positioned at start.
func NewState(threadID, workflow, locale string, start StepID) State {
	return State{
		ThreadID:   threadID,
		Workflow:   workflow,
		Locale:     locale,
		Transcript: []Message{},
		Collected:  map[string]string{},
		Control:    Control{CurrentStep: start},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Transcript = append([]Message(nil), s.Transcript...)
	out.Collected = make(map[string]string, len(s.Collected))
	for k, v := range s.Collected {
		out.Collected[k] = v
	}
	if s.Control.Pending != nil {
		p := *s.Control.Pending
		out.Control.Pending = &p
	}
	if s.Control.Rejected != nil {
		r := *s.Control.Rejected
		out.Control.Rejected = &r
	}
	return out
}

// Field returns a collected value or "".
func (s State) Field(key string) string {
	return s.Collected[key]
}

// Has reports whether key was collected with a non-empty value.
func (s State) Has(key string) bool {
	return strings.TrimSpace(s.Collected[key]) != ""
}

// LastUserText returns the most recent user message, or "".
func (s State) LastUserText() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleUser {
			return s.Transcript[i].Text
		}
	}
	return ""
}

// Suspended reports whether the thread waits on a resume payload.
func (s State) Suspended() bool {
	return s.Control.Pending != nil
}

// Ended reports whether the workflow reached its terminal marker.
func (s State) Ended() bool {
	return s.Control.CurrentStep == End
}

func (s *State) apply(d Delta) {
	s.Transcript = append(s.Transcript, d.Messages...)

	if s.Collected == nil {
		s.Collected = map[string]string{}
	}
	for k, v := range d.Collected {
		if strings.TrimSpace(v) == "" {
			continue
		}
		s.Collected[k] = v
	}

	if d.Decision != nil {
		s.Control.Decision = *d.Decision
	}
	if d.PendingQuestion != nil {
		s.Control.PendingQuestion = *d.PendingQuestion
	}
	if d.ResumeTarget != nil {
		s.Control.ResumeTarget = *d.ResumeTarget
	}
	if d.Completed {
		s.Control.Completed = true
	}
	if d.ClearRejected {
		s.Control.Rejected = nil
	}
	if d.Rejected != nil {
		r := *d.Rejected
		s.Control.Rejected = &r
	}
}

func (s State) checkInvariants() error {
	if s.Control.Decision == DecisionAsk && strings.TrimSpace(s.Control.PendingQuestion) == "" {
		return invariantError("decision is ask but no question is pending")
	}
	return nil
}
