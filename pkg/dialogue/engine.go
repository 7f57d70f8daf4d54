package dialogue

import (
	"context"
	"fmt"
	"strings"

	"screening-onboarding-be/internal/pkg/logger"
)

// OutcomeKind classifies the result of one Advance call.
type OutcomeKind string

const (
	Continuing OutcomeKind = "continuing"
	Suspended  OutcomeKind = "suspended"
	Terminated OutcomeKind = "terminated"
)

// Outcome is returned with every new state. Request is set when Suspended.
type Outcome struct {
	Kind    OutcomeKind     `json:"kind"`
	Request *SuspendRequest `json:"request,omitempty"`
}

const defaultMaxTransitions = 64

// Engine drives one workflow Definition.
type Engine struct {
	def            Definition
	steps          map[StepID]Step
	logger         logger.ILogger
	maxTransitions int
}

type EngineOption func(*Engine)

// WithMaxTransitions bounds the number of steps a single Advance may run.
func WithMaxTransitions(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTransitions = n
		}
	}
}

func NewEngine(def Definition, log logger.ILogger, opts ...EngineOption) (*Engine, error) {
	if def.Route == nil {
		return nil, fmt.Errorf("%w: %s has no router", ErrInvalidDefinition, def.Name)
	}
	steps := make(map[StepID]Step, len(def.Steps))
	for _, s := range def.Steps {
		if s.Handler == nil {
			return nil, fmt.Errorf("%w: step %s has no handler", ErrInvalidDefinition, s.ID)
		}
		if s.ID == End {
			return nil, fmt.Errorf("%w: %s is reserved", ErrInvalidDefinition, End)
		}
		if _, dup := steps[s.ID]; dup {
			return nil, fmt.Errorf("%w: step %s registered twice", ErrInvalidDefinition, s.ID)
		}
		steps[s.ID] = s
	}
	if _, ok := steps[def.Start]; !ok {
		return nil, fmt.Errorf("%w: start step %s is not registered", ErrInvalidDefinition, def.Start)
	}

	e := &Engine{
		def:            def,
		steps:          steps,
		logger:         log,
		maxTransitions: defaultMaxTransitions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Name() string {
	return e.def.Name
}

// Start returns a fresh state for a new thread of this workflow.
func (e *Engine) Start(threadID, locale string) State {
	return NewState(threadID, e.def.Name, locale, e.def.Start)
}

// Step returns the registered step for id.
func (e *Engine) Step(id StepID) (Step, bool) {
	s, ok := e.steps[id]
	return s, ok
}

// Advance runs the thread forward until it suspends, terminates or needs a
// new user turn. The input state is never modified; on error it is also the
// state the caller should keep.
func (e *Engine) Advance(ctx context.Context, state State, in Input) (State, Outcome, error) {
	s := state.Clone()
	if s.Workflow != "" && s.Workflow != e.def.Name {
		return state, Outcome{}, fmt.Errorf("%w: thread belongs to workflow %q", ErrInvalidDefinition, s.Workflow)
	}

	if s.Ended() {
		if !IsEmptyPayload(in.Payload) {
			return state, Outcome{}, ErrUnexpectedPayload
		}
		return s, Outcome{Kind: Terminated}, nil
	}

	step, ok := e.steps[s.Control.CurrentStep]
	if !ok {
		return state, Outcome{}, fmt.Errorf("%w: %s", ErrUnknownStep, s.Control.CurrentStep)
	}

	var turn Turn
	switch {
	case s.Control.Pending != nil:
		pending := *s.Control.Pending
		if IsEmptyPayload(in.Payload) {
			// Nothing to resume with: hand back the same request.
			return s, Outcome{Kind: Suspended, Request: &pending}, nil
		}
		resume, err := DecodeResume(pending.Kind, in.Payload)
		if err != nil {
			return state, Outcome{}, err
		}
		s.Control.Pending = nil
		if resume.Value != "" {
			s.Transcript = append(s.Transcript, Message{Role: RoleUser, Text: resume.Value})
		}
		turn.Resume = resume

	case !IsEmptyPayload(in.Payload):
		return state, Outcome{}, ErrUnexpectedPayload

	case step.Kind == KindTurn:
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return s, Outcome{Kind: Continuing}, nil
		}
		s.Transcript = append(s.Transcript, Message{Role: RoleUser, Text: text})
		turn.Text = text
	}

	for i := 0; ; i++ {
		if i >= e.maxTransitions {
			return state, Outcome{}, fmt.Errorf("%w: %d transitions from %s", ErrStepLimit, i, state.Control.CurrentStep)
		}

		delta, err := step.Handler(ctx, s, turn)
		if err != nil {
			return state, Outcome{}, fmt.Errorf("step %s: %w", step.ID, err)
		}
		s.apply(delta)
		if err := s.checkInvariants(); err != nil {
			return state, Outcome{}, fmt.Errorf("after step %s: %w", step.ID, err)
		}

		if delta.Request != nil {
			req := *delta.Request
			s.Control.Pending = &req
			e.logger.Debug("Dialogue", "Thread suspended", map[string]interface{}{
				"thread_id": s.ThreadID,
				"step":      step.ID,
				"kind":      req.Kind,
			})
			return s, Outcome{Kind: Suspended, Request: &req}, nil
		}

		tr, err := e.def.Route(step.ID, s)
		if err != nil {
			return state, Outcome{}, err
		}
		if tr.ConsumeResume {
			s.Control.ResumeTarget = ""
			s.Control.Decision = DecisionNone
		}

		e.logger.Debug("Dialogue", "Transition", map[string]interface{}{
			"thread_id": s.ThreadID,
			"from":      step.ID,
			"to":        tr.To,
		})

		if tr.To == End {
			s.Control.CurrentStep = End
			return s, Outcome{Kind: Terminated}, nil
		}

		next, ok := e.steps[tr.To]
		if !ok {
			return state, Outcome{}, fmt.Errorf("%w: %s (routed from %s)", ErrUnknownStep, tr.To, step.ID)
		}
		s.Control.CurrentStep = next.ID
		if next.Kind == KindTurn {
			return s, Outcome{Kind: Continuing}, nil
		}

		step = next
		turn = Turn{}
	}
}
