package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/entity"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/repository/contract"
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/events"
	"screening-onboarding-be/pkg/workflow"
	"screening-onboarding-be/pkg/workflow/catalog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("screening-onboarding-be/service")

var ErrThreadNotFound = errors.New("thread not found")

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IThreadService interface {
	Start(ctx context.Context, req *dto.StartThreadRequest) (*dto.ThreadResponse, error)
	Advance(ctx context.Context, id uuid.UUID, req *dto.AdvanceThreadRequest) (*dto.ThreadResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ThreadResponse, error)
	Transcript(ctx context.Context, id uuid.UUID) (*dto.TranscriptResponse, error)
}

type threadService struct {
	catalog       *catalog.Catalog
	repo          contract.ThreadRepository
	publisher     EventPublisher
	defaultLocale string
	locks         *keyedMutex
	logger        logger.ILogger
}

// NewThreadService wires the workflow catalog to a thread store. publisher
// may be nil, in which case events are dropped with a warning.
func NewThreadService(
	cat *catalog.Catalog,
	repo contract.ThreadRepository,
	publisher EventPublisher,
	defaultLocale string,
	log logger.ILogger,
) IThreadService {
	return &threadService{
		catalog:       cat,
		repo:          repo,
		publisher:     publisher,
		defaultLocale: string(workflow.ParseLocale(defaultLocale)),
		locks:         newKeyedMutex(),
		logger:        log,
	}
}

func (s *threadService) Start(ctx context.Context, req *dto.StartThreadRequest) (*dto.ThreadResponse, error) {
	ctx, span := tracer.Start(ctx, "thread.start")
	defer span.End()

	engine, err := s.catalog.Engine(req.Workflow)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("thread.workflow", engine.Name()))

	locale := s.defaultLocale
	if req.Locale != "" {
		locale = string(workflow.ParseLocale(req.Locale))
	}

	id := uuid.New()
	initial := engine.Start(id.String(), locale)
	state, outcome, err := engine.Advance(ctx, initial, dialogue.Input{})
	if err == nil && outcome.Kind == dialogue.Continuing && req.Text != "" {
		state, outcome, err = engine.Advance(ctx, state, dialogue.Input{Text: req.Text})
	}
	if err != nil {
		return nil, fmt.Errorf("start %s thread: %w", engine.Name(), err)
	}

	now := time.Now()
	thread := &entity.Thread{Id: id, State: state, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Save(ctx, thread); err != nil {
		return nil, fmt.Errorf("save thread %s: %w", id, err)
	}

	s.logger.Info("THREAD", "Thread started", map[string]interface{}{
		"thread_id": id.String(),
		"workflow":  engine.Name(),
		"locale":    locale,
		"outcome":   outcome.Kind,
	})
	s.publish(ctx, initial, state, outcome)
	return toThreadResponse(thread, outcome, 0), nil
}

func (s *threadService) Advance(ctx context.Context, id uuid.UUID, req *dto.AdvanceThreadRequest) (*dto.ThreadResponse, error) {
	ctx, span := tracer.Start(ctx, "thread.advance")
	defer span.End()
	span.SetAttributes(attribute.String("thread.id", id.String()))

	unlock := s.locks.Lock(id.String())
	defer unlock()

	thread, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	engine, err := s.catalog.Engine(thread.State.Workflow)
	if err != nil {
		return nil, err
	}

	before := thread.State
	state, outcome, err := engine.Advance(ctx, before, dialogue.Input{Text: req.Text, Payload: req.Payload})
	if err != nil {
		s.logger.Warn("THREAD", "Advance rejected", map[string]interface{}{
			"thread_id": id.String(),
			"step":      before.Control.CurrentStep,
			"error":     err.Error(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "advance rejected")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("thread.step", string(state.Control.CurrentStep)),
		attribute.String("thread.outcome", string(outcome.Kind)),
	)

	thread.State = state
	if err := s.repo.Save(ctx, thread); err != nil {
		return nil, fmt.Errorf("save thread %s: %w", id, err)
	}

	s.publish(ctx, before, state, outcome)
	return toThreadResponse(thread, outcome, len(before.Transcript)), nil
}

func (s *threadService) Get(ctx context.Context, id uuid.UUID) (*dto.ThreadResponse, error) {
	thread, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	outcome := dialogue.Outcome{Kind: thread.Status(), Request: thread.State.Control.Pending}
	return toThreadResponse(thread, outcome, len(thread.State.Transcript)), nil
}

func (s *threadService) Transcript(ctx context.Context, id uuid.UUID) (*dto.TranscriptResponse, error) {
	thread, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TranscriptResponse{
		Id:       thread.Id,
		Messages: toMessages(thread.State.Transcript),
	}, nil
}

func (s *threadService) find(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	thread, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", id, err)
	}
	if thread == nil {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	return thread, nil
}

func (s *threadService) publish(ctx context.Context, before, after dialogue.State, outcome dialogue.Outcome) {
	step := string(after.Control.CurrentStep)
	var out []events.Event
	if after.Control.Completed && !before.Control.Completed {
		out = append(out, events.ThreadEvent(events.ThreadCompleted, after.ThreadID, after.Workflow, step, ""))
	}
	switch outcome.Kind {
	case dialogue.Suspended:
		out = append(out, events.ThreadEvent(events.ThreadSuspended, after.ThreadID, after.Workflow, step, outcome.Request.Kind))
	case dialogue.Terminated:
		if !before.Ended() {
			out = append(out, events.ThreadEvent(events.ThreadTerminated, after.ThreadID, after.Workflow, step, ""))
		}
	}
	if len(out) == 0 {
		return
	}

	if s.publisher == nil {
		s.logger.Warn("THREAD", "Event publisher unavailable, dropping thread events", map[string]interface{}{
			"thread_id": after.ThreadID,
			"count":     len(out),
		})
		return
	}
	for _, e := range out {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Warn("THREAD", "Failed to publish thread event", map[string]interface{}{
				"thread_id": after.ThreadID,
				"type":      e.EventType(),
				"error":     err.Error(),
			})
		}
	}
}

func toThreadResponse(t *entity.Thread, outcome dialogue.Outcome, from int) *dto.ThreadResponse {
	res := &dto.ThreadResponse{
		Id:        t.Id,
		Workflow:  t.State.Workflow,
		Locale:    t.State.Locale,
		Status:    string(outcome.Kind),
		Step:      string(t.State.Control.CurrentStep),
		Completed: t.State.Control.Completed,
		Collected: make(map[string]string, len(t.State.Collected)),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Replies:   []dto.MessageResponse{},
	}
	if outcome.Request != nil {
		res.Request = &dto.SuspendRequestResponse{
			Kind:   outcome.Request.Kind,
			Prompt: outcome.Request.Prompt,
			Title:  outcome.Request.Title,
		}
	}
	for k, v := range t.State.Collected {
		// Upload bodies are not echoed back.
		if k == dialogue.FieldFileContent {
			continue
		}
		res.Collected[k] = v
	}
	if from < len(t.State.Transcript) {
		res.Replies = toMessages(t.State.Transcript[from:])
	}
	return res
}

func toMessages(msgs []dialogue.Message) []dto.MessageResponse {
	out := make([]dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dto.MessageResponse{Role: string(m.Role), Text: m.Text})
	}
	return out
}
