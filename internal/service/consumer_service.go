package service

import (
	"context"
	"encoding/json"

	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/events"
	"screening-onboarding-be/pkg/rag/index"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs corpus builds one message at a time, so at most one
// build per process is in flight.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	index      CorpusIndex
	events     EventPublisher
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	idx CorpusIndex,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		index:      idx,
		events:     eventPublisher,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishCorpusBuildMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal build request", map[string]interface{}{"error": err.Error()})
		// A broken payload never gets better; drop it.
		msg.Ack()
		return
	}

	details := map[string]interface{}{
		"corpus":     payload.Corpus,
		"source_dir": payload.SourceDir,
		"fresh":      payload.Fresh,
		"request_id": payload.RequestId,
	}
	cs.logger.Info("CONSUMER", "Processing corpus build", details)

	var (
		report index.IngestReport
		err    error
	)
	if payload.Fresh {
		report, err = cs.index.RebuildFresh(ctx, payload.Corpus, payload.SourceDir, true)
	} else {
		var built bool
		built, err = cs.index.EnsureBuilt(ctx, payload.Corpus, payload.SourceDir)
		if err == nil && !built {
			cs.logger.Info("CONSUMER", "Corpus already built, nothing to do", details)
			msg.Ack()
			return
		}
	}

	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error("CONSUMER", "Corpus build failed", details)
		cs.emit(ctx, events.CorpusEvent(events.CorpusFailed, payload.Corpus, 0, 0, err))
		msg.Ack()
		return
	}

	details["documents"] = report.Documents
	details["chunks"] = report.Chunks
	cs.logger.Info("CONSUMER", "Corpus built", details)
	cs.emit(ctx, events.CorpusEvent(events.CorpusBuilt, payload.Corpus, report.Documents, report.Chunks, nil))
	msg.Ack()
}

func (cs *consumerService) emit(ctx context.Context, e events.Event) {
	if cs.events == nil {
		return
	}
	if err := cs.events.Publish(ctx, e); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to publish corpus event", map[string]interface{}{
			"type":  e.EventType(),
			"error": err.Error(),
		})
	}
}
