package handler

import (
	"context"
	"time"

	"screening-onboarding-be/internal/pkg/logger"
	internalWS "screening-onboarding-be/internal/websocket"
	"screening-onboarding-be/pkg/events"
	pktNats "screening-onboarding-be/pkg/nats"
)

const threadEventsDurable = "thread-event-relay"

// ThreadDelivery pushes a frame to the sockets watching a thread.
// Implemented by the websocket hub.
type ThreadDelivery interface {
	Send(threadID string, frame internalWS.Frame)
}

// ThreadEventHandler relays thread events from NATS to websocket clients,
// so a socket sees progress made through the REST API too.
type ThreadEventHandler struct {
	subscriber *pktNats.Subscriber
	delivery   ThreadDelivery
	logger     logger.ILogger
}

func NewThreadEventHandler(sub *pktNats.Subscriber, delivery ThreadDelivery, log logger.ILogger) *ThreadEventHandler {
	return &ThreadEventHandler{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

func (h *ThreadEventHandler) Start(ctx context.Context) {
	if err := h.subscriber.Subscribe(ctx, "thread.>", threadEventsDurable, h.HandleEvent); err != nil {
		h.logger.Error("ThreadEventHandler", "Failed to start thread event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	h.logger.Info("ThreadEventHandler", "Relaying thread events to websocket clients", nil)
}

func (h *ThreadEventHandler) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	threadID, _ := payload["thread_id"].(string)
	if threadID == "" {
		h.logger.Warn("ThreadEventHandler", "Event without thread id", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	h.delivery.Send(threadID, internalWS.Frame{
		Type: "event",
		Data: map[string]interface{}{
			"type":        event.EventType(),
			"data":        payload,
			"occurred_at": event.Timestamp().Format(time.RFC3339),
		},
	})
	return nil
}
