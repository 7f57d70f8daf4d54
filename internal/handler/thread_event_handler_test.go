package handler

import (
	"context"
	"testing"

	"screening-onboarding-be/internal/pkg/logger"
	internalWS "screening-onboarding-be/internal/websocket"
	"screening-onboarding-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	threadID string
	frame    internalWS.Frame
}

type fakeDelivery struct {
	sent []sent
}

func (f *fakeDelivery) Send(threadID string, frame internalWS.Frame) {
	f.sent = append(f.sent, sent{threadID, frame})
}

func TestHandleEvent(t *testing.T) {
	delivery := &fakeDelivery{}
	h := NewThreadEventHandler(nil, delivery, logger.NewNop())

	err := h.HandleEvent(context.Background(), events.ThreadEvent(events.ThreadSuspended, "t-1", "onboarding", "client_code", "client_code"))
	require.NoError(t, err)
	require.Len(t, delivery.sent, 1)
	assert.Equal(t, "t-1", delivery.sent[0].threadID)
	assert.Equal(t, "event", delivery.sent[0].frame.Type)
	data := delivery.sent[0].frame.Data.(map[string]interface{})
	assert.Equal(t, events.ThreadSuspended, data["type"])

	// Corpus events carry no thread and are skipped.
	err = h.HandleEvent(context.Background(), events.CorpusEvent(events.CorpusBuilt, "documentation", 1, 2, nil))
	require.NoError(t, err)
	assert.Len(t, delivery.sent, 1)
}
