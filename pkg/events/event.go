package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType is the subject suffix, e.g. "thread.suspended".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const (
	ThreadSuspended  = "thread.suspended"
	ThreadCompleted  = "thread.completed"
	ThreadTerminated = "thread.terminated"
	CorpusBuilt      = "corpus.built"
	CorpusFailed     = "corpus.failed"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// ThreadEvent reports a thread outcome. Kind is set for suspensions.
func ThreadEvent(eventType, threadID, workflow, step, kind string) BaseEvent {
	data := map[string]interface{}{
		"thread_id": threadID,
		"workflow":  workflow,
		"step":      step,
	}
	if kind != "" {
		data["kind"] = kind
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

// CorpusEvent reports the result of a corpus build.
func CorpusEvent(eventType, corpus string, documents, chunks int, cause error) BaseEvent {
	data := map[string]interface{}{
		"corpus":    corpus,
		"documents": documents,
		"chunks":    chunks,
	}
	if cause != nil {
		data["error"] = cause.Error()
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}
