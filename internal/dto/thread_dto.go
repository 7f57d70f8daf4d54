package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type StartThreadRequest struct {
	Workflow string `json:"workflow" validate:"omitempty,oneof=onboarding docs_qa error_help request_validation"`
	Locale   string `json:"locale" validate:"omitempty,oneof=en de"`
	// Text is an optional first user turn.
	Text string `json:"text"`
}

// AdvanceThreadRequest carries either a user turn or a resume payload.
type AdvanceThreadRequest struct {
	Text    string          `json:"text"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SuspendRequestResponse struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
	Title  string `json:"title,omitempty"`
}

type MessageResponse struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ThreadResponse struct {
	Id        uuid.UUID               `json:"id"`
	Workflow  string                  `json:"workflow"`
	Locale    string                  `json:"locale"`
	Status    string                  `json:"status"`
	Step      string                  `json:"step"`
	Completed bool                    `json:"completed"`
	Request   *SuspendRequestResponse `json:"request,omitempty"`
	Collected map[string]string       `json:"collected"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`

	// Replies are the messages added by this call.
	Replies []MessageResponse `json:"replies"`
}

type TranscriptResponse struct {
	Id       uuid.UUID         `json:"id"`
	Messages []MessageResponse `json:"messages"`
}
