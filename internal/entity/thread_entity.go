package entity

import (
	"time"

	"screening-onboarding-be/pkg/dialogue"

	"github.com/google/uuid"
)

type Thread struct {
	Id        uuid.UUID
	State     dialogue.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status derives the outcome kind a stored thread was left in.
func (t *Thread) Status() dialogue.OutcomeKind {
	switch {
	case t.State.Ended():
		return dialogue.Terminated
	case t.State.Suspended():
		return dialogue.Suspended
	}
	return dialogue.Continuing
}
