// ABOUTME: User record with transcript, conversation state, and training bookkeeping
// ABOUTME: Created on first inbound message, keyed by the transport sender id
package models

import (
	"errors"
	"strings"
	"time"
)

// Role identifies who produced a transcript message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a user's conversation transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// User is the per-sender record the router operates on.
type User struct {
	ID         string            `json:"id"`
	Transcript []Message         `json:"transcript"`
	State      ConversationState `json:"state"`

	// Training bookkeeping.
	LastTrainingAt      *time.Time `json:"last_training_at,omitempty"`
	TrainingDataSize    int        `json:"training_data_size"`
	IsTraining          bool       `json:"is_training"`
	FineTuneJobID       string     `json:"fine_tune_job_id,omitempty"`
	PersonalizedModelID string     `json:"personalized_model_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a user in the Normal state with an empty transcript.
func NewUser(id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("user id cannot be empty")
	}
	now := time.Now().UTC()
	return &User{
		ID:         id,
		Transcript: []Message{},
		State:      NormalState(nil),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Append adds a message to the transcript.
func (u *User) Append(role, content string, at time.Time) {
	u.Transcript = append(u.Transcript, Message{Role: role, Content: content, Timestamp: at})
}

// RecentTranscript returns the last n transcript messages.
func (u *User) RecentTranscript(n int) []Message {
	if n <= 0 || len(u.Transcript) <= n {
		return u.Transcript
	}
	return u.Transcript[len(u.Transcript)-n:]
}
