// ABOUTME: Reminder with a Pending -> Sent lifecycle driven by the poller
// ABOUTME: The sent flag flips exactly once and never back
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reminder is a time-based message owed to a user.
type Reminder struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DueAt       time.Time `json:"due_at"`
	Description string    `json:"description"`
	Sent        bool      `json:"sent"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewReminder creates a pending reminder with validation.
func NewReminder(userID, description string, dueAt time.Time) (*Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("reminder user id cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("reminder description cannot be empty")
	}
	return &Reminder{
		ID:          fmt.Sprintf("rem_%s", uuid.New().String()),
		UserID:      userID,
		DueAt:       dueAt.UTC(),
		Description: description,
		Sent:        false,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
