// ABOUTME: ActivityLog captures a "jek, catat" entry with typed details
// ABOUTME: Unarchived logs drive the daily archive prompt
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityLog is one recorded activity with free-form key-value details.
type ActivityLog struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	ActivityType string            `json:"activity_type"`
	Details      map[string]string `json:"details"`
	ActivityAt   time.Time         `json:"activity_at"`
	Archived     bool              `json:"is_archived"`
}

// NewActivityLog creates an unarchived log entry.
func NewActivityLog(userID, activityType string, details map[string]string) (*ActivityLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("activity log user id cannot be empty")
	}
	if strings.TrimSpace(activityType) == "" {
		return nil, errors.New("activity type cannot be empty")
	}
	if details == nil {
		details = map[string]string{}
	}
	return &ActivityLog{
		ID:           fmt.Sprintf("log_%s", uuid.New().String()),
		UserID:       userID,
		ActivityType: activityType,
		Details:      details,
		ActivityAt:   time.Now().UTC(),
		Archived:     false,
	}, nil
}
