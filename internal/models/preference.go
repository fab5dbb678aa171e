// ABOUTME: AIPreference is the per-user persona selection with upsert semantics
// ABOUTME: At most one active preference per user
package models

import "time"

// AIPreference records which assistant persona a user selected.
type AIPreference struct {
	UserID      string    `json:"user_id"`
	PersonaID   string    `json:"persona_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FocusAreas  []string  `json:"focus_areas"`
	UpdatedAt   time.Time `json:"updated_at"`
}
