// ABOUTME: Persona preference storage operations for SQLite
// ABOUTME: Upsert semantics keep at most one preference per user
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jekbot/jek/internal/models"
)

// PreferenceStore handles persona preference persistence.
type PreferenceStore struct {
	db *DB
}

// NewPreferenceStore creates a new PreferenceStore.
func NewPreferenceStore(db *DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// Upsert replaces the user's persona preference.
func (s *PreferenceStore) Upsert(pref *models.AIPreference) error {
	focusJSON, err := json.Marshal(pref.FocusAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal focus areas: %w", err)
	}

	pref.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO ai_preferences (user_id, persona_id, name, description, focus_areas, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			persona_id = excluded.persona_id,
			name = excluded.name,
			description = excluded.description,
			focus_areas = excluded.focus_areas,
			updated_at = excluded.updated_at
	`, pref.UserID, pref.PersonaID, pref.Name, pref.Description, string(focusJSON), pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

// Get retrieves the user's preference, nil when none is set.
func (s *PreferenceStore) Get(userID string) (*models.AIPreference, error) {
	row := s.db.QueryRow(`
		SELECT user_id, persona_id, name, description, focus_areas, updated_at
		FROM ai_preferences WHERE user_id = ?
	`, userID)

	var (
		pref      models.AIPreference
		focusJSON string
	)
	err := row.Scan(&pref.UserID, &pref.PersonaID, &pref.Name, &pref.Description, &focusJSON, &pref.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	if err := json.Unmarshal([]byte(focusJSON), &pref.FocusAreas); err != nil {
		pref.FocusAreas = []string{}
	}
	return &pref, nil
}

// Delete removes the user's preference.
func (s *PreferenceStore) Delete(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM ai_preferences WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}
