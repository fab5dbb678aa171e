// ABOUTME: Activity log storage operations for SQLite
// ABOUTME: Unarchived counts gate the daily archive prompt
package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/jekbot/jek/internal/models"
)

// ActivityLogStore handles activity log persistence.
type ActivityLogStore struct {
	db *DB
}

// NewActivityLogStore creates a new ActivityLogStore.
func NewActivityLogStore(db *DB) *ActivityLogStore {
	return &ActivityLogStore{db: db}
}

// Save inserts an activity log entry.
func (s *ActivityLogStore) Save(log *models.ActivityLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO activity_logs (id, user_id, activity_type, details, activity_at, is_archived)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.ID, log.UserID, log.ActivityType, string(detailsJSON), log.ActivityAt, boolToInt(log.Archived))
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// CountUnarchived returns how many unarchived logs a user has.
func (s *ActivityLogStore) CountUnarchived(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM activity_logs WHERE user_id = ? AND is_archived = 0
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unarchived logs: %w", err)
	}
	return count, nil
}

// Unarchived returns a user's unarchived logs, oldest first.
func (s *ActivityLogStore) Unarchived(userID string) ([]models.ActivityLog, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, activity_type, details, activity_at, is_archived
		FROM activity_logs
		WHERE user_id = ? AND is_archived = 0
		ORDER BY activity_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unarchived logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []models.ActivityLog
	for rows.Next() {
		var (
			log         models.ActivityLog
			detailsJSON string
			archived    int
		)
		if err := rows.Scan(&log.ID, &log.UserID, &log.ActivityType, &detailsJSON, &log.ActivityAt, &archived); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(detailsJSON), &log.Details); err != nil {
			log.Details = map[string]string{}
		}
		log.Archived = archived != 0
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// ArchiveAll marks every unarchived log for the user as archived and
// returns how many rows changed.
func (s *ActivityLogStore) ArchiveAll(userID string) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE activity_logs SET is_archived = 1 WHERE user_id = ? AND is_archived = 0
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to archive logs: %w", err)
	}
	return res.RowsAffected()
}
