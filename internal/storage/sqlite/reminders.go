// ABOUTME: Reminder storage operations for SQLite
// ABOUTME: Due query serves the poller; MarkSent is the single allowed mutation
package sqlite

import (
	"fmt"
	"time"

	"github.com/jekbot/jek/internal/models"
)

// ReminderStore handles reminder persistence.
type ReminderStore struct {
	db *DB
}

// NewReminderStore creates a new ReminderStore.
func NewReminderStore(db *DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Save inserts a pending reminder.
func (s *ReminderStore) Save(rem *models.Reminder) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, user_id, due_at, description, sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rem.ID, rem.UserID, rem.DueAt, rem.Description, boolToInt(rem.Sent), rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	return nil
}

// Due returns pending reminders whose due time is at or before now.
// Ordering within one poll is not guaranteed to callers.
func (s *ReminderStore) Due(now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, due_at, description, sent, created_at
		FROM reminders
		WHERE sent = 0 AND due_at <= ?
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReminders(rows)
}

// ListPending returns all unsent reminders, soonest first.
func (s *ReminderStore) ListPending() ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, due_at, description, sent, created_at
		FROM reminders
		WHERE sent = 0
		ORDER BY due_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReminders(rows)
}

// MarkSent flips the sent flag. Sent is terminal; rows never flip back.
func (s *ReminderStore) MarkSent(id string) error {
	_, err := s.db.Exec(`UPDATE reminders SET sent = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// DeleteByUser removes all reminders for a user.
func (s *ReminderStore) DeleteByUser(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM reminders WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	return nil
}

func scanReminders(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]models.Reminder, error) {
	var reminders []models.Reminder
	for rows.Next() {
		var (
			rem  models.Reminder
			sent int
		)
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.DueAt, &rem.Description, &sent, &rem.CreatedAt); err != nil {
			return nil, err
		}
		rem.Sent = sent != 0
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
