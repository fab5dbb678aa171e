// ABOUTME: User storage operations for SQLite
// ABOUTME: Transcript and state live as JSON documents in the user row
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jekbot/jek/internal/models"
)

// UserStore handles user persistence.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreate fetches a user, creating one in the Normal state on first
// contact.
func (s *UserStore) GetOrCreate(id string) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = models.NewUser(id)
	if err != nil {
		return nil, err
	}
	if err := s.insert(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by id, nil when absent.
func (s *UserStore) Get(id string) (*models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, transcript, state, last_training_at, training_data_size,
		       is_training, fine_tune_job_id, personalized_model_id,
		       created_at, updated_at
		FROM users WHERE id = ?
	`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns every user, for scheduler sweeps.
func (s *UserStore) List() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, transcript, state, last_training_at, training_data_size,
		       is_training, fine_tune_job_id, personalized_model_id,
		       created_at, updated_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// ListTraining returns users with a fine-tune job in flight.
func (s *UserStore) ListTraining() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, transcript, state, last_training_at, training_data_size,
		       is_training, fine_tune_job_id, personalized_model_id,
		       created_at, updated_at
		FROM users WHERE is_training = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list training users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Save persists the full user record.
func (s *UserStore) Save(user *models.User) error {
	transcriptJSON, err := json.Marshal(user.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	stateJSON, err := json.Marshal(user.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	user.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(`
		UPDATE users SET
			transcript = ?, state = ?, last_training_at = ?,
			training_data_size = ?, is_training = ?, fine_tune_job_id = ?,
			personalized_model_id = ?, updated_at = ?
		WHERE id = ?
	`, string(transcriptJSON), string(stateJSON), nullTime(user.LastTrainingAt),
		user.TrainingDataSize, boolToInt(user.IsTraining), nullString(user.FineTuneJobID),
		nullString(user.PersonalizedModelID), user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Delete removes a user row; embeddings cascade.
func (s *UserStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStore) insert(user *models.User) error {
	transcriptJSON, err := json.Marshal(user.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	stateJSON, err := json.Marshal(user.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, transcript, state, training_data_size, is_training, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, string(transcriptJSON), string(stateJSON),
		user.TrainingDataSize, boolToInt(user.IsTraining), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// rowScanner lets scanUser work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user           models.User
		transcriptJSON string
		stateJSON      string
		lastTraining   sql.NullTime
		isTraining     int
		jobID          sql.NullString
		modelID        sql.NullString
	)

	err := row.Scan(&user.ID, &transcriptJSON, &stateJSON, &lastTraining,
		&user.TrainingDataSize, &isTraining, &jobID, &modelID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(transcriptJSON), &user.Transcript); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &user.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if lastTraining.Valid {
		t := lastTraining.Time
		user.LastTrainingAt = &t
	}
	user.IsTraining = isTraining != 0
	if jobID.Valid {
		user.FineTuneJobID = jobID.String
	}
	if modelID.Valid {
		user.PersonalizedModelID = modelID.String
	}

	return &user, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
