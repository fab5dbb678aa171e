// ABOUTME: Fine-tune lifecycle: dataset build, job start, status bookkeeping
// ABOUTME: Users carry the job id and data-size snapshot while a job runs
package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/models"
	"github.com/jekbot/jek/internal/persona"
)

// FineTuner is the provider surface the trainer needs.
type FineTuner interface {
	UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error)
	CreateFineTune(ctx context.Context, fileID, suffix string) (string, error)
	FineTuneJobStatus(ctx context.Context, jobID string) (llm.FineTuneStatus, error)
}

// UserSaver persists user training bookkeeping.
type UserSaver interface {
	Save(user *models.User) error
}

// PreferenceGetter loads a user's persona preference.
type PreferenceGetter interface {
	Get(userID string) (*models.AIPreference, error)
}

// Trainer starts fine-tune jobs and reconciles their status into user
// records.
type Trainer struct {
	finetuner FineTuner
	users     UserSaver
	prefs     PreferenceGetter
	log       zerolog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(finetuner FineTuner, users UserSaver, prefs PreferenceGetter, log zerolog.Logger) *Trainer {
	return &Trainer{finetuner: finetuner, users: users, prefs: prefs, log: log}
}

// trainingExample is one JSONL line in the provider's chat fine-tune format.
type trainingExample struct {
	Messages []models.Message `json:"messages"`
}

// BuildDataset converts the transcript into system/user/assistant triples,
// one JSONL line per exchange. Returns the encoded data and the example
// count; zero examples means there is nothing to train on.
func (t *Trainer) BuildDataset(user *models.User) ([]byte, int, error) {
	pref, err := t.prefs.Get(user.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load preference: %w", err)
	}
	system := persona.SystemPrompt(pref, nil)

	var (
		buf   bytes.Buffer
		count int
	)
	enc := json.NewEncoder(&buf)
	transcript := user.Transcript
	for i := 0; i+1 < len(transcript); i++ {
		if transcript[i].Role != models.RoleUser || transcript[i+1].Role != models.RoleAssistant {
			continue
		}
		example := trainingExample{Messages: []models.Message{
			{Role: "system", Content: system},
			{Role: models.RoleUser, Content: transcript[i].Content},
			{Role: models.RoleAssistant, Content: transcript[i+1].Content},
		}}
		if err := enc.Encode(example); err != nil {
			return nil, 0, fmt.Errorf("failed to encode training example: %w", err)
		}
		count++
		i++ // consume the assistant message too
	}

	return buf.Bytes(), count, nil
}

// Start uploads the dataset, creates the job, and records the in-flight
// state on the user.
func (t *Trainer) Start(ctx context.Context, user *models.User) error {
	if user.IsTraining {
		return fmt.Errorf("user %s already has a training job in flight", user.ID)
	}

	data, count, err := t.BuildDataset(user)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no training data available for user %s", user.ID)
	}

	fileID, err := t.finetuner.UploadTrainingFile(ctx, fmt.Sprintf("jek-%s.jsonl", user.ID), data)
	if err != nil {
		return fmt.Errorf("failed to upload dataset: %w", err)
	}

	jobID, err := t.finetuner.CreateFineTune(ctx, fileID, fmt.Sprintf("personal-%s", user.ID))
	if err != nil {
		return fmt.Errorf("failed to start fine-tune: %w", err)
	}

	user.IsTraining = true
	user.FineTuneJobID = jobID
	user.TrainingDataSize = len(user.Transcript)
	if err := t.users.Save(user); err != nil {
		return fmt.Errorf("failed to record training start: %w", err)
	}

	t.log.Info().Str("user", user.ID).Str("job", jobID).Int("examples", count).Msg("fine-tune started")
	return nil
}

// Reconcile checks the job status for one in-flight user and applies the
// terminal transitions: succeeded records the personalized model, failed
// clears the job. Non-terminal states leave the user untouched.
func (t *Trainer) Reconcile(ctx context.Context, user *models.User, now time.Time) error {
	if !user.IsTraining || user.FineTuneJobID == "" {
		return nil
	}

	status, err := t.finetuner.FineTuneJobStatus(ctx, user.FineTuneJobID)
	if err != nil {
		return fmt.Errorf("failed to check job %s: %w", user.FineTuneJobID, err)
	}

	switch status.Status {
	case llm.FineTuneSucceeded:
		trainedAt := now.UTC()
		user.PersonalizedModelID = status.ModelID
		user.IsTraining = false
		user.LastTrainingAt = &trainedAt
		if err := t.users.Save(user); err != nil {
			return fmt.Errorf("failed to record training success: %w", err)
		}
		t.log.Info().Str("user", user.ID).Str("model", status.ModelID).Msg("training completed")
	case llm.FineTuneFailed, llm.FineTuneCancelled:
		user.IsTraining = false
		user.FineTuneJobID = ""
		if err := t.users.Save(user); err != nil {
			return fmt.Errorf("failed to record training failure: %w", err)
		}
		t.log.Warn().Str("user", user.ID).Str("status", status.Status).Msg("training did not complete")
	}
	return nil
}
