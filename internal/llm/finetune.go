// ABOUTME: Fine-tuning operations: training file upload, job creation, status
// ABOUTME: Used by the trainer and the status sweep
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Fine-tune job states as reported by the provider.
const (
	FineTuneSucceeded = "succeeded"
	FineTuneFailed    = "failed"
	FineTuneCancelled = "cancelled"
)

// FineTuneStatus is a snapshot of a fine-tuning job.
type FineTuneStatus struct {
	Status        string
	ModelID       string
	TrainedTokens int
}

// UploadTrainingFile uploads JSONL training data and returns the file id.
func (c *Client) UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	file, err := c.api.CreateFileBytes(callCtx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeFineTune,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload training file: %w", err)
	}
	return file.ID, nil
}

// CreateFineTune starts a fine-tuning job on the uploaded file and returns
// the job id.
func (c *Client) CreateFineTune(ctx context.Context, fileID, suffix string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	job, err := c.api.CreateFineTuningJob(callCtx, openai.FineTuningJobRequest{
		TrainingFile: fileID,
		Model:        "gpt-3.5-turbo",
		Suffix:       suffix,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create fine-tuning job: %w", err)
	}
	return job.ID, nil
}

// FineTuneJobStatus retrieves the current state of a fine-tuning job.
func (c *Client) FineTuneJobStatus(ctx context.Context, jobID string) (FineTuneStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	job, err := c.api.RetrieveFineTuningJob(callCtx, jobID)
	if err != nil {
		return FineTuneStatus{}, fmt.Errorf("failed to retrieve fine-tuning job: %w", err)
	}
	return FineTuneStatus{
		Status:        job.Status,
		ModelID:       job.FineTunedModel,
		TrainedTokens: job.TrainedTokens,
	}, nil
}
