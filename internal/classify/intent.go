// ABOUTME: Structured intent, fact, and reminder extraction over strict JSON contracts
// ABOUTME: Unparseable intent output falls back to "other"; extraction failures are errors
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/models"
)

// Intent classifies the purpose of a message into a structured record.
// On provider failure or malformed output the intent is "other".
func (c *Classifier) Intent(ctx context.Context, message string) models.Intent {
	system := `You classify the purpose of a user message for a personal assistant.

Respond with ONLY a JSON object: {"intent": ..., "keyword": ..., "feedback": ...}
- "intent" must be one of: "remember", "question", "reminder", "forget", "feedback", "other"
- "keyword" (optional): for "forget", the topic to forget; for "question", the subject asked about
- "feedback" (optional): for "feedback", the feedback text

No additional text.`

	fallback := models.Intent{Intent: models.IntentOther}

	out, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Messages:  []models.Message{{Role: models.RoleUser, Content: message}},
		MaxTokens: 150,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("intent classification failed, using fallback")
		return fallback
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &intent); err != nil {
		c.log.Warn().Err(err).Msg("intent output not valid JSON, using fallback")
		return fallback
	}

	switch intent.Intent {
	case models.IntentRemember, models.IntentQuestion, models.IntentReminder,
		models.IntentForget, models.IntentFeedback, models.IntentOther:
		return intent
	default:
		c.log.Warn().Str("intent", intent.Intent).Msg("unknown intent label, using fallback")
		return fallback
	}
}

// ExtractFact distills a durable statement about the user from a message.
// Returns "" when the message carries nothing worth remembering. Failures
// are returned to the caller, which treats them as a skipped extraction.
func (c *Classifier) ExtractFact(ctx context.Context, message string) (string, error) {
	system := `You extract durable personal facts from a user message.

A fact is a short statement about the user worth remembering long-term
(allergies, preferences, relationships, routines, possessions). Transient
chatter is not a fact.

Respond with ONLY a JSON object: {"fact": "..."} or {"fact": null} when
there is nothing to remember. Write the fact in the user's own language.`

	out, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Messages:  []models.Message{{Role: models.RoleUser, Content: message}},
		MaxTokens: 150,
	})
	if err != nil {
		return "", fmt.Errorf("fact extraction failed: %w", err)
	}

	var parsed struct {
		Fact *string `json:"fact"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return "", fmt.Errorf("fact output not valid JSON: %w", err)
	}
	if parsed.Fact == nil {
		return "", nil
	}
	return strings.TrimSpace(*parsed.Fact), nil
}

// ExtractedReminder is the parsed reminder request.
type ExtractedReminder struct {
	Description string
	DueAt       time.Time
}

// ExtractReminder parses a reminder request into description and due time.
// now anchors relative expressions like "besok pagi". A message that does
// not parse returns an error the handler turns into a corrective reply.
func (c *Classifier) ExtractReminder(ctx context.Context, message string, now time.Time) (ExtractedReminder, error) {
	system := fmt.Sprintf(`You extract a reminder from a user message.

The current time is %s.

Respond with ONLY a JSON object: {"description": "...", "due_at": "..."}
where due_at is an RFC 3339 timestamp. Resolve relative times against the
current time. If the message contains no reminder, respond with
{"description": null, "due_at": null}.`, now.Format(time.RFC3339))

	out, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Messages:  []models.Message{{Role: models.RoleUser, Content: message}},
		MaxTokens: 150,
	})
	if err != nil {
		return ExtractedReminder{}, fmt.Errorf("reminder extraction failed: %w", err)
	}

	var parsed struct {
		Description *string `json:"description"`
		DueAt       *string `json:"due_at"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return ExtractedReminder{}, fmt.Errorf("reminder output not valid JSON: %w", err)
	}
	if parsed.Description == nil || parsed.DueAt == nil {
		return ExtractedReminder{}, fmt.Errorf("message contains no reminder")
	}

	dueAt, err := time.Parse(time.RFC3339, *parsed.DueAt)
	if err != nil {
		return ExtractedReminder{}, fmt.Errorf("invalid reminder due time: %w", err)
	}
	return ExtractedReminder{Description: *parsed.Description, DueAt: dueAt}, nil
}
