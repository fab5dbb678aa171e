// ABOUTME: Classification adapter over the completion client
// ABOUTME: Invalid or failed classifications degrade to safe defaults, never errors
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/models"
)

// Completer is the single provider call the classifier depends on.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Classifier wraps label classifications with validation and fallbacks.
// The fallback-on-ambiguity policy is deliberate: a failed classification
// degrades the answer, it never aborts the conversation turn.
type Classifier struct {
	completer Completer
	log       zerolog.Logger
}

// New creates a Classifier.
func New(completer Completer, log zerolog.Logger) *Classifier {
	return &Classifier{completer: completer, log: log}
}

// classifyLabel runs one label classification and returns the default on
// any failure or out-of-set output. This is the single place fallback
// substitution happens.
func (c *Classifier) classifyLabel(ctx context.Context, system, input string, allowed []string, fallback string) string {
	out, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Messages:  []models.Message{{Role: models.RoleUser, Content: input}},
		MaxTokens: 100,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("classification call failed, using fallback")
		return fallback
	}

	label := strings.ToUpper(strings.TrimSpace(out))
	for _, a := range allowed {
		if label == a {
			return label
		}
	}
	c.log.Warn().Str("label", label).Msg("classification outside allowed set, using fallback")
	return fallback
}

// Consent detects agreement in a user response. Default NEUTRAL.
func (c *Classifier) Consent(ctx context.Context, message, contextNote string) models.Consent {
	system := fmt.Sprintf(`You are an AI that analyzes user responses to detect agreement, consent, or positive responses.

Analyze the user's message and respond with ONLY one of these categories:
- "AGREE" - if user agrees, consents, or gives positive response
- "DISAGREE" - if user disagrees, refuses, or gives negative response
- "NEUTRAL" - if response is unclear or neutral

Context: %s

Respond with only the category, nothing else.`, contextNote)

	label := c.classifyLabel(ctx, system, message,
		[]string{"AGREE", "DISAGREE", "NEUTRAL"}, string(models.ConsentNeutral))
	return models.Consent(label)
}

// Sentiment classifies message sentiment. Default NEUTRAL.
func (c *Classifier) Sentiment(ctx context.Context, message string) models.Sentiment {
	system := `Analyze the sentiment of the user message and respond with ONLY:
- "POSITIVE" - happy, satisfied, enthusiastic
- "NEGATIVE" - angry, frustrated, dissatisfied
- "NEUTRAL" - neutral, factual, unclear

Respond with only the sentiment, nothing else.`

	label := c.classifyLabel(ctx, system, message,
		[]string{"POSITIVE", "NEGATIVE", "NEUTRAL"}, string(models.SentimentNeutral))
	return models.Sentiment(label)
}

// TrainingIntent detects whether the user wants a training cycle. Default MAYBE.
func (c *Classifier) TrainingIntent(ctx context.Context, message string) models.TrainingIntent {
	system := `Analyze if the user wants to proceed with AI training and respond with ONLY:
- "YES" - user wants to train, improve, or proceed with training
- "NO" - user doesn't want to train or is satisfied with current state
- "MAYBE" - unclear or conditional response

Respond with only YES/NO/MAYBE, nothing else.`

	label := c.classifyLabel(ctx, system, message,
		[]string{"YES", "NO", "MAYBE"}, string(models.TrainingMaybe))
	return models.TrainingIntent(label)
}

// Quality grades a transcript's training value. Default MEDIUM.
func (c *Classifier) Quality(ctx context.Context, transcript []models.Message) models.Quality {
	system := `Analyze the quality of this conversation for AI training and respond with:
- "HIGH" - good quality, diverse topics, clear responses
- "MEDIUM" - decent quality, some useful data
- "LOW" - poor quality, repetitive, unclear

Consider: topic diversity, response clarity, conversation depth, and training value.

Respond with only the quality level, nothing else.`

	label := c.classifyLabel(ctx, system, formatTranscript(transcript),
		[]string{"HIGH", "MEDIUM", "LOW"}, string(models.QualityMedium))
	return models.Quality(label)
}

// Style detects the user's communication style. Default CASUAL.
func (c *Classifier) Style(ctx context.Context, transcript []models.Message) models.Style {
	system := `Analyze the user's communication style and respond with ONLY:
- "FORMAL" - professional, polite, structured
- "CASUAL" - friendly, relaxed, informal
- "DIRECT" - brief, to-the-point, concise
- "DETAILED" - thorough, explanatory, verbose

Respond with only the style, nothing else.`

	label := c.classifyLabel(ctx, system, formatTranscript(transcript),
		[]string{"FORMAL", "CASUAL", "DIRECT", "DETAILED"}, string(models.StyleCasual))
	return models.Style(label)
}

func formatTranscript(transcript []models.Message) string {
	var b strings.Builder
	for _, m := range transcript {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
