// ABOUTME: Classification label sets and the structured intent record
// ABOUTME: Each kind has a closed label set and a safe default
package models

// Consent is the result of agreement detection.
type Consent string

const (
	ConsentAgree    Consent = "AGREE"
	ConsentDisagree Consent = "DISAGREE"
	ConsentNeutral  Consent = "NEUTRAL"
)

// Sentiment is the result of sentiment analysis.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// TrainingIntent is whether the user wants a personalization cycle.
type TrainingIntent string

const (
	TrainingYes   TrainingIntent = "YES"
	TrainingNo    TrainingIntent = "NO"
	TrainingMaybe TrainingIntent = "MAYBE"
)

// Quality grades a transcript for training value.
type Quality string

const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
)

// Style is the user's detected communication style.
type Style string

const (
	StyleFormal   Style = "FORMAL"
	StyleCasual   Style = "CASUAL"
	StyleDirect   Style = "DIRECT"
	StyleDetailed Style = "DETAILED"
)

// Intent kinds produced by the structured intent classification.
const (
	IntentRemember = "remember"
	IntentQuestion = "question"
	IntentReminder = "reminder"
	IntentForget   = "forget"
	IntentFeedback = "feedback"
	IntentOther    = "other"
)

// Intent is the structured record parsed from the classifier's JSON
// contract. Keyword and Feedback are optional and intent-dependent.
type Intent struct {
	Intent   string `json:"intent"`
	Keyword  string `json:"keyword,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}
