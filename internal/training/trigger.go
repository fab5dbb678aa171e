// ABOUTME: Deterministic predicates deciding when a personalization cycle may start
// ABOUTME: Pure functions over transcript stats and the latest classifications
package training

import (
	"time"

	"github.com/jekbot/jek/internal/models"
)

const (
	// MinTranscriptLen is the minimum data requirement.
	MinTranscriptLen = 10

	// MinDaysBetween enforces at most weekly training.
	MinDaysBetween = 7

	// MinNewMessages is the autonomous sweep's extra requirement: at
	// least this many messages since the last training snapshot.
	MinNewMessages = 5
)

// TriggerInput is everything the eligibility predicate looks at.
type TriggerInput struct {
	TranscriptLen  int
	LastTrainingAt *time.Time
	Now            time.Time
	Quality        models.Quality
	Style          models.Style
}

// ShouldTrain reports training eligibility: enough data, enough time since
// the last run (a user never trained is always time-eligible), usable
// quality, and a style that is not DIRECT (too little signal in very brief
// exchanges).
func ShouldTrain(in TriggerInput) bool {
	if in.TranscriptLen < MinTranscriptLen {
		return false
	}
	if in.LastTrainingAt != nil {
		days := in.Now.Sub(*in.LastTrainingAt).Hours() / 24
		if days < MinDaysBetween {
			return false
		}
	}
	if in.Quality != models.QualityHigh && in.Quality != models.QualityMedium {
		return false
	}
	if in.Style == models.StyleDirect {
		return false
	}
	return true
}

// HasNewData reports whether enough messages accumulated since the last
// training snapshot. Used only by the autonomous sweep, not manual starts.
func HasNewData(transcriptLen, lastTrainingDataSize int) bool {
	return transcriptLen-lastTrainingDataSize >= MinNewMessages
}
