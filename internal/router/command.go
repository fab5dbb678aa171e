// ABOUTME: Single-step parsing of inbound text into a closed command variant
// ABOUTME: First matching prefix wins; adding a command means adding a variant
package router

import (
	"strings"
)

// Command is the closed set of things an inbound message can ask for.
type Command interface{ isCommand() }

// LogActivity records an activity with typed details.
type LogActivity struct {
	ActivityType string
	Details      map[string]string
}

// SelectPersona switches the user's assistant persona.
type SelectPersona struct {
	PersonaID string
}

// PersonaInfo asks for the active persona's configuration.
type PersonaInfo struct{}

// StartTraining manually requests a personalization cycle.
type StartTraining struct{}

// Chat is the default: a message addressed to the assistant.
type Chat struct {
	Text string
}

// Ignore means the message was not addressed to the assistant at all.
type Ignore struct{}

func (LogActivity) isCommand()   {}
func (SelectPersona) isCommand() {}
func (PersonaInfo) isCommand()   {}
func (StartTraining) isCommand() {}
func (Chat) isCommand()          {}
func (Ignore) isCommand()        {}

// UsageError carries the corrective reply for a malformed command.
type UsageError struct {
	Reply string
}

func (e *UsageError) Error() string { return e.Reply }

// Command prefixes, checked in priority order. Matching is
// case-insensitive; the longest prefixes come first so "jek, catat"
// never falls through to plain chat.
const (
	prefixLogActivity   = "jek, catat"
	prefixSelectPersona = "jek, pilih ai"
	prefixPersonaInfo   = "jek, info ai"
	prefixStartTraining = "jek, mulai training"
	prefixChat          = "jek"
)

const logUsageReply = "Format salah. Gunakan: jek, catat [aktivitas]: [detail1] [nilai1], [detail2] [nilai2]"

// ParseCommand maps message text onto a command variant. A recognized
// command with unusable arguments returns a *UsageError.
func ParseCommand(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, prefixSelectPersona):
		args := strings.TrimSpace(trimmed[len(prefixSelectPersona):])
		args = strings.TrimSpace(strings.TrimPrefix(args, ":"))
		if args == "" {
			return nil, &UsageError{Reply: "Format salah. Gunakan: jek, pilih ai: [tipe-ai]"}
		}
		return SelectPersona{PersonaID: strings.ToLower(args)}, nil

	case strings.HasPrefix(lower, prefixPersonaInfo):
		return PersonaInfo{}, nil

	case strings.HasPrefix(lower, prefixStartTraining):
		return StartTraining{}, nil

	case strings.HasPrefix(lower, prefixLogActivity):
		rest := strings.TrimSpace(trimmed[len(prefixLogActivity):])
		activityType, detailsPart, ok := strings.Cut(rest, ":")
		activityType = strings.TrimSpace(activityType)
		if !ok || activityType == "" || strings.TrimSpace(detailsPart) == "" {
			return nil, &UsageError{Reply: logUsageReply}
		}
		return LogActivity{
			ActivityType: activityType,
			Details:      parseDetails(detailsPart),
		}, nil

	case strings.HasPrefix(lower, prefixChat):
		return Chat{Text: trimmed}, nil

	default:
		return Ignore{}, nil
	}
}

// parseDetails parses "durasi 30menit, intensitas tinggi" into key-value
// pairs: comma-separated entries, first token is the key, the rest the
// value. Entries without both parts are skipped.
func parseDetails(s string) map[string]string {
	details := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) < 2 {
			continue
		}
		details[fields[0]] = strings.Join(fields[1:], " ")
	}
	return details
}
