// ABOUTME: ConversationState as a closed tagged variant with a JSON discriminator
// ABOUTME: Exactly one state per user; stored as {"type": ..., fields...}
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateKind discriminates the conversation state variants.
type StateKind string

const (
	// StateNormal is the default state; commands and chat are dispatched.
	StateNormal StateKind = "normal"

	// StateAwaitingArchiveConfirmation means the daily archive prompt was
	// sent and the next message, whatever it says, resolves it.
	StateAwaitingArchiveConfirmation StateKind = "awaiting_daily_archive_confirmation"
)

// ConversationState is the per-user state variant. PromptedAt is carried
// across the transition back to Normal so the same calendar day is never
// prompted twice.
type ConversationState struct {
	Kind       StateKind  `json:"type"`
	PromptedAt *time.Time `json:"prompted_at,omitempty"`
}

// NormalState returns the Normal variant, optionally retaining the last
// prompt time.
func NormalState(promptedAt *time.Time) ConversationState {
	return ConversationState{Kind: StateNormal, PromptedAt: promptedAt}
}

// AwaitingArchiveState returns the confirmation-pending variant.
func AwaitingArchiveState(promptedAt time.Time) ConversationState {
	return ConversationState{Kind: StateAwaitingArchiveConfirmation, PromptedAt: &promptedAt}
}

// UnmarshalJSON validates the discriminator so unknown state blobs fail
// loudly instead of being probed field by field.
func (s *ConversationState) UnmarshalJSON(data []byte) error {
	type raw ConversationState
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case StateNormal, StateAwaitingArchiveConfirmation:
	case "":
		r.Kind = StateNormal
	default:
		return fmt.Errorf("unknown conversation state %q", r.Kind)
	}
	*s = ConversationState(r)
	return nil
}
