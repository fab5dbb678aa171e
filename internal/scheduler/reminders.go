// ABOUTME: Polling dispatcher for due reminders with at-least-once delivery
// ABOUTME: Send happens before MarkSent, so a crash between the two re-sends
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/models"
)

// ReminderStore is the slice of storage the poller needs.
type ReminderStore interface {
	Due(now time.Time) ([]models.Reminder, error)
	MarkSent(id string) error
}

// ReminderPoller scans for due reminders on a fixed interval and
// dispatches them. Delivery is at least once: the reminder is marked
// sent only after the send succeeds, so a crash in between produces a
// duplicate rather than a silent drop.
type ReminderPoller struct {
	store    ReminderStore
	sender   gateway.Sender
	metrics  *metrics.Metrics
	log      zerolog.Logger
	interval time.Duration
	clock    Clock
}

func NewReminderPoller(store ReminderStore, sender gateway.Sender, m *metrics.Metrics, log zerolog.Logger, interval time.Duration, clock Clock) *ReminderPoller {
	if clock == nil {
		clock = SystemClock()
	}
	return &ReminderPoller{
		store:    store,
		sender:   sender,
		metrics:  m,
		log:      log,
		interval: interval,
		clock:    clock,
	}
}

// Run polls until ctx is cancelled.
func (p *ReminderPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.log.Error().Err(err).Msg("reminder poll failed")
			}
		}
	}
}

// RunOnce dispatches every currently-due reminder. A failure on one
// reminder is logged and skipped; the rest of the batch still goes out.
func (p *ReminderPoller) RunOnce(ctx context.Context) error {
	due, err := p.store.Due(p.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to list due reminders: %w", err)
	}

	for _, rem := range due {
		out := gateway.Outbound{
			RecipientID: rem.UserID,
			Text:        "⏰ Pengingat: " + rem.Description,
		}
		if err := p.sender.Send(ctx, out); err != nil {
			p.log.Warn().Err(err).Str("reminder", rem.ID).Str("user", rem.UserID).Msg("failed to deliver reminder")
			continue
		}
		if err := p.store.MarkSent(rem.ID); err != nil {
			// Delivered but not recorded; the next poll re-sends it.
			p.log.Warn().Err(err).Str("reminder", rem.ID).Msg("failed to mark reminder sent")
			continue
		}
		p.metrics.RemindersSentTotal.Inc()
	}
	return nil
}
