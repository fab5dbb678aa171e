// ABOUTME: Background sweeps for the personalization lifecycle: reconcile
// ABOUTME: in-flight jobs and auto-start training for eligible users
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/locks"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/models"
	"github.com/jekbot/jek/internal/training"
)

// UserLister is the slice of user storage the sweeps need. List and
// ListTraining choose candidates; Get re-reads one under the user's
// lock before any mutation, so a message turn committed after the list
// snapshot is never clobbered.
type UserLister interface {
	List() ([]models.User, error)
	ListTraining() ([]models.User, error)
	Get(id string) (*models.User, error)
}

// Reconciler applies terminal fine-tune job states to a user.
type Reconciler interface {
	Reconcile(ctx context.Context, user *models.User, now time.Time) error
}

// Starter kicks off a training cycle for a user.
type Starter interface {
	Start(ctx context.Context, user *models.User) error
}

// TranscriptGrader classifies a transcript for training eligibility.
type TranscriptGrader interface {
	Quality(ctx context.Context, transcript []models.Message) models.Quality
	Style(ctx context.Context, transcript []models.Message) models.Style
}

// TrainingSweeper runs two periodic jobs: a status sweep that reconciles
// in-flight fine-tune jobs, and a trigger sweep that starts training for
// users who have become eligible since their last cycle.
type TrainingSweeper struct {
	users      UserLister
	reconciler Reconciler
	starter    Starter
	grader     TranscriptGrader
	sender     gateway.Sender
	locks      *locks.Keyed
	metrics    *metrics.Metrics
	log        zerolog.Logger

	statusInterval  time.Duration
	triggerInterval time.Duration
	clock           Clock
}

func NewTrainingSweeper(users UserLister, reconciler Reconciler, starter Starter, grader TranscriptGrader, sender gateway.Sender, keyed *locks.Keyed, m *metrics.Metrics, log zerolog.Logger, statusInterval, triggerInterval time.Duration, clock Clock) *TrainingSweeper {
	if clock == nil {
		clock = SystemClock()
	}
	if keyed == nil {
		keyed = locks.NewKeyed()
	}
	return &TrainingSweeper{
		users:           users,
		reconciler:      reconciler,
		starter:         starter,
		grader:          grader,
		sender:          sender,
		locks:           keyed,
		metrics:         m,
		log:             log,
		statusInterval:  statusInterval,
		triggerInterval: triggerInterval,
		clock:           clock,
	}
}

// Run drives both sweeps until ctx is cancelled.
func (s *TrainingSweeper) Run(ctx context.Context) {
	statusTicker := time.NewTicker(s.statusInterval)
	defer statusTicker.Stop()
	triggerTicker := time.NewTicker(s.triggerInterval)
	defer triggerTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTicker.C:
			if err := s.SweepStatus(ctx); err != nil {
				s.log.Error().Err(err).Msg("training status sweep failed")
			}
		case <-triggerTicker.C:
			if err := s.SweepTriggers(ctx); err != nil {
				s.log.Error().Err(err).Msg("training trigger sweep failed")
			}
		}
	}
}

// SweepStatus reconciles every user with an in-flight fine-tune job.
// Per-user failures are logged and skipped.
func (s *TrainingSweeper) SweepStatus(ctx context.Context) error {
	users, err := s.users.ListTraining()
	if err != nil {
		return fmt.Errorf("failed to list training users: %w", err)
	}

	now := s.clock.Now()
	for i := range users {
		user, err := s.reconcileOne(ctx, users[i].ID, now)
		if err != nil {
			s.log.Warn().Err(err).Str("user", users[i].ID).Msg("failed to reconcile fine-tune job")
			continue
		}
		if user == nil || user.IsTraining {
			continue
		}
		if user.PersonalizedModelID != "" {
			s.metrics.TrainingJobsTotal.WithLabelValues("succeeded").Inc()
			s.notify(ctx, user.ID, "🎉 AI personal Anda sudah siap! Mulai sekarang saya menjawab dengan model yang dilatih dari percakapan kita.")
		} else {
			s.metrics.TrainingJobsTotal.WithLabelValues("failed").Inc()
			s.notify(ctx, user.ID, "Maaf, proses training AI personal Anda gagal. Saya akan mencoba lagi nanti.")
		}
	}
	return nil
}

// reconcileOne re-reads and reconciles a single user under their lock.
// The ListTraining snapshot may be stale by the time we get here; only
// the freshly read record is mutated and saved. Returns nil if the user
// is gone or no longer training.
func (s *TrainingSweeper) reconcileOne(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	unlock := s.locks.Acquire(userID)
	defer unlock()

	user, err := s.users.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	if user == nil || !user.IsTraining {
		return nil, nil
	}
	if err := s.reconciler.Reconcile(ctx, user, now); err != nil {
		return nil, err
	}
	return user, nil
}

// SweepTriggers starts training for users who meet the automatic
// criteria: eligible by the trigger rules and carrying enough new
// conversation since the last cycle.
func (s *TrainingSweeper) SweepTriggers(ctx context.Context) error {
	users, err := s.users.List()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	now := s.clock.Now()
	for i := range users {
		// The snapshot only pre-screens; the real decision is re-made on
		// a fresh read under the user's lock.
		if users[i].IsTraining {
			continue
		}
		if !training.HasNewData(len(users[i].Transcript), users[i].TrainingDataSize) {
			continue
		}

		started, err := s.triggerOne(ctx, users[i].ID, now)
		if err != nil {
			s.log.Warn().Err(err).Str("user", users[i].ID).Msg("failed to auto-start training")
			s.metrics.TrainingJobsTotal.WithLabelValues("start_failed").Inc()
			continue
		}
		if started {
			s.metrics.TrainingJobsTotal.WithLabelValues("started").Inc()
			s.log.Info().Str("user", users[i].ID).Msg("auto-started training cycle")
		}
	}
	return nil
}

// triggerOne re-checks eligibility on a fresh read under the user's
// lock and starts training if it still holds.
func (s *TrainingSweeper) triggerOne(ctx context.Context, userID string, now time.Time) (bool, error) {
	unlock := s.locks.Acquire(userID)
	defer unlock()

	user, err := s.users.Get(userID)
	if err != nil {
		return false, fmt.Errorf("failed to reload user: %w", err)
	}
	if user == nil || user.IsTraining {
		return false, nil
	}
	if !training.HasNewData(len(user.Transcript), user.TrainingDataSize) {
		return false, nil
	}

	eligible := training.ShouldTrain(training.TriggerInput{
		TranscriptLen:  len(user.Transcript),
		LastTrainingAt: user.LastTrainingAt,
		Now:            now,
		Quality:        s.grader.Quality(ctx, user.Transcript),
		Style:          s.grader.Style(ctx, user.Transcript),
	})
	if !eligible {
		return false, nil
	}

	if err := s.starter.Start(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func (s *TrainingSweeper) notify(ctx context.Context, userID, text string) {
	if err := s.sender.Send(ctx, gateway.Outbound{RecipientID: userID, Text: text}); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("failed to send training notification")
	}
}
