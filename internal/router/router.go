// ABOUTME: Per-message orchestration: state machine first, then command
// ABOUTME: dispatch; turns for one user are serialized by a keyed mutex
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/classify"
	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/locks"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/models"
)

const (
	// transcriptWindow is how many recent messages are replayed into
	// the chat completion.
	transcriptWindow = 20

	apologyReply = "Maaf, terjadi kesalahan. Silakan coba lagi."

	archivePrompt = "Selamat pagi. Saya melihat ada beberapa aktivitas dari hari sebelumnya " +
		"yang belum diarsipkan. Apakah Anda ingin mengarsipkan rekam medis Anda sekarang?"
	archiveDone    = "✅ Berhasil. Rekam medis Anda telah diarsipkan secara permanen."
	archiveEmpty   = "Tidak ada data baru untuk diarsipkan."
	archiveDecline = "Baik, data tidak diarsipkan saat ini. Saya akan mengingatkan Anda lagi besok."
)

// affirmatives are the replies accepted as consent to archive.
var affirmatives = map[string]struct{}{
	"ya":  {},
	"yes": {},
	"ok":  {},
	"y":   {},
}

// UserStore loads and persists users.
type UserStore interface {
	GetOrCreate(id string) (*models.User, error)
	Save(user *models.User) error
}

// ActivityStore persists activity logs and drives the archive flow.
type ActivityStore interface {
	Save(log *models.ActivityLog) error
	CountUnarchived(userID string) (int, error)
	ArchiveAll(userID string) (int64, error)
}

// PreferenceStore persists persona selections.
type PreferenceStore interface {
	Upsert(pref *models.AIPreference) error
	Get(userID string) (*models.AIPreference, error)
}

// ReminderStore persists reminders created from chat.
type ReminderStore interface {
	Save(rem *models.Reminder) error
}

// FactIngester is the memory write path.
type FactIngester interface {
	Ingest(ctx context.Context, userID, fact string) (bool, error)
}

// FactRetriever is the memory read path.
type FactRetriever interface {
	Retrieve(ctx context.Context, userID, query string) ([]models.RetrievedChunk, error)
}

// FactForgetter removes stored facts matching a keyword.
type FactForgetter interface {
	DeleteByUserMatching(userID, keyword string) (int64, error)
}

// Completer produces chat replies.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Analyst classifies messages and extracts structured content.
type Analyst interface {
	Intent(ctx context.Context, message string) models.Intent
	ExtractFact(ctx context.Context, message string) (string, error)
	ExtractReminder(ctx context.Context, message string, now time.Time) (classify.ExtractedReminder, error)
	Quality(ctx context.Context, transcript []models.Message) models.Quality
	Style(ctx context.Context, transcript []models.Message) models.Style
}

// TrainingStarter kicks off a personalization cycle.
type TrainingStarter interface {
	Start(ctx context.Context, user *models.User) error
}

// Router handles one inbound message end to end.
type Router struct {
	users     UserStore
	activity  ActivityStore
	prefs     PreferenceStore
	reminders ReminderStore
	facts     FactIngester
	retriever FactRetriever
	forgetter FactForgetter
	completer Completer
	analyst   Analyst
	trainer   TrainingStarter
	sender    gateway.Sender
	images    *ImageCache
	metrics   *metrics.Metrics
	log       zerolog.Logger

	archiveLoc *time.Location
	locks      *locks.Keyed
	now        func() time.Time
}

// Deps bundles the router's collaborators.
type Deps struct {
	Users     UserStore
	Activity  ActivityStore
	Prefs     PreferenceStore
	Reminders ReminderStore
	Facts     FactIngester
	Retriever FactRetriever
	Forgetter FactForgetter
	Completer Completer
	Analyst   Analyst
	Trainer   TrainingStarter
	Sender    gateway.Sender
	Images    *ImageCache
	Metrics   *metrics.Metrics

	// ArchiveLocation is the calendar used for the once-per-day archive
	// prompt. Required.
	ArchiveLocation *time.Location

	Logger zerolog.Logger

	// Locks serializes mutations per user. Share one instance with the
	// training sweeper. Defaults to a fresh set.
	Locks *locks.Keyed

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

func New(deps Deps) *Router {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	keyed := deps.Locks
	if keyed == nil {
		keyed = locks.NewKeyed()
	}
	return &Router{
		users:      deps.Users,
		activity:   deps.Activity,
		prefs:      deps.Prefs,
		reminders:  deps.Reminders,
		facts:      deps.Facts,
		retriever:  deps.Retriever,
		forgetter:  deps.Forgetter,
		completer:  deps.Completer,
		analyst:    deps.Analyst,
		trainer:    deps.Trainer,
		sender:     deps.Sender,
		images:     deps.Images,
		metrics:    deps.Metrics,
		log:        deps.Logger,
		archiveLoc: deps.ArchiveLocation,
		locks:      keyed,
		now:        now,
	}
}

// HandleMessage processes one inbound message. The conversation state is
// checked before command parsing: a user who was asked the archive
// question gets their next message interpreted as the answer, whatever it
// says.
func (r *Router) HandleMessage(ctx context.Context, msg gateway.Inbound) {
	unlock := r.locks.Acquire(msg.SenderID)
	defer unlock()

	start := r.now()
	defer func() {
		r.metrics.MessageDuration.Observe(r.now().Sub(start).Seconds())
	}()

	user, err := r.users.GetOrCreate(msg.SenderID)
	if err != nil {
		r.log.Error().Err(err).Str("user", msg.SenderID).Msg("failed to load user")
		r.reply(ctx, msg.SenderID, apologyReply)
		return
	}

	if user.State.Kind == models.StateAwaitingArchiveConfirmation {
		r.metrics.MessagesTotal.WithLabelValues("archive_confirmation").Inc()
		r.handleArchiveConfirmation(ctx, user, msg.Text)
		return
	}

	due, err := r.shouldPromptArchive(user)
	if err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to count unarchived logs")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	if due {
		r.metrics.MessagesTotal.WithLabelValues("archive_prompt").Inc()
		r.promptArchive(ctx, user)
		return
	}

	cmd, err := ParseCommand(msg.Text)
	if err != nil {
		var usage *UsageError
		if errors.As(err, &usage) {
			r.metrics.MessagesTotal.WithLabelValues("usage_error").Inc()
			r.reply(ctx, user.ID, usage.Reply)
			return
		}
		r.log.Error().Err(err).Str("user", user.ID).Msg("command parse failed")
		r.reply(ctx, user.ID, apologyReply)
		return
	}

	switch c := cmd.(type) {
	case LogActivity:
		r.metrics.MessagesTotal.WithLabelValues("log_activity").Inc()
		r.handleLogActivity(ctx, user, c)
	case SelectPersona:
		r.metrics.MessagesTotal.WithLabelValues("select_persona").Inc()
		r.handleSelectPersona(ctx, user, c)
	case PersonaInfo:
		r.metrics.MessagesTotal.WithLabelValues("persona_info").Inc()
		r.handlePersonaInfo(ctx, user)
	case StartTraining:
		r.metrics.MessagesTotal.WithLabelValues("start_training").Inc()
		r.handleStartTraining(ctx, user)
	case Chat:
		r.metrics.MessagesTotal.WithLabelValues("chat").Inc()
		r.handleChat(ctx, user, msg, c.Text)
	case Ignore:
		r.metrics.MessagesTotal.WithLabelValues("ignored").Inc()
	}
}

// shouldPromptArchive reports whether the daily archive question is due:
// not yet asked this calendar day (in the archive time zone) and there is
// unarchived data. A store failure aborts the turn.
func (r *Router) shouldPromptArchive(user *models.User) (bool, error) {
	now := r.now().In(r.archiveLoc)
	if p := user.State.PromptedAt; p != nil {
		prompted := p.In(r.archiveLoc)
		if prompted.Year() == now.Year() && prompted.YearDay() == now.YearDay() {
			return false, nil
		}
	}

	count, err := r.activity.CountUnarchived(user.ID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// promptArchive asks the archive question and moves the user into the
// awaiting state. The state transition is persisted before the prompt
// goes out so a crash never leaves a dangling question.
func (r *Router) promptArchive(ctx context.Context, user *models.User) {
	user.State = models.AwaitingArchiveState(r.now())
	if err := r.users.Save(user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save archive prompt state")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, archivePrompt)
}

// handleArchiveConfirmation consumes the user's answer to the archive
// question. Any reply leaves the awaiting state; PromptedAt is retained
// so the question is not re-asked the same day.
func (r *Router) handleArchiveConfirmation(ctx context.Context, user *models.User, text string) {
	answer := strings.ToLower(strings.TrimSpace(text))
	_, agreed := affirmatives[answer]

	user.State = models.NormalState(user.State.PromptedAt)
	if err := r.users.Save(user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to leave archive state")
		r.reply(ctx, user.ID, apologyReply)
		return
	}

	if !agreed {
		r.reply(ctx, user.ID, archiveDecline)
		return
	}

	archived, err := r.activity.ArchiveAll(user.ID)
	if err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to archive activity logs")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	if archived == 0 {
		r.reply(ctx, user.ID, archiveEmpty)
		return
	}
	r.reply(ctx, user.ID, archiveDone)
}

func (r *Router) reply(ctx context.Context, userID, text string) {
	if err := r.sender.Send(ctx, gateway.Outbound{RecipientID: userID, Text: text}); err != nil {
		r.log.Error().Err(err).Str("user", userID).Msg("failed to send reply")
	}
}
