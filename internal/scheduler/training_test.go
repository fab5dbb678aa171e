// ABOUTME: Tests for the training sweeps: auto-trigger and job reconciliation
package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/logger"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/models"
)

type fakeUserLister struct {
	users []models.User

	// fresh overrides Get, standing in for a record another turn
	// updated after the List snapshot was taken.
	fresh map[string]*models.User
}

func (f *fakeUserLister) List() ([]models.User, error) { return f.users, nil }
func (f *fakeUserLister) ListTraining() ([]models.User, error) {
	var training []models.User
	for _, u := range f.users {
		if u.IsTraining {
			training = append(training, u)
		}
	}
	return training, nil
}

func (f *fakeUserLister) Get(id string) (*models.User, error) {
	if u, ok := f.fresh[id]; ok {
		return u, nil
	}
	for _, u := range f.users {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeReconciler struct {
	modelID string
}

func (f *fakeReconciler) Reconcile(ctx context.Context, user *models.User, now time.Time) error {
	user.IsTraining = false
	user.FineTuneJobID = ""
	user.PersonalizedModelID = f.modelID
	return nil
}

type fakeStarter struct {
	started     []string
	transcripts []int
}

func (f *fakeStarter) Start(ctx context.Context, user *models.User) error {
	f.started = append(f.started, user.ID)
	f.transcripts = append(f.transcripts, len(user.Transcript))
	return nil
}

type fixedGrader struct {
	quality models.Quality
	style   models.Style
}

func (g fixedGrader) Quality(ctx context.Context, transcript []models.Message) models.Quality {
	return g.quality
}
func (g fixedGrader) Style(ctx context.Context, transcript []models.Message) models.Style {
	return g.style
}

type nopSender struct{ sent []gateway.Outbound }

func (s *nopSender) Send(ctx context.Context, msg gateway.Outbound) error {
	s.sent = append(s.sent, msg)
	return nil
}

func userWithTranscript(id string, messages int) models.User {
	u := models.User{ID: id, State: models.NormalState(nil)}
	for i := 0; i < messages; i++ {
		u.Append(models.RoleUser, "halo", time.Now().UTC())
	}
	return u
}

func newSweeper(users *fakeUserLister, rec Reconciler, starter Starter, grader TranscriptGrader, sender gateway.Sender, now time.Time) *TrainingSweeper {
	return NewTrainingSweeper(users, rec, starter, grader, sender, nil,
		metrics.New(prometheus.NewRegistry()), logger.Nop(),
		time.Minute, time.Minute, &fakeClock{now: now})
}

func TestSweepTriggersStartsEligibleUser(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &fakeUserLister{users: []models.User{userWithTranscript("eligible", 15)}}
	starter := &fakeStarter{}
	sweeper := newSweeper(users, &fakeReconciler{}, starter, fixedGrader{models.QualityHigh, models.StyleCasual}, &nopSender{}, now)

	if err := sweeper.SweepTriggers(context.Background()); err != nil {
		t.Fatalf("SweepTriggers() error = %v", err)
	}
	if len(starter.started) != 1 || starter.started[0] != "eligible" {
		t.Errorf("started = %v, want [eligible]", starter.started)
	}
}

func TestSweepTriggersSkips(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour)

	short := userWithTranscript("short", 3)

	trainedRecently := userWithTranscript("recent", 20)
	trainedRecently.LastTrainingAt = &recent

	inFlight := userWithTranscript("inflight", 20)
	inFlight.IsTraining = true

	// Trained before, but fewer than the minimum new messages since.
	noNewData := userWithTranscript("stale", 20)
	old := now.Add(-30 * 24 * time.Hour)
	noNewData.LastTrainingAt = &old
	noNewData.TrainingDataSize = 18

	users := &fakeUserLister{users: []models.User{short, trainedRecently, inFlight, noNewData}}
	starter := &fakeStarter{}
	sweeper := newSweeper(users, &fakeReconciler{}, starter, fixedGrader{models.QualityHigh, models.StyleCasual}, &nopSender{}, now)

	if err := sweeper.SweepTriggers(context.Background()); err != nil {
		t.Fatalf("SweepTriggers() error = %v", err)
	}
	if len(starter.started) != 0 {
		t.Errorf("started = %v, want none", starter.started)
	}
}

func TestSweepTriggersSkipsDirectStyle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &fakeUserLister{users: []models.User{userWithTranscript("direct", 15)}}
	starter := &fakeStarter{}
	sweeper := newSweeper(users, &fakeReconciler{}, starter, fixedGrader{models.QualityHigh, models.StyleDirect}, &nopSender{}, now)

	if err := sweeper.SweepTriggers(context.Background()); err != nil {
		t.Fatalf("SweepTriggers() error = %v", err)
	}
	if len(starter.started) != 0 {
		t.Errorf("started = %v for DIRECT style, want none", starter.started)
	}
}

func TestSweepTriggersUsesFreshRead(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The List snapshot is stale: a message turn appended two messages
	// after it was taken. Training must start from the fresh record or
	// those messages would be clobbered by the sweep's save.
	stale := userWithTranscript("u1", 15)
	fresh := userWithTranscript("u1", 17)

	users := &fakeUserLister{
		users: []models.User{stale},
		fresh: map[string]*models.User{"u1": &fresh},
	}
	starter := &fakeStarter{}
	sweeper := newSweeper(users, &fakeReconciler{}, starter, fixedGrader{models.QualityHigh, models.StyleCasual}, &nopSender{}, now)

	if err := sweeper.SweepTriggers(context.Background()); err != nil {
		t.Fatalf("SweepTriggers() error = %v", err)
	}
	if len(starter.started) != 1 {
		t.Fatalf("started = %v, want [u1]", starter.started)
	}
	if starter.transcripts[0] != 17 {
		t.Errorf("Start() saw %d transcript messages, want 17 (the fresh read)", starter.transcripts[0])
	}
}

func TestSweepTriggersSkipsWhenFreshReadIsTraining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// A manual "jek, mulai training" turn committed between the snapshot
	// and the sweep. The fresh read sees it; no second start.
	stale := userWithTranscript("u1", 15)
	fresh := userWithTranscript("u1", 16)
	fresh.IsTraining = true
	fresh.FineTuneJobID = "ftjob-1"

	users := &fakeUserLister{
		users: []models.User{stale},
		fresh: map[string]*models.User{"u1": &fresh},
	}
	starter := &fakeStarter{}
	sweeper := newSweeper(users, &fakeReconciler{}, starter, fixedGrader{models.QualityHigh, models.StyleCasual}, &nopSender{}, now)

	if err := sweeper.SweepTriggers(context.Background()); err != nil {
		t.Fatalf("SweepTriggers() error = %v", err)
	}
	if len(starter.started) != 0 {
		t.Errorf("started = %v, want none", starter.started)
	}
}

func TestSweepStatusReconcilesFreshRead(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := userWithTranscript("busy", 10)
	stale.IsTraining = true
	stale.FineTuneJobID = "ftjob-1"

	fresh := userWithTranscript("busy", 12)
	fresh.IsTraining = true
	fresh.FineTuneJobID = "ftjob-1"

	users := &fakeUserLister{
		users: []models.User{stale},
		fresh: map[string]*models.User{"busy": &fresh},
	}
	sender := &nopSender{}
	sweeper := newSweeper(users, &fakeReconciler{modelID: "ft:model"}, &fakeStarter{}, fixedGrader{models.QualityHigh, models.StyleCasual}, sender, now)

	if err := sweeper.SweepStatus(context.Background()); err != nil {
		t.Fatalf("SweepStatus() error = %v", err)
	}
	// The reconciler mutated the fresh record, not the stale snapshot.
	if fresh.IsTraining {
		t.Error("fresh record still training after reconcile")
	}
	if len(fresh.Transcript) != 12 {
		t.Errorf("fresh transcript length = %d, want 12", len(fresh.Transcript))
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
}

func TestSweepStatusNotifiesOnCompletion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	busy := userWithTranscript("busy", 20)
	busy.IsTraining = true
	busy.FineTuneJobID = "ftjob-1"

	users := &fakeUserLister{users: []models.User{busy}}
	sender := &nopSender{}
	sweeper := newSweeper(users, &fakeReconciler{modelID: "ft:model"}, &fakeStarter{}, fixedGrader{models.QualityHigh, models.StyleCasual}, sender, now)

	if err := sweeper.SweepStatus(context.Background()); err != nil {
		t.Fatalf("SweepStatus() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	if sender.sent[0].RecipientID != "busy" {
		t.Errorf("notification recipient = %q", sender.sent[0].RecipientID)
	}
}

func TestSweepStatusFailureNotification(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	busy := userWithTranscript("busy", 20)
	busy.IsTraining = true
	busy.FineTuneJobID = "ftjob-1"

	users := &fakeUserLister{users: []models.User{busy}}
	sender := &nopSender{}
	// Reconciler clears the job without a model id: the job failed.
	sweeper := newSweeper(users, &fakeReconciler{modelID: ""}, &fakeStarter{}, fixedGrader{models.QualityHigh, models.StyleCasual}, sender, now)

	if err := sweeper.SweepStatus(context.Background()); err != nil {
		t.Fatalf("SweepStatus() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
}
