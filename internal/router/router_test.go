// ABOUTME: Tests for the message router: state machine, command dispatch,
// ABOUTME: and the save-before-send ordering on the chat path
package router

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jekbot/jek/internal/classify"
	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/logger"
	"github.com/jekbot/jek/internal/metrics"
	"github.com/jekbot/jek/internal/models"
)

var jakarta = time.FixedZone("WIB", 7*3600)

// fixture bundles the fakes behind one router instance. The events slice
// records cross-fake ordering (saves vs sends).
type fixture struct {
	users     *fakeUserStore
	activity  *fakeActivityStore
	prefs     *fakePrefStore
	reminders *fakeReminderStore
	facts     *fakeFactStore
	sender    *fakeSender
	analyst   *fakeAnalyst
	trainer   *fakeTrainer
	forgetter *fakeForgetter
	completer *fakeChatCompleter
	now       time.Time
	events    *[]string
}

type fakeUserStore struct {
	users   map[string]*models.User
	saveErr error
	events  *[]string
}

func (f *fakeUserStore) GetOrCreate(id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	u, err := models.NewUser(id)
	if err != nil {
		return nil, err
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUserStore) Save(user *models.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	*f.events = append(*f.events, "save:"+user.ID)
	f.users[user.ID] = user
	return nil
}

type fakeActivityStore struct {
	saved      []*models.ActivityLog
	unarchived int
	archived   int64
	countErr   error
}

func (f *fakeActivityStore) Save(log *models.ActivityLog) error {
	f.saved = append(f.saved, log)
	f.unarchived++
	return nil
}

func (f *fakeActivityStore) CountUnarchived(userID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.unarchived, nil
}

func (f *fakeActivityStore) ArchiveAll(userID string) (int64, error) {
	n := int64(f.unarchived)
	f.archived += n
	f.unarchived = 0
	return n, nil
}

type fakePrefStore struct {
	pref *models.AIPreference
}

func (f *fakePrefStore) Upsert(pref *models.AIPreference) error { f.pref = pref; return nil }
func (f *fakePrefStore) Get(userID string) (*models.AIPreference, error) {
	return f.pref, nil
}

type fakeReminderStore struct {
	saved []*models.Reminder
}

func (f *fakeReminderStore) Save(rem *models.Reminder) error {
	f.saved = append(f.saved, rem)
	return nil
}

type fakeFactStore struct {
	ingested []string
	stored   bool
}

func (f *fakeFactStore) Ingest(ctx context.Context, userID, fact string) (bool, error) {
	f.ingested = append(f.ingested, fact)
	return f.stored, nil
}

type fakeRetriever struct {
	chunks []models.RetrievedChunk
}

func (f *fakeRetriever) Retrieve(ctx context.Context, userID, query string) ([]models.RetrievedChunk, error) {
	return f.chunks, nil
}

type fakeForgetter struct {
	keyword string
	deleted int64
}

func (f *fakeForgetter) DeleteByUserMatching(userID, keyword string) (int64, error) {
	f.keyword = keyword
	return f.deleted, nil
}

type fakeChatCompleter struct {
	reply string
	err   error
	last  llm.CompletionRequest
	calls int
}

func (f *fakeChatCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.last = req
	f.calls++
	return f.reply, f.err
}

type fakeAnalyst struct {
	intent   models.Intent
	fact     string
	reminder classify.ExtractedReminder
	remErr   error
	quality  models.Quality
	style    models.Style
}

func (f *fakeAnalyst) Intent(ctx context.Context, message string) models.Intent { return f.intent }
func (f *fakeAnalyst) ExtractFact(ctx context.Context, message string) (string, error) {
	return f.fact, nil
}
func (f *fakeAnalyst) ExtractReminder(ctx context.Context, message string, now time.Time) (classify.ExtractedReminder, error) {
	return f.reminder, f.remErr
}
func (f *fakeAnalyst) Quality(ctx context.Context, transcript []models.Message) models.Quality {
	return f.quality
}
func (f *fakeAnalyst) Style(ctx context.Context, transcript []models.Message) models.Style {
	return f.style
}

type fakeTrainer struct {
	started []string
	err     error
}

func (f *fakeTrainer) Start(ctx context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, user.ID)
	return nil
}

type fakeSender struct {
	sent   []gateway.Outbound
	events *[]string
}

func (f *fakeSender) Send(ctx context.Context, msg gateway.Outbound) error {
	*f.events = append(*f.events, "send:"+msg.RecipientID)
	f.sent = append(f.sent, msg)
	return nil
}

func newFixture(t *testing.T) (*Router, *fixture) {
	t.Helper()
	events := []string{}
	fx := &fixture{
		users:     &fakeUserStore{users: map[string]*models.User{}, events: &events},
		activity:  &fakeActivityStore{},
		prefs:     &fakePrefStore{},
		reminders: &fakeReminderStore{},
		facts:     &fakeFactStore{stored: true},
		sender:    &fakeSender{events: &events},
		analyst:   &fakeAnalyst{intent: models.Intent{Intent: models.IntentOther}, quality: models.QualityMedium, style: models.StyleCasual},
		trainer:   &fakeTrainer{},
		forgetter: &fakeForgetter{},
		completer: &fakeChatCompleter{reply: "Halo! Ada yang bisa saya bantu?"},
		now:       time.Date(2026, 3, 2, 9, 0, 0, 0, jakarta),
		events:    &events,
	}

	rt := New(Deps{
		Users:           fx.users,
		Activity:        fx.activity,
		Prefs:           fx.prefs,
		Reminders:       fx.reminders,
		Facts:           fx.facts,
		Retriever:       &fakeRetriever{},
		Forgetter:       fx.forgetter,
		Completer:       fx.completer,
		Analyst:         fx.analyst,
		Trainer:         fx.trainer,
		Sender:          fx.sender,
		Metrics:         metrics.New(prometheus.NewRegistry()),
		ArchiveLocation: jakarta,
		Logger:          logger.Nop(),
		Now:             func() time.Time { return fx.now },
	})
	return rt, fx
}

func lastReply(t *testing.T, fx *fixture) string {
	t.Helper()
	if len(fx.sender.sent) == 0 {
		t.Fatal("no reply was sent")
	}
	return fx.sender.sent[len(fx.sender.sent)-1].Text
}

func TestChatTurn(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, apa kabar?"})

	if got := lastReply(t, fx); got != "Halo! Ada yang bisa saya bantu?" {
		t.Errorf("reply = %q", got)
	}

	user := fx.users.users["u1"]
	if len(user.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(user.Transcript))
	}
	if user.Transcript[0].Role != models.RoleUser || user.Transcript[1].Role != models.RoleAssistant {
		t.Errorf("transcript roles = %q, %q", user.Transcript[0].Role, user.Transcript[1].Role)
	}
}

func TestChatSavesTranscriptBeforeSending(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek halo"})

	var saveIdx, sendIdx = -1, -1
	for i, ev := range *fx.events {
		switch ev {
		case "save:u1":
			if saveIdx == -1 {
				saveIdx = i
			}
		case "send:u1":
			if sendIdx == -1 {
				sendIdx = i
			}
		}
	}
	if saveIdx == -1 || sendIdx == -1 || saveIdx > sendIdx {
		t.Errorf("expected transcript save before send, events = %v", *fx.events)
	}
}

func TestChatStoreFailureApologizes(t *testing.T) {
	rt, fx := newFixture(t)
	fx.users.saveErr = errors.New("disk full")

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek halo"})

	if got := lastReply(t, fx); got != apologyReply {
		t.Errorf("reply = %q, want the generic apology", got)
	}
}

func TestChatUsesPersonalizedModel(t *testing.T) {
	rt, fx := newFixture(t)
	user, _ := fx.users.GetOrCreate("u1")
	user.PersonalizedModelID = "ft:gpt-3.5-turbo:personal-u1"

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek halo"})

	if fx.completer.last.Model != "ft:gpt-3.5-turbo:personal-u1" {
		t.Errorf("completion model = %q, want the personalized model", fx.completer.last.Model)
	}
}

func TestChatCapturesRememberedFact(t *testing.T) {
	rt, fx := newFixture(t)
	fx.analyst.intent = models.Intent{Intent: models.IntentRemember}
	fx.analyst.fact = "Pengguna alergi kacang"

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, saya alergi kacang"})

	if len(fx.facts.ingested) != 1 || fx.facts.ingested[0] != "Pengguna alergi kacang" {
		t.Errorf("ingested facts = %v", fx.facts.ingested)
	}
}

func TestChatOtherIntentSkipsFactCapture(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, apa kabar?"})

	if len(fx.facts.ingested) != 0 {
		t.Errorf("ingested facts = %v, want none", fx.facts.ingested)
	}
}

func TestChatWithAttachment(t *testing.T) {
	rt, fx := newFixture(t)
	images, err := NewImageCache(1 << 20)
	if err != nil {
		t.Fatalf("NewImageCache() error = %v", err)
	}
	defer images.Close()
	rt.images = images

	img := []byte{0xff, 0xd8, 0xff}
	rt.HandleMessage(context.Background(), gateway.Inbound{
		SenderID:      "u1",
		Text:          "jek, ini fotonya",
		HasAttachment: true,
		Attachment:    img,
	})

	if !bytes.Equal(fx.completer.last.Image, img) {
		t.Error("completion request missing the attached image")
	}

	user := fx.users.users["u1"]
	if !strings.Contains(user.Transcript[0].Content, "[Image Sent]") {
		t.Errorf("transcript entry = %q, want the image marker", user.Transcript[0].Content)
	}
}

func TestReminderIntent(t *testing.T) {
	rt, fx := newFixture(t)
	fx.analyst.intent = models.Intent{Intent: models.IntentReminder}
	fx.analyst.reminder = classify.ExtractedReminder{
		Description: "minum obat",
		DueAt:       fx.now.Add(time.Hour),
	}

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, ingatkan saya minum obat"})

	if len(fx.reminders.saved) != 1 {
		t.Fatalf("saved reminders = %d, want 1", len(fx.reminders.saved))
	}
	if fx.reminders.saved[0].Description != "minum obat" {
		t.Errorf("reminder description = %q", fx.reminders.saved[0].Description)
	}
	if !strings.Contains(lastReply(t, fx), "Pengingat") {
		t.Errorf("reply = %q, want a reminder confirmation", lastReply(t, fx))
	}
}

func TestReminderIntentExtractionFailure(t *testing.T) {
	rt, fx := newFixture(t)
	fx.analyst.intent = models.Intent{Intent: models.IntentReminder}
	fx.analyst.remErr = errors.New("no time found")

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, ingatkan saya"})

	if len(fx.reminders.saved) != 0 {
		t.Errorf("saved reminders = %d, want 0", len(fx.reminders.saved))
	}
	if got := lastReply(t, fx); got != reminderUsageReply {
		t.Errorf("reply = %q, want the corrective message", got)
	}
}

func TestForgetIntent(t *testing.T) {
	rt, fx := newFixture(t)
	fx.analyst.intent = models.Intent{Intent: models.IntentForget, Keyword: "alergi"}
	fx.forgetter.deleted = 2

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, lupakan soal alergi saya"})

	if fx.forgetter.keyword != "alergi" {
		t.Errorf("forget keyword = %q", fx.forgetter.keyword)
	}
	if !strings.Contains(lastReply(t, fx), "melupakan") {
		t.Errorf("reply = %q", lastReply(t, fx))
	}
}

func TestLogActivityCommand(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{
		SenderID: "u1",
		Text:     "jek, catat olahraga: durasi 30menit, intensitas tinggi",
	})

	if len(fx.activity.saved) != 1 {
		t.Fatalf("saved logs = %d, want 1", len(fx.activity.saved))
	}
	entry := fx.activity.saved[0]
	if entry.ActivityType != "olahraga" {
		t.Errorf("ActivityType = %q", entry.ActivityType)
	}
	if entry.Details["durasi"] != "30menit" || entry.Details["intensitas"] != "tinggi" {
		t.Errorf("Details = %v", entry.Details)
	}
	if !strings.Contains(lastReply(t, fx), "olahraga") {
		t.Errorf("confirmation = %q, want it to name the activity", lastReply(t, fx))
	}
}

func TestMalformedLogCommand(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, catat olahraga"})

	if len(fx.activity.saved) != 0 {
		t.Errorf("saved logs = %d, want 0", len(fx.activity.saved))
	}
	if got := lastReply(t, fx); got != logUsageReply {
		t.Errorf("reply = %q, want usage message", got)
	}
}

func TestUnaddressedMessageIgnored(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "halo semuanya"})

	if len(fx.sender.sent) != 0 {
		t.Errorf("sent %d replies to an unaddressed message, want 0", len(fx.sender.sent))
	}
}

func TestSelectPersonaCommand(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, pilih ai: health-coach"})

	if fx.prefs.pref == nil || fx.prefs.pref.PersonaID != "health-coach" {
		t.Fatalf("saved preference = %+v", fx.prefs.pref)
	}
}

func TestSelectPersonaUnknown(t *testing.T) {
	rt, fx := newFixture(t)

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, pilih ai: dukun"})

	if fx.prefs.pref != nil {
		t.Errorf("saved preference = %+v, want none", fx.prefs.pref)
	}
	if !strings.Contains(lastReply(t, fx), "tidak dikenal") {
		t.Errorf("reply = %q", lastReply(t, fx))
	}
}

func TestStartTrainingNotEligible(t *testing.T) {
	rt, fx := newFixture(t)

	// Fresh user: transcript far below the minimum.
	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, mulai training"})

	if len(fx.trainer.started) != 0 {
		t.Errorf("training started for ineligible user")
	}
}

func TestStartTrainingEligible(t *testing.T) {
	rt, fx := newFixture(t)
	fx.analyst.quality = models.QualityHigh

	user, _ := fx.users.GetOrCreate("u1")
	for i := 0; i < 12; i++ {
		user.Append(models.RoleUser, "halo", fx.now)
	}

	rt.HandleMessage(context.Background(), gateway.Inbound{SenderID: "u1", Text: "jek, mulai training"})

	if len(fx.trainer.started) != 1 {
		t.Fatalf("training started %d times, want 1", len(fx.trainer.started))
	}
}
