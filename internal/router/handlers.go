// ABOUTME: Handlers for the parsed command variants, including the chat
// ABOUTME: path with retrieval grounding and inline fact capture
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/jekbot/jek/internal/gateway"
	"github.com/jekbot/jek/internal/llm"
	"github.com/jekbot/jek/internal/models"
	"github.com/jekbot/jek/internal/persona"
	"github.com/jekbot/jek/internal/training"
)

const (
	completionFallback = "Sorry, I encountered an error while processing your request."
	reminderUsageReply = "Maaf, saya tidak bisa memahami waktu pengingatnya. " +
		"Coba sebutkan waktunya dengan jelas, misalnya: jek, ingatkan saya minum obat besok jam 8 pagi."
	forgetImagePhrase = "lupakan gambar"
)

func (r *Router) handleLogActivity(ctx context.Context, user *models.User, cmd LogActivity) {
	entry, err := models.NewActivityLog(user.ID, cmd.ActivityType, cmd.Details)
	if err != nil {
		r.reply(ctx, user.ID, logUsageReply)
		return
	}
	if err := r.activity.Save(entry); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save activity log")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, fmt.Sprintf("✅ Aktivitas '%s' berhasil dicatat.", cmd.ActivityType))
}

func (r *Router) handleSelectPersona(ctx context.Context, user *models.User, cmd SelectPersona) {
	p := persona.Get(cmd.PersonaID)
	if p == nil {
		var ids []string
		for _, cand := range persona.All() {
			ids = append(ids, cand.ID)
		}
		r.reply(ctx, user.ID, "Tipe AI tidak dikenal. Pilihan yang tersedia: "+strings.Join(ids, ", "))
		return
	}

	pref := &models.AIPreference{
		UserID:      user.ID,
		PersonaID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		FocusAreas:  p.FocusAreas,
		UpdatedAt:   r.now().UTC(),
	}
	if err := r.prefs.Upsert(pref); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save persona preference")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, fmt.Sprintf("✅ AI Anda sekarang adalah %s. %s", p.Name, p.Description))
}

func (r *Router) handlePersonaInfo(ctx context.Context, user *models.User) {
	pref, err := r.prefs.Get(user.ID)
	if err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to load persona preference")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, persona.Describe(pref))
}

func (r *Router) handleStartTraining(ctx context.Context, user *models.User) {
	if user.IsTraining {
		r.reply(ctx, user.ID, "Proses training Anda masih berjalan. Saya akan memberi tahu jika sudah selesai.")
		return
	}

	quality := r.analyst.Quality(ctx, user.Transcript)
	style := r.analyst.Style(ctx, user.Transcript)
	eligible := training.ShouldTrain(training.TriggerInput{
		TranscriptLen:  len(user.Transcript),
		LastTrainingAt: user.LastTrainingAt,
		Now:            r.now(),
		Quality:        quality,
		Style:          style,
	})
	if !eligible {
		r.reply(ctx, user.ID, "Belum cukup data percakapan untuk memulai training. Mari mengobrol lebih banyak dulu.")
		return
	}

	if err := r.trainer.Start(ctx, user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to start training")
		r.metrics.TrainingJobsTotal.WithLabelValues("start_failed").Inc()
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.metrics.TrainingJobsTotal.WithLabelValues("started").Inc()
	r.reply(ctx, user.ID, "🚀 Training dimulai. Saya akan memberi tahu Anda jika AI personal Anda sudah siap.")
}

// handleChat runs the default conversational path: classify the intent,
// branch to reminder or forget when asked, otherwise ground a completion
// in retrieved memory. The transcript is persisted before the reply is
// sent so a delivered answer always corresponds to saved history.
func (r *Router) handleChat(ctx context.Context, user *models.User, msg gateway.Inbound, text string) {
	stored := text
	var image []byte
	if msg.HasAttachment && len(msg.Attachment) > 0 {
		image = msg.Attachment
		if r.images != nil {
			r.images.Set(user.ID, image)
		}
		stored = text + " [Image Sent]"
	} else if r.images != nil {
		// A follow-up question may refer back to the last image sent.
		image, _ = r.images.Get(user.ID)
	}

	intent := r.analyst.Intent(ctx, text)

	switch intent.Intent {
	case models.IntentReminder:
		r.handleReminder(ctx, user, text)
		return
	case models.IntentForget:
		r.handleForget(ctx, user, intent.Keyword, text)
		return
	}

	chunks, err := r.retriever.Retrieve(ctx, user.ID, text)
	if err != nil {
		// Retrieval is grounding, not correctness; answer without it.
		r.log.Warn().Err(err).Str("user", user.ID).Msg("memory retrieval failed")
		chunks = nil
	}
	r.metrics.RetrievalsTotal.Inc()

	pref, err := r.prefs.Get(user.ID)
	if err != nil {
		r.log.Warn().Err(err).Str("user", user.ID).Msg("failed to load persona preference")
		pref = nil
	}

	history := user.RecentTranscript(transcriptWindow)
	msgs := make([]models.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: text})

	req := llm.CompletionRequest{
		System:   persona.SystemPrompt(pref, chunks),
		Messages: msgs,
		Image:    image,
	}
	if user.PersonalizedModelID != "" {
		req.Model = user.PersonalizedModelID
	}

	reply, err := r.completer.Complete(ctx, req)
	if err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("chat completion failed")
		r.metrics.ProviderFailures.WithLabelValues("completion").Inc()
		reply = completionFallback
	}

	now := r.now().UTC()
	user.Append(models.RoleUser, stored, now)
	user.Append(models.RoleAssistant, reply, now)
	if err := r.users.Save(user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save transcript")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, reply)

	if r.images != nil && !msg.HasAttachment && strings.Contains(strings.ToLower(text), forgetImagePhrase) {
		r.images.Forget(user.ID)
	}

	if intent.Intent == models.IntentRemember {
		r.captureFact(ctx, user.ID, text)
	}
}

func (r *Router) handleReminder(ctx context.Context, user *models.User, text string) {
	extracted, err := r.analyst.ExtractReminder(ctx, text, r.now())
	if err != nil {
		r.log.Warn().Err(err).Str("user", user.ID).Msg("reminder extraction failed")
		r.reply(ctx, user.ID, reminderUsageReply)
		return
	}

	rem, err := models.NewReminder(user.ID, extracted.Description, extracted.DueAt)
	if err != nil {
		r.reply(ctx, user.ID, reminderUsageReply)
		return
	}
	if err := r.reminders.Save(rem); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save reminder")
		r.reply(ctx, user.ID, apologyReply)
		return
	}

	confirmation := fmt.Sprintf("⏰ Pengingat dibuat: %s (%s)",
		rem.Description, rem.DueAt.In(r.archiveLoc).Format("02 Jan 2006 15:04"))

	now := r.now().UTC()
	user.Append(models.RoleUser, text, now)
	user.Append(models.RoleAssistant, confirmation, now)
	if err := r.users.Save(user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save transcript")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, confirmation)
}

func (r *Router) handleForget(ctx context.Context, user *models.User, keyword, text string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		r.reply(ctx, user.ID, "Apa yang ingin Anda minta saya lupakan? Sebutkan topiknya, misalnya: jek, lupakan soal alergi saya.")
		return
	}

	deleted, err := r.forgetter.DeleteByUserMatching(user.ID, keyword)
	if err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to delete facts")
		r.reply(ctx, user.ID, apologyReply)
		return
	}

	var confirmation string
	if deleted == 0 {
		confirmation = fmt.Sprintf("Saya tidak menemukan ingatan tentang '%s'.", keyword)
	} else {
		confirmation = fmt.Sprintf("🗑️ Baik, saya sudah melupakan %d hal tentang '%s'.", deleted, keyword)
	}

	now := r.now().UTC()
	user.Append(models.RoleUser, text, now)
	user.Append(models.RoleAssistant, confirmation, now)
	if err := r.users.Save(user); err != nil {
		r.log.Error().Err(err).Str("user", user.ID).Msg("failed to save transcript")
		r.reply(ctx, user.ID, apologyReply)
		return
	}
	r.reply(ctx, user.ID, confirmation)
}

// captureFact runs after the reply is delivered so extraction latency
// never delays the answer. Failures only cost the memory, not the turn.
func (r *Router) captureFact(ctx context.Context, userID, text string) {
	fact, err := r.analyst.ExtractFact(ctx, text)
	if err != nil {
		r.log.Warn().Err(err).Str("user", userID).Msg("fact extraction failed")
		return
	}
	if fact == "" {
		return
	}

	storedFact, err := r.facts.Ingest(ctx, userID, fact)
	if err != nil {
		r.log.Warn().Err(err).Str("user", userID).Msg("fact ingestion failed")
		return
	}
	if storedFact {
		r.metrics.FactsStoredTotal.Inc()
	} else {
		r.metrics.FactsDedupedTotal.Inc()
	}
}
