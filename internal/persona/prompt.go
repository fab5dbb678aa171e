// ABOUTME: Personalized system prompt assembly from persona, preference, and memory
// ABOUTME: Retrieved fact chunks are folded in as known-context lines
package persona

import (
	"fmt"
	"strings"

	"github.com/jekbot/jek/internal/models"
)

const basePrompt = "Anda adalah asisten AI personal bernama Jek yang terintegrasi dengan WhatsApp. " +
	"Berikan jawaban yang jelas, ringkas, dan membantu. Anda mengingat konteks percakapan, " +
	"termasuk gambar terakhir yang dikirim."

// SystemPrompt builds the system prompt for one chat turn: the selected
// persona's prompt, the user's preference profile, and any retrieved
// memory chunks.
func SystemPrompt(pref *models.AIPreference, context []models.RetrievedChunk) string {
	var b strings.Builder

	p := selected(pref)
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\n")
	b.WriteString(basePrompt)

	if pref != nil {
		b.WriteString(fmt.Sprintf("\n\nUser Profile:\n- AI Type: %s\n- Focus Areas: %s",
			p.Name, strings.Join(p.FocusAreas, ", ")))
	}

	if len(context) > 0 {
		b.WriteString("\n\nFakta yang Anda ketahui tentang pengguna:")
		for _, chunk := range context {
			b.WriteString("\n- ")
			b.WriteString(chunk.Content)
		}
	}

	return b.String()
}

// Describe renders a persona's details for the info command.
func Describe(pref *models.AIPreference) string {
	p := selected(pref)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s*\n%s\n\nFokus: %s\n\nContoh:", p.Name, p.Description,
		strings.Join(p.FocusAreas, ", ")))
	for _, ex := range p.Examples {
		b.WriteString("\n- ")
		b.WriteString(ex)
	}
	return b.String()
}

func selected(pref *models.AIPreference) *Persona {
	if pref != nil {
		if p := Get(pref.PersonaID); p != nil {
			return p
		}
	}
	return Get(DefaultPersonaID)
}
