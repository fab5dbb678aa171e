// ABOUTME: Tests for persona preference upsert semantics
package sqlite

import (
	"testing"
	"time"

	"github.com/jekbot/jek/internal/models"
)

func TestPreferenceStoreUpsert(t *testing.T) {
	store := NewPreferenceStore(newTestDB(t))

	pref := &models.AIPreference{
		UserID:      "u1",
		PersonaID:   "health-coach",
		Name:        "Pelatih Kesehatan",
		Description: "Fokus pada kebugaran dan pola hidup sehat",
		FocusAreas:  []string{"olahraga", "nutrisi"},
		UpdatedAt:   time.Now().UTC(),
	}
	if err := store.Upsert(pref); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	loaded, err := store.Get("u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded == nil || loaded.PersonaID != "health-coach" {
		t.Fatalf("Get() = %+v, want health-coach", loaded)
	}
	if len(loaded.FocusAreas) != 2 {
		t.Errorf("FocusAreas = %v", loaded.FocusAreas)
	}

	// Second upsert replaces, never duplicates.
	pref.PersonaID = "personal-assistant"
	pref.Name = "Asisten Pribadi"
	if err := store.Upsert(pref); err != nil {
		t.Fatalf("Upsert() replace error = %v", err)
	}

	loaded, err = store.Get("u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.PersonaID != "personal-assistant" {
		t.Errorf("PersonaID after replace = %q", loaded.PersonaID)
	}
}

func TestPreferenceStoreGetMissing(t *testing.T) {
	store := NewPreferenceStore(newTestDB(t))

	pref, err := store.Get("nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if pref != nil {
		t.Errorf("Get() = %+v for missing preference, want nil", pref)
	}
}
