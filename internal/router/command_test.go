// ABOUTME: Tests for command parsing: prefixes, priority, detail pairs
package router

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCommandLogActivity(t *testing.T) {
	cmd, err := ParseCommand("jek, catat olahraga: durasi 30menit, intensitas tinggi")
	if err != nil {
		t.Fatalf("ParseCommand() error = %v", err)
	}

	logCmd, ok := cmd.(LogActivity)
	if !ok {
		t.Fatalf("ParseCommand() = %T, want LogActivity", cmd)
	}
	if logCmd.ActivityType != "olahraga" {
		t.Errorf("ActivityType = %q, want olahraga", logCmd.ActivityType)
	}
	want := map[string]string{"durasi": "30menit", "intensitas": "tinggi"}
	if !reflect.DeepEqual(logCmd.Details, want) {
		t.Errorf("Details = %v, want %v", logCmd.Details, want)
	}
}

func TestParseCommandLogActivityMalformed(t *testing.T) {
	for _, text := range []string{
		"jek, catat",
		"jek, catat olahraga",
		"jek, catat : durasi 30menit",
	} {
		_, err := ParseCommand(text)
		var usage *UsageError
		if !errors.As(err, &usage) {
			t.Errorf("ParseCommand(%q) error = %v, want UsageError", text, err)
		}
	}
}

func TestParseCommandVariants(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"jek, pilih ai: health-coach", SelectPersona{PersonaID: "health-coach"}},
		{"Jek, Pilih AI: Health-Coach", SelectPersona{PersonaID: "health-coach"}},
		{"jek, info ai", PersonaInfo{}},
		{"jek, mulai training", StartTraining{}},
		{"jek, apa kabar?", Chat{Text: "jek, apa kabar?"}},
		{"jek halo", Chat{Text: "jek halo"}},
		{"  jek halo  ", Chat{Text: "jek halo"}},
		{"halo semuanya", Ignore{}},
		{"", Ignore{}},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.text)
		if err != nil {
			t.Errorf("ParseCommand(%q) error = %v", tt.text, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseCommand(%q) = %#v, want %#v", tt.text, got, tt.want)
		}
	}
}

func TestParseCommandSelectPersonaMissingArg(t *testing.T) {
	_, err := ParseCommand("jek, pilih ai")
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("ParseCommand() error = %v, want UsageError", err)
	}
}

func TestParseDetailsSkipsIncompletePairs(t *testing.T) {
	got := parseDetails("durasi 30menit, tinggi, jarak 5 km")
	want := map[string]string{"durasi": "30menit", "jarak": "5 km"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDetails() = %v, want %v", got, want)
	}
}
