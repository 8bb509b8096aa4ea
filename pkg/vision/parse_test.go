package vision

import (
	"testing"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantErr      bool
		wantActivity string
		wantEnergy   int
		wantText     string
	}{
		{
			name:         "clean JSON",
			text:         `{"mood":"focused","activity":"coding","objects":["editor","terminal"],"suggested_genre":"lo-fi","energy_level":3,"description":"A code editor."}`,
			wantActivity: "coding",
			wantEnergy:   3,
		},
		{
			name:         "JSON wrapped in prose",
			text:         "Sure, here is the analysis:\n{\"mood\":\"calm\",\"activity\":\"reading\",\"objects\":[],\"suggested_genre\":\"ambient\",\"energy_level\":2,\"description\":\"d\"}\nLet me know if you need more.",
			wantActivity: "reading",
			wantEnergy:   2,
		},
		{
			name:         "markdown fenced JSON",
			text:         "```json\n{\"mood\":\"hyped\",\"activity\":\"gaming\",\"objects\":[\"game\"],\"suggested_genre\":\"edm\",\"energy_level\":5,\"description\":\"d\"}\n```",
			wantActivity: "gaming",
			wantEnergy:   5,
		},
		{
			name:         "screen_text string null is dropped",
			text:         `{"mood":"m","activity":"browsing","objects":[],"suggested_genre":"pop","energy_level":3,"description":"d","screen_text":"null"}`,
			wantActivity: "browsing",
			wantEnergy:   3,
			wantText:     "",
		},
		{
			name:         "screen_text kept",
			text:         `{"mood":"m","activity":"studying","objects":[],"suggested_genre":"classical","energy_level":2,"description":"d","screen_text":"Photosynthesis converts light"}`,
			wantActivity: "studying",
			wantEnergy:   2,
			wantText:     "Photosynthesis converts light",
		},
		{
			name:         "energy clamped above",
			text:         `{"mood":"m","activity":"a","objects":[],"suggested_genre":"g","energy_level":9,"description":"d"}`,
			wantActivity: "a",
			wantEnergy:   5,
		},
		{
			name:         "energy clamped below",
			text:         `{"mood":"m","activity":"a","objects":[],"suggested_genre":"g","energy_level":0,"description":"d"}`,
			wantActivity: "a",
			wantEnergy:   1,
		},
		{
			name:    "no JSON at all",
			text:    "I cannot analyze this image.",
			wantErr: true,
		},
		{
			name:    "broken JSON",
			text:    `{"mood": "focused", "activity":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := ParseDescriptor(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if desc.Activity != tt.wantActivity {
				t.Errorf("Activity = %q, want %q", desc.Activity, tt.wantActivity)
			}
			if desc.EnergyLevel != tt.wantEnergy {
				t.Errorf("EnergyLevel = %d, want %d", desc.EnergyLevel, tt.wantEnergy)
			}
			if desc.ScreenText != tt.wantText {
				t.Errorf("ScreenText = %q, want %q", desc.ScreenText, tt.wantText)
			}
		})
	}
}
