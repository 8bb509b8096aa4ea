package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"screentosong-be/pkg/store"
)

// rawDescriptor tolerates the looser shapes models actually return:
// screen_text may be the JSON literal null or the string "null", and
// energy_level sometimes arrives as a float.
type rawDescriptor struct {
	Mood           string   `json:"mood"`
	Activity       string   `json:"activity"`
	Objects        []string `json:"objects"`
	SuggestedGenre string   `json:"suggested_genre"`
	EnergyLevel    float64  `json:"energy_level"`
	Description    string   `json:"description"`
	ScreenText     *string  `json:"screen_text"`
}

// ParseDescriptor extracts the scene descriptor JSON from a model reply.
// Models wrap JSON in prose or markdown fences often enough that we cut the
// text between the first '{' and the last '}' before unmarshalling.
func ParseDescriptor(text string) (*store.SceneDescriptor, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response: %q", truncate(text, 120))
	}

	var raw rawDescriptor
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse scene descriptor: %w", err)
	}

	desc := &store.SceneDescriptor{
		Mood:           raw.Mood,
		Activity:       raw.Activity,
		Objects:        raw.Objects,
		SuggestedGenre: raw.SuggestedGenre,
		EnergyLevel:    clampEnergy(int(raw.EnergyLevel)),
		Description:    raw.Description,
	}
	if raw.ScreenText != nil && !strings.EqualFold(strings.TrimSpace(*raw.ScreenText), "null") {
		desc.ScreenText = *raw.ScreenText
	}
	return desc, nil
}

func clampEnergy(level int) int {
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
