package lyrics

import (
	"context"
	"fmt"
	"strings"

	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/store"
)

// Generator turns a scene descriptor into a verse via the configured LLM.
type Generator struct {
	provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate writes one verse for the scene, steering the model away from the
// avoidLines. The avoid list is advisory only; the model may still repeat
// itself, and that is accepted.
func (g *Generator) Generate(ctx context.Context, scene *store.SceneDescriptor, avoidLines []string) ([]string, error) {
	prompt := NewPromptBuilder(scene, avoidLines).Build()

	text, err := g.provider.Generate(ctx, prompt, llm.WithMaxTokens(256))
	if err != nil {
		return nil, fmt.Errorf("lyric generation: %w", err)
	}

	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, fmt.Errorf("lyric generation: model returned no usable lines")
	}
	return lines, nil
}

// SplitLines cleans the model output into verse lines, capped at
// VerseLineCount.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == VerseLineCount {
			break
		}
	}
	return lines
}

// FallbackVerse is served when every generation attempt failed, so the demo
// keeps singing instead of going silent.
func FallbackVerse(scene *store.SceneDescriptor) []string {
	return []string{
		fmt.Sprintf("Living in the %s zone", scene.Mood),
		fmt.Sprintf("Just %s all alone", scene.Activity),
		"Finding rhythm in the daily grind",
		"Making melodies inside my mind",
	}
}
