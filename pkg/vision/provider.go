package vision

import (
	"context"

	"screentosong-be/pkg/store"
)

// Provider defines the contract for an external vision classifier: it takes
// one frame's raster bytes and returns the structured scene descriptor.
type Provider interface {
	Classify(ctx context.Context, imageBytes []byte) (*store.SceneDescriptor, error)
}

// classifyPrompt asks the model for strict JSON covering the scene
// descriptor fields plus any study material visible on screen.
const classifyPrompt = `Analyze this screen capture and return a JSON object with:
{
  "mood": "one word mood (e.g., focused, relaxed, energetic, creative)",
  "activity": "main activity (e.g., coding, gaming, browsing, video-editing, studying)",
  "objects": ["list", "of", "visible", "objects"],
  "suggested_genre": "music genre that fits (e.g., lo-fi, edm, pop, classical, jazz)",
  "energy_level": 1-5 (1=calm, 5=intense),
  "description": "brief 1-sentence description",
  "screen_text": "Extract the KEY educational/informational content visible on screen. Include main headings, definitions, key facts, code snippets, or study material. This will be turned into song lyrics to help the user memorize/study the content. If no educational content, write null."
}

Only respond with valid JSON, no other text.`
