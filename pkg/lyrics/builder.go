package lyrics

import (
	"fmt"
	"strings"

	"screentosong-be/pkg/store"
)

// VerseLineCount is how many lines one generated verse holds.
const VerseLineCount = 4

// PromptBuilder assembles the lyric-generation prompt from the scene
// descriptor and the deduplication context.
type PromptBuilder struct {
	scene      *store.SceneDescriptor
	avoidLines []string
}

// NewPromptBuilder creates a builder for one generation call. avoidLines is
// advisory "do not repeat" context, most recent last.
func NewPromptBuilder(scene *store.SceneDescriptor, avoidLines []string) *PromptBuilder {
	return &PromptBuilder{
		scene:      scene,
		avoidLines: avoidLines,
	}
}

// Build renders the full prompt.
func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Write %d lines of SONG LYRICS for a %s song.\n", VerseLineCount, b.scene.SuggestedGenre)

	b.writeStudyMaterial(&prompt)
	b.writeSceneContext(&prompt)
	b.writeRules(&prompt)
	b.writeAvoidList(&prompt)

	fmt.Fprintf(&prompt, "\nReturn ONLY the %d lines of lyrics, no explanations or quotes.", VerseLineCount)
	return prompt.String()
}

func (b *PromptBuilder) writeStudyMaterial(prompt *strings.Builder) {
	if b.scene.ScreenText == "" {
		return
	}
	prompt.WriteString("\nIMPORTANT - The user is studying/reading this content on their screen:\n")
	prompt.WriteString("\"\"\"")
	prompt.WriteString(b.scene.ScreenText)
	prompt.WriteString("\"\"\"\n\n")
	prompt.WriteString("Your lyrics MUST incorporate the KEY FACTS, DEFINITIONS, or CONCEPTS from this content.\n")
	prompt.WriteString("The goal is to help the user MEMORIZE and STUDY this material through catchy song lyrics.\n")
	prompt.WriteString("Transform the educational content into memorable, singable lines.\n")
}

func (b *PromptBuilder) writeSceneContext(prompt *strings.Builder) {
	prompt.WriteString("\nContext:\n")
	fmt.Fprintf(prompt, "- Mood: %s\n", b.scene.Mood)
	fmt.Fprintf(prompt, "- Activity: %s\n", b.scene.Activity)
	fmt.Fprintf(prompt, "- Energy level: %d/5\n", b.scene.EnergyLevel)
	fmt.Fprintf(prompt, "- Scene: %s\n", b.scene.Description)
}

func (b *PromptBuilder) writeRules(prompt *strings.Builder) {
	prompt.WriteString("\nCRITICAL RULES for lyrics:\n")
	prompt.WriteString("1. Write like a REAL SONG - use rhythm, rhyme, and poetic flow\n")
	prompt.WriteString("2. Each line should be SHORT and SINGABLE (5-12 words max)\n")
	prompt.WriteString("3. Use rhyme schemes (AABB or ABAB)\n")
	prompt.WriteString("4. If study content is provided, weave the key facts INTO the lyrics naturally\n")
	prompt.WriteString("5. Make it CATCHY and MEMORABLE - like something you'd actually sing\n")
	fmt.Fprintf(prompt, "6. Fit the %s genre style\n", b.scene.SuggestedGenre)
	prompt.WriteString("7. Think: \"Would this sound good performed with music?\"\n")
	prompt.WriteString("\nBAD example (too dry): \"Photosynthesis converts light to energy\"\n")
	prompt.WriteString("GOOD example: \"Catching sunlight, turning it to green / The chloroplast machine, you know what I mean\"\n")
}

func (b *PromptBuilder) writeAvoidList(prompt *strings.Builder) {
	if len(b.avoidLines) == 0 {
		return
	}
	prompt.WriteString("\nPrevious lyrics to avoid repeating:\n")
	prompt.WriteString(strings.Join(b.avoidLines, "\n"))
	prompt.WriteString("\n")
}
