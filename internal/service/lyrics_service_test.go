package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screentosong-be/internal/repository/memory"
	"screentosong-be/pkg/apperr"
	"screentosong-be/pkg/events"
	"screentosong-be/pkg/imagehash"
	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/lyrics"
	"screentosong-be/pkg/store"
)

type scriptedLLM struct {
	outputs    []string
	err        error
	lastPrompt string
	calls      int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) > 0 {
		return s.Generate(ctx, history[len(history)-1].Content, options...)
	}
	return s.Generate(ctx, "", options...)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	out := s.outputs[s.calls%len(s.outputs)]
	s.calls++
	return out, nil
}

type recordingPublisher struct {
	published []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func newLyricsFixture(t *testing.T, provider llm.Provider) (ILyricsService, *memory.SessionRepository, *recordingPublisher) {
	t.Helper()
	sessions := memory.NewSessionRepository(time.Hour)
	pub := &recordingPublisher{}
	svc := NewLyricsService(sessions, lyrics.NewGenerator(provider), pub, noopLogger{})
	return svc, sessions, pub
}

func primeScene(sessions *memory.SessionRepository, sessionID string, scene *store.SceneDescriptor) {
	sessions.GetOrCreate(sessionID).Accept(imagehash.Hash(0), scene)
}

func TestGenerateRequiresAnalyzedScene(t *testing.T) {
	svc, _, _ := newLyricsFixture(t, &scriptedLLM{outputs: []string{"a\nb"}})

	_, err := svc.Generate(context.Background(), "s1", "")
	require.Error(t, err)

	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}

func TestGenerateAppendsVerseAndPublishes(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"first line\nsecond line\nthird line\nfourth line"}}
	svc, sessions, pub := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm", SuggestedGenre: "lo-fi"})

	verse, err := svc.Generate(context.Background(), "s1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"first line", "second line", "third line", "fourth line"}, verse.Lines)
	assert.Equal(t, "lo-fi", verse.Genre, "empty genre falls back to the scene suggestion")

	history := svc.History("s1", 0)
	assert.Equal(t, 1, history.VerseCount)
	assert.Equal(t, 4, history.LineCount)

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.TypeVerseCreated, pub.published[0].EventType())
}

func TestGenerateCarriesAvoidLinesFromHistory(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"alpha line\nbeta line", "gamma line\ndelta line"}}
	svc, sessions, _ := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm"})

	_, err := svc.Generate(context.Background(), "s1", "pop")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "s1", "pop")
	require.NoError(t, err)

	assert.Contains(t, provider.lastPrompt, "alpha line", "second prompt must steer away from earlier lines")
	assert.Contains(t, provider.lastPrompt, "beta line")
}

func TestGenerateFailureLeavesHistoryUntouched(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"keeper line"}}
	svc, sessions, pub := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm"})

	_, err := svc.Generate(context.Background(), "s1", "pop")
	require.NoError(t, err)

	provider.err = errors.New("model overloaded")
	_, err = svc.Generate(context.Background(), "s1", "pop")
	require.Error(t, err)
	assert.Equal(t, apperr.KindGeneration, apperr.KindOf(err))

	history := svc.History("s1", 0)
	assert.Equal(t, 1, history.VerseCount, "failed generation must not grow the history")
	assert.Len(t, pub.published, 1)

	// The descriptor survives too: a retry succeeds without re-analyzing.
	provider.err = nil
	_, err = svc.Generate(context.Background(), "s1", "pop")
	require.NoError(t, err)
}

func TestHistoryLimitReturnsNewestVerses(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"one\ntwo", "three\nfour", "five\nsix"}}
	svc, sessions, _ := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm"})

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), "s1", "pop")
		require.NoError(t, err)
	}

	history := svc.History("s1", 2)
	assert.Equal(t, 3, history.VerseCount, "verse_count reports the full history")
	require.Len(t, history.Verses, 2)
	assert.Equal(t, []string{"three", "four"}, history.Verses[0].Lines)
	assert.Equal(t, []string{"five", "six"}, history.Verses[1].Lines)
}

func TestExportTextRoundTrips(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"hello world\nsecond line", "third line\nfourth line"}}
	svc, sessions, _ := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm"})

	_, err := svc.Generate(context.Background(), "s1", "jazz")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "s1", "jazz")
	require.NoError(t, err)

	text := svc.ExportText("s1")
	assert.Contains(t, text, "[1] jazz")
	assert.Contains(t, text, "[2] jazz")

	// Re-splitting the export recovers every lyric line.
	var got []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		got = append(got, line)
	}
	assert.Equal(t, []string{"hello world", "second line", "third line", "fourth line"}, got)
}

func TestClearSessionResetsEverything(t *testing.T) {
	provider := &scriptedLLM{outputs: []string{"a line\nb line"}}
	svc, sessions, pub := newLyricsFixture(t, provider)
	primeScene(sessions, "s1", &store.SceneDescriptor{Mood: "calm"})

	_, err := svc.Generate(context.Background(), "s1", "pop")
	require.NoError(t, err)

	res := svc.ClearSession(context.Background(), "s1")
	assert.True(t, res.Cleared)
	assert.Equal(t, "s1", res.SessionId)

	history := svc.History("s1", 0)
	assert.Equal(t, 0, history.VerseCount)
	assert.Equal(t, 0, history.LineCount)
	assert.Nil(t, sessions.GetOrCreate("s1").CurrentScene(), "reset drops the descriptor too")

	last := pub.published[len(pub.published)-1]
	assert.Equal(t, events.TypeSessionCleared, last.EventType())
}
