package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/logger"
	"screentosong-be/internal/repository/memory"
	"screentosong-be/pkg/apperr"
	"screentosong-be/pkg/events"
	"screentosong-be/pkg/lyrics"
	"screentosong-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// avoidLineWindow is how many recent lines the prompt carries to steer the
// model away from repeating itself.
const avoidLineWindow = 10

type ILyricsService interface {
	Generate(ctx context.Context, sessionID, genre string) (*dto.VerseResponse, error)
	History(sessionID string, limit int) *dto.HistoryResponse
	ExportText(sessionID string) string
	ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse
}

type lyricsService struct {
	sessions         *memory.SessionRepository
	generator        *lyrics.Generator
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewLyricsService(
	sessions *memory.SessionRepository,
	generator *lyrics.Generator,
	publisherService IPublisherService,
	log logger.ILogger,
) ILyricsService {
	return &lyricsService{
		sessions:         sessions,
		generator:        generator,
		publisherService: publisherService,
		logger:           log,
	}
}

// Generate writes one verse for the session's current scene. The verse only
// joins the history when generation succeeded; a failed call leaves the
// history and descriptor exactly as they were.
func (s *lyricsService) Generate(ctx context.Context, sessionID, genre string) (*dto.VerseResponse, error) {
	session := s.sessions.GetOrCreate(sessionID)
	scene := session.CurrentScene()
	if scene == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "no scene analyzed yet; upload a frame first")
	}

	if genre == "" {
		genre = scene.SuggestedGenre
	}

	avoid := session.RecentLines(avoidLineWindow)
	lines, err := s.generator.Generate(ctx, scene, avoid)
	if err != nil {
		s.logger.Error("LyricsService", "Generation failed", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return nil, apperr.Generation(err)
	}

	verse := store.Verse{
		Id:        uuid.New(),
		Lines:     lines,
		Genre:     genre,
		CreatedAt: time.Now(),
	}
	session.AppendVerse(verse)

	if s.publisherService != nil {
		if err := s.publisherService.Publish(ctx, events.NewVerseCreated(session.ID, verse)); err != nil {
			s.logger.Warn("LyricsService", "Verse event not published", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("LyricsService", "Verse generated", map[string]interface{}{
		"session_id": session.ID,
		"verse_id":   verse.Id,
		"genre":      genre,
	})
	return verseToDto(verse), nil
}

// History returns the newest verses, capped at limit (0 means all).
func (s *lyricsService) History(sessionID string, limit int) *dto.HistoryResponse {
	session := s.sessions.GetOrCreate(sessionID)
	all := session.Verses()

	verses := all
	if limit > 0 && len(all) > limit {
		verses = all[len(all)-limit:]
	}

	out := make([]dto.VerseResponse, 0, len(verses))
	for _, v := range verses {
		out = append(out, *verseToDto(v))
	}
	return &dto.HistoryResponse{
		Verses:     out,
		VerseCount: len(all),
		LineCount:  session.LineCount(),
	}
}

// ExportText renders the whole history as plain text, one block per verse.
func (s *lyricsService) ExportText(sessionID string) string {
	session := s.sessions.GetOrCreate(sessionID)

	var b strings.Builder
	for i, v := range session.Verses() {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, v.Genre)
		for _, line := range v.Lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ClearSession wipes verses, fingerprint and descriptor in one atomic reset.
func (s *lyricsService) ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse {
	session := s.sessions.GetOrCreate(sessionID)
	session.Reset()

	if s.publisherService != nil {
		if err := s.publisherService.Publish(ctx, events.NewSessionCleared(session.ID)); err != nil {
			s.logger.Warn("LyricsService", "Clear event not published", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("LyricsService", "Session cleared", map[string]interface{}{"session_id": session.ID})
	return &dto.ClearSessionResponse{SessionId: session.ID, Cleared: true}
}

func verseToDto(v store.Verse) *dto.VerseResponse {
	return &dto.VerseResponse{
		Id:        v.Id,
		Lines:     v.Lines,
		Genre:     v.Genre,
		CreatedAt: v.CreatedAt,
	}
}
