package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/logger"
	"screentosong-be/internal/repository/memory"
	"screentosong-be/pkg/apperr"
	"screentosong-be/pkg/events"
	"screentosong-be/pkg/media"
	"screentosong-be/pkg/store"
	"screentosong-be/pkg/tts/elevenlabs"

	"github.com/gofiber/fiber/v2"
)

type IRenderService interface {
	Sing(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error)
	Video(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error)
	RenderSong(ctx context.Context, sessionID string, lines []string, genre, mood string) (string, error)
	RenderVideo(ctx context.Context, sessionID string, verses [][]string, genre, mood string) (string, error)
}

type renderService struct {
	tts              *elevenlabs.Client
	ffmpeg           *media.FFmpeg
	scenes           ISceneService
	sessions         *memory.SessionRepository
	publisherService IPublisherService
	outputDir        string
	timeout          time.Duration
	logger           logger.ILogger
}

func NewRenderService(
	tts *elevenlabs.Client,
	ffmpeg *media.FFmpeg,
	scenes ISceneService,
	sessions *memory.SessionRepository,
	publisherService IPublisherService,
	outputDir string,
	timeout time.Duration,
	log logger.ILogger,
) IRenderService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &renderService{
		tts:              tts,
		ffmpeg:           ffmpeg,
		scenes:           scenes,
		sessions:         sessions,
		publisherService: publisherService,
		outputDir:        outputDir,
		timeout:          timeout,
		logger:           log,
	}
}

// Sing renders the session's whole verse history into one song. Works on a
// frozen snapshot of the history; verses appended mid-render are not sung.
func (s *renderService) Sing(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error) {
	session := s.sessions.GetOrCreate(sessionID)
	lines := flattenVerses(session.Verses())
	if len(lines) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "no verses to sing; generate lyrics first")
	}
	genre, mood = s.fillFromScene(sessionID, genre, mood)

	path, err := s.RenderSong(ctx, session.ID, lines, genre, mood)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, session.ID, "song", path)
	return s.renderResponse(path), nil
}

// Video renders the song plus a screenshot slideshow with the lyrics burned
// in.
func (s *renderService) Video(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error) {
	session := s.sessions.GetOrCreate(sessionID)
	verses := session.Verses()
	if len(verses) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "no verses to sing; generate lyrics first")
	}
	genre, mood = s.fillFromScene(sessionID, genre, mood)

	sets := make([][]string, 0, len(verses))
	for _, v := range verses {
		sets = append(sets, v.Lines)
	}
	path, err := s.RenderVideo(ctx, session.ID, sets, genre, mood)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, session.ID, "video", path)
	return s.renderResponse(path), nil
}

// RenderSong is the line-level render used by Sing and the pipeline:
// TTS vocal -> wav -> vocal FX -> procedural backing track -> sidechain mix.
func (s *renderService) RenderSong(ctx context.Context, sessionID string, lines []string, genre, mood string) (string, error) {
	if !s.tts.Configured() {
		return "", apperr.Render(errors.New("elevenlabs not configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	work, err := os.MkdirTemp("", "render-*")
	if err != nil {
		return "", apperr.Render(err)
	}
	defer os.RemoveAll(work)

	// 1. Vocal stem from TTS
	voice, err := s.tts.Synthesize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return "", apperr.Render(fmt.Errorf("tts: %w", err))
	}
	rawPath := filepath.Join(work, "voice.mp3")
	if err := os.WriteFile(rawPath, voice, 0o644); err != nil {
		return "", apperr.Render(err)
	}

	// 2. Normalize and process the vocal
	tempo := media.TempoForGenre(genre)
	vocalWav := filepath.Join(work, "voice.wav")
	if err := s.ffmpeg.ToWav(ctx, rawPath, vocalWav); err != nil {
		return "", apperr.Render(err)
	}
	fxWav := filepath.Join(work, "voice_fx.wav")
	if err := s.ffmpeg.ApplyVocalEffects(ctx, vocalWav, fxWav, tempo); err != nil {
		return "", apperr.Render(err)
	}

	// 3. Backing track sized to the vocal plus an outro tail
	vocalDur, err := s.ffmpeg.Duration(ctx, fxWav)
	if err != nil {
		return "", apperr.Render(err)
	}
	musicWav := filepath.Join(work, "music.wav")
	track := media.GenerateBackingTrack(vocalDur+2, tempo, mood)
	if err := media.WriteWAV(musicWav, track, media.SampleRate); err != nil {
		return "", apperr.Render(err)
	}

	// 4. Mix and master
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", apperr.Render(err)
	}
	out := filepath.Join(s.outputDir, fmt.Sprintf("song_%s_%d.mp3", sessionID, time.Now().Unix()))
	if err := s.ffmpeg.MixMaster(ctx, fxWav, musicWav, out); err != nil {
		return "", apperr.Render(err)
	}

	s.logger.Info("RenderService", "Song rendered", map[string]interface{}{
		"session_id": sessionID,
		"path":       out,
		"tempo":      tempo,
		"lines":      len(lines),
	})
	return out, nil
}

// RenderVideo renders the song and assembles the slideshow. Sessions without
// saved screenshots get a generated gradient frame so the video never fails
// for lack of imagery.
func (s *renderService) RenderVideo(ctx context.Context, sessionID string, verses [][]string, genre, mood string) (string, error) {
	var lines []string
	for _, set := range verses {
		lines = append(lines, set...)
	}

	songPath, err := s.RenderSong(ctx, sessionID, lines, genre, mood)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	frames := s.scenes.Screenshots(sessionID)
	if len(frames) == 0 {
		placeholder := filepath.Join(s.outputDir, "placeholder.png")
		if err := writeGradientFrame(placeholder); err != nil {
			return "", apperr.Render(err)
		}
		frames = []string{placeholder}
	}

	out := filepath.Join(s.outputDir, fmt.Sprintf("video_%s_%d.mp4", sessionID, time.Now().Unix()))
	if err := s.ffmpeg.AssembleVideo(ctx, frames, songPath, out, lines); err != nil {
		return "", apperr.Render(err)
	}

	s.logger.Info("RenderService", "Video rendered", map[string]interface{}{
		"session_id": sessionID,
		"path":       out,
		"frames":     len(frames),
	})
	return out, nil
}

func (s *renderService) fillFromScene(sessionID, genre, mood string) (string, string) {
	scene := s.sessions.GetOrCreate(sessionID).CurrentScene()
	if scene != nil {
		if genre == "" {
			genre = scene.SuggestedGenre
		}
		if mood == "" {
			mood = scene.Mood
		}
	}
	if genre == "" {
		genre = "pop"
	}
	return genre, mood
}

func (s *renderService) announce(ctx context.Context, sessionID, kind, path string) {
	if s.publisherService == nil {
		return
	}
	if err := s.publisherService.Publish(ctx, events.NewRenderCompleted(sessionID, kind, filepath.Base(path))); err != nil {
		s.logger.Warn("RenderService", "Render event not published", map[string]interface{}{"error": err.Error()})
	}
}

func (s *renderService) renderResponse(path string) *dto.RenderResponse {
	return &dto.RenderResponse{
		Path: path,
		Url:  "/outputs/" + filepath.Base(path),
	}
}

func flattenVerses(verses []store.Verse) []string {
	var lines []string
	for _, v := range verses {
		lines = append(lines, v.Lines...)
	}
	return lines
}

// writeGradientFrame renders a vertical blue-to-violet gradient at the video
// frame size, used when a session has no saved screenshots.
func writeGradientFrame(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, media.VideoWidth, media.VideoHeight))
	for y := 0; y < media.VideoHeight; y++ {
		t := float64(y) / float64(media.VideoHeight)
		c := color.RGBA{
			R: uint8(30 + 80*t),
			G: uint8(20 + 30*t),
			B: uint8(90 + 120*t),
			A: 255,
		}
		for x := 0; x < media.VideoWidth; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
