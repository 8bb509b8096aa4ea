package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"screentosong-be/internal/dto"
	"screentosong-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLyricsSvc struct {
	calls      int
	lastGenre  string
	lastCtxKey string
}

func (s *stubLyricsSvc) Generate(ctx context.Context, sessionID, genre string) (*dto.VerseResponse, error) {
	s.calls++
	s.lastGenre = genre
	s.lastCtxKey = sessionID
	return &dto.VerseResponse{Lines: []string{"one", "two"}, Genre: genre}, nil
}

func (s *stubLyricsSvc) History(sessionID string, limit int) *dto.HistoryResponse {
	return &dto.HistoryResponse{}
}

func (s *stubLyricsSvc) ExportText(sessionID string) string { return "" }

func (s *stubLyricsSvc) ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse {
	return &dto.ClearSessionResponse{SessionId: sessionID, Cleared: true}
}

type stubRenderSvc struct {
	calls int
}

func (s *stubRenderSvc) Sing(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error) {
	s.calls++
	return &dto.RenderResponse{Path: "outputs/song.mp3", Url: "/outputs/song.mp3"}, nil
}

func (s *stubRenderSvc) Video(ctx context.Context, sessionID, genre, mood string) (*dto.RenderResponse, error) {
	s.calls++
	return &dto.RenderResponse{Path: "outputs/video.mp4", Url: "/outputs/video.mp4"}, nil
}

func (s *stubRenderSvc) RenderSong(ctx context.Context, sessionID string, lines []string, genre, mood string) (string, error) {
	return "outputs/song.mp3", nil
}

func (s *stubRenderSvc) RenderVideo(ctx context.Context, sessionID string, verses [][]string, genre, mood string) (string, error) {
	return "outputs/video.mp4", nil
}

type stubSceneSvc struct{}

func (stubSceneSvc) AnalyzeFrame(ctx context.Context, sessionID string, image []byte) (*dto.AnalyzeFrameResponse, error) {
	return &dto.AnalyzeFrameResponse{
		Fingerprint: "0000000000000000",
		Context:     &store.SceneDescriptor{Mood: "calm", SuggestedGenre: "lo-fi"},
	}, nil
}

func (stubSceneSvc) Screenshots(sessionID string) []string { return nil }

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	register(app.Group("/api"))
	return app
}

func TestGenerateRejectsOverlongGenre(t *testing.T) {
	svc := &stubLyricsSvc{}
	app := newTestApp(NewLyricsController(svc).RegisterRoutes)

	body := `{"genre":"` + strings.Repeat("x", 80) + `"}`
	req := httptest.NewRequest("POST", "/api/lyrics/v1/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, svc.calls, "service must not run on invalid input")
}

func TestGenerateAcceptsEmptyBody(t *testing.T) {
	svc := &stubLyricsSvc{}
	app := newTestApp(NewLyricsController(svc).RegisterRoutes)

	req := httptest.NewRequest("POST", "/api/lyrics/v1/generate", nil)
	req.Header.Set("X-Session-ID", "desk-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "desk-1", svc.lastCtxKey)
	assert.Equal(t, "", svc.lastGenre, "missing genre stays empty for scene defaulting")
}

func TestSingRejectsOverlongGenre(t *testing.T) {
	svc := &stubRenderSvc{}
	app := newTestApp(NewRenderController(svc).RegisterRoutes)

	body := `{"genre":"` + strings.Repeat("x", 80) + `"}`
	req := httptest.NewRequest("POST", "/api/render/v1/sing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestSingAcceptsEmptyGenre(t *testing.T) {
	svc := &stubRenderSvc{}
	app := newTestApp(NewRenderController(svc).RegisterRoutes)

	req := httptest.NewRequest("POST", "/api/render/v1/sing", strings.NewReader(`{"mood":"calm"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.calls)
}

func pipelineForm(t *testing.T, genre, makeVideo string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "frame.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-a-real-png"))
	require.NoError(t, err)
	if genre != "" {
		require.NoError(t, w.WriteField("genre", genre))
	}
	if makeVideo != "" {
		require.NoError(t, w.WriteField("make_video", makeVideo))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestPipelineRunBindsFormFields(t *testing.T) {
	lyricsSvc := &stubLyricsSvc{}
	app := newTestApp(NewPipelineController(stubSceneSvc{}, lyricsSvc, &stubRenderSvc{}, nil).RegisterRoutes)

	body, contentType := pipelineForm(t, "jazz", "true")
	req := httptest.NewRequest("POST", "/api/pipeline/v1/run", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Data dto.RunPipelineResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.NotNil(t, envelope.Data.Verse)
	assert.Equal(t, "jazz", envelope.Data.Verse.Genre)
	assert.Equal(t, "/outputs/song.mp3", envelope.Data.SongUrl)
	assert.Equal(t, "/outputs/video.mp4", envelope.Data.VideoUrl, "make_video=true must reach the runner")
}

func TestPipelineRunRejectsOverlongGenre(t *testing.T) {
	lyricsSvc := &stubLyricsSvc{}
	app := newTestApp(NewPipelineController(stubSceneSvc{}, lyricsSvc, &stubRenderSvc{}, nil).RegisterRoutes)

	body, contentType := pipelineForm(t, strings.Repeat("x", 80), "false")
	req := httptest.NewRequest("POST", "/api/pipeline/v1/run", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, lyricsSvc.calls)
}
