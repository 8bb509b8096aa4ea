package service

import (
	"context"

	"screentosong-be/pkg/pipeline"
	"screentosong-be/pkg/store"
)

// Adapters binding the orchestration services onto the pipeline's stage
// contracts. Writer and renderer are request-scoped: they carry the genre and
// session the run was started with.

type pipelineAnalyzer struct {
	scenes ISceneService
}

func NewPipelineAnalyzer(scenes ISceneService) pipeline.SceneAnalyzer {
	return pipelineAnalyzer{scenes: scenes}
}

func (a pipelineAnalyzer) AnalyzeFrame(ctx context.Context, sessionID string, image []byte) (*store.SceneDescriptor, bool, error) {
	res, err := a.scenes.AnalyzeFrame(ctx, sessionID, image)
	if err != nil {
		return nil, false, err
	}
	return res.Context, res.Cached, nil
}

type pipelineWriter struct {
	lyrics ILyricsService
	genre  string
}

func NewPipelineWriter(lyrics ILyricsService, genre string) pipeline.LyricWriter {
	return pipelineWriter{lyrics: lyrics, genre: genre}
}

func (w pipelineWriter) Generate(ctx context.Context, sessionID string, scene *store.SceneDescriptor) (*store.Verse, error) {
	res, err := w.lyrics.Generate(ctx, sessionID, w.genre)
	if err != nil {
		return nil, err
	}
	return &store.Verse{
		Id:        res.Id,
		Lines:     res.Lines,
		Genre:     res.Genre,
		CreatedAt: res.CreatedAt,
	}, nil
}

type pipelineRenderer struct {
	render    IRenderService
	sessionID string
}

func NewPipelineRenderer(render IRenderService, sessionID string) pipeline.Renderer {
	return pipelineRenderer{render: render, sessionID: sessionID}
}

func (r pipelineRenderer) Sing(ctx context.Context, lines []string, genre, mood string) (string, error) {
	return r.render.RenderSong(ctx, r.sessionID, lines, genre, mood)
}

func (r pipelineRenderer) Video(ctx context.Context, verses [][]string, genre, mood string) (string, error) {
	return r.render.RenderVideo(ctx, r.sessionID, verses, genre, mood)
}
