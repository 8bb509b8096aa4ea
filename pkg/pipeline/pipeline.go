package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/lyrics"
	"screentosong-be/pkg/store"
)

var sleep = time.Sleep

// Step statuses reported in the run trace.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusFallback = "fallback"
)

// Step records the outcome of one pipeline stage.
type Step struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Attempt    int    `json:"attempt"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// SceneAnalyzer fingerprints a frame and classifies it when the scene changed.
type SceneAnalyzer interface {
	AnalyzeFrame(ctx context.Context, sessionID string, image []byte) (scene *store.SceneDescriptor, cached bool, err error)
}

// LyricWriter produces a verse for a scene and records it in session history.
type LyricWriter interface {
	Generate(ctx context.Context, sessionID string, scene *store.SceneDescriptor) (*store.Verse, error)
}

// Renderer turns verses into a song and, optionally, a lyric video.
type Renderer interface {
	Sing(ctx context.Context, lines []string, genre, mood string) (string, error)
	Video(ctx context.Context, verses [][]string, genre, mood string) (string, error)
}

// Request is one full pipeline invocation.
type Request struct {
	SessionID string
	Image     []byte
	Genre     string
	MakeVideo bool
}

// Result is the step trace plus whatever the run produced.
type Result struct {
	Steps     []Step                 `json:"steps"`
	Cached    bool                   `json:"cached"`
	Scene     *store.SceneDescriptor `json:"scene,omitempty"`
	Verse     *store.Verse           `json:"verse,omitempty"`
	SongPath  string                 `json:"song_path,omitempty"`
	VideoPath string                 `json:"video_path,omitempty"`
}

// Runner drives a one-click analyze → lyrics → critique → render run with
// per-step retries.
type Runner struct {
	analyzer SceneAnalyzer
	writer   LyricWriter
	critic   llm.Provider
	renderer Renderer

	maxAttempts int
	backoff     time.Duration
	minScore    int
}

// Option configures a Runner.
type Option func(*Runner)

// WithCritic enables the LLM self-critique stage.
func WithCritic(p llm.Provider) Option {
	return func(r *Runner) { r.critic = p }
}

// WithRenderer enables the audio and video stages.
func WithRenderer(rd Renderer) Option {
	return func(r *Runner) { r.renderer = rd }
}

// WithMaxAttempts overrides the per-step attempt limit.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff overrides the linear backoff base.
func WithBackoff(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// NewRunner builds a pipeline runner. Analyzer and writer are required; the
// critique and render stages are skipped unless wired in via options.
func NewRunner(analyzer SceneAnalyzer, writer LyricWriter, opts ...Option) *Runner {
	r := &Runner{
		analyzer:    analyzer,
		writer:      writer,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		minScore:    6,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// attempt runs fn up to maxAttempts times with linear backoff and records the
// outcome as a named step.
func (r *Runner) attempt(ctx context.Context, name string, fn func() error) Step {
	step := Step{Name: name, Status: StatusRunning}
	start := time.Now()
	var err error
	for step.Attempt = 1; step.Attempt <= r.maxAttempts; step.Attempt++ {
		if err = fn(); err == nil {
			step.Status = StatusSuccess
			step.DurationMs = time.Since(start).Milliseconds()
			return step
		}
		if step.Attempt < r.maxAttempts {
			sleep(r.backoff * time.Duration(step.Attempt))
		}
	}
	step.Attempt = r.maxAttempts
	step.Status = StatusFailed
	step.Error = err.Error()
	step.DurationMs = time.Since(start).Milliseconds()
	return step
}

func skipped(name string) Step {
	return Step{Name: name, Status: StatusSkipped}
}

// Run executes the full pipeline. Lyric generation falls back to a canned
// verse when its retries are exhausted; everything downstream keeps going on
// whatever the earlier stages produced.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	var res Result

	analyze := r.attempt(ctx, "analyze", func() error {
		scene, cached, err := r.analyzer.AnalyzeFrame(ctx, req.SessionID, req.Image)
		if err != nil {
			return err
		}
		res.Scene = scene
		res.Cached = cached
		return nil
	})
	res.Steps = append(res.Steps, analyze)
	if analyze.Status == StatusFailed {
		res.Steps = append(res.Steps, skipped("lyrics"), skipped("critique"), skipped("audio"), skipped("video"))
		return res
	}

	genStep := r.attempt(ctx, "lyrics", func() error {
		verse, err := r.writer.Generate(ctx, req.SessionID, res.Scene)
		if err != nil {
			return err
		}
		res.Verse = verse
		return nil
	})
	if genStep.Status == StatusFailed {
		scene := res.Scene
		if scene == nil {
			scene = &store.SceneDescriptor{}
		}
		fb := lyrics.FallbackVerse(scene)
		res.Verse = &store.Verse{Lines: fb, Genre: req.Genre, CreatedAt: time.Now()}
		genStep.Status = StatusFallback
	}
	res.Steps = append(res.Steps, genStep)

	res.Steps = append(res.Steps, r.critique(ctx, req, &res))

	if r.renderer == nil {
		res.Steps = append(res.Steps, skipped("audio"), skipped("video"))
		return res
	}

	mood := ""
	if res.Scene != nil {
		mood = res.Scene.Mood
	}
	audio := r.attempt(ctx, "audio", func() error {
		path, err := r.renderer.Sing(ctx, res.Verse.Lines, req.Genre, mood)
		if err != nil {
			return err
		}
		res.SongPath = path
		return nil
	})
	res.Steps = append(res.Steps, audio)

	if !req.MakeVideo || audio.Status == StatusFailed {
		res.Steps = append(res.Steps, skipped("video"))
		return res
	}
	video := r.attempt(ctx, "video", func() error {
		path, err := r.renderer.Video(ctx, [][]string{res.Verse.Lines}, req.Genre, mood)
		if err != nil {
			return err
		}
		res.VideoPath = path
		return nil
	})
	res.Steps = append(res.Steps, video)
	return res
}

// critique asks the critic to score the verse 1-10 and regenerates while the
// score falls short, at most maxAttempts rounds. A missing critic or an
// unparseable reply leaves the verse alone.
func (r *Runner) critique(ctx context.Context, req Request, res *Result) Step {
	if r.critic == nil || res.Verse == nil {
		return skipped("critique")
	}
	step := Step{Name: "critique", Status: StatusRunning}
	start := time.Now()

	for step.Attempt = 1; step.Attempt <= r.maxAttempts; step.Attempt++ {
		score, err := r.scoreVerse(ctx, res.Verse.Lines)
		if err != nil {
			step.Status = StatusFailed
			step.Error = err.Error()
			step.DurationMs = time.Since(start).Milliseconds()
			return step
		}
		if score >= r.minScore {
			step.Status = StatusSuccess
			step.DurationMs = time.Since(start).Milliseconds()
			return step
		}
		verse, err := r.writer.Generate(ctx, req.SessionID, res.Scene)
		if err != nil {
			break
		}
		res.Verse = verse
	}
	// Out of rounds: keep the last verse rather than fail the run.
	step.Status = StatusSuccess
	step.DurationMs = time.Since(start).Milliseconds()
	return step
}

var scoreRe = regexp.MustCompile(`\d+`)

func (r *Runner) scoreVerse(ctx context.Context, lines []string) (int, error) {
	prompt := fmt.Sprintf(
		"Rate these song lyrics from 1 to 10 for vividness and singability. Reply with only the number.\n\n%s",
		strings.Join(lines, "\n"))
	reply, err := r.critic.Generate(ctx, prompt, llm.WithMaxTokens(8), llm.WithTemperature(0))
	if err != nil {
		return 0, fmt.Errorf("critique: %w", err)
	}
	m := scoreRe.FindString(reply)
	if m == "" {
		return 0, fmt.Errorf("critique: no score in reply %q", truncateReply(reply))
	}
	score, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("critique: parse score: %w", err)
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

func truncateReply(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
