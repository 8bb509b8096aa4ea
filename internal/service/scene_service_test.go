package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screentosong-be/internal/repository/memory"
	"screentosong-be/pkg/apperr"
	"screentosong-be/pkg/store"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type countingClassifier struct {
	scene *store.SceneDescriptor
	err   error
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, imageBytes []byte) (*store.SceneDescriptor, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.scene, nil
}

// flatPNG is a uniform frame; its dHash is zero.
func flatPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 90, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: shade})
		}
	}
	return encodePNG(t, img)
}

// rampPNG brightens right-to-left, so every grid cell outshines its right
// neighbor and all 64 hash bits are set.
func rampPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 90, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 - x*2)})
		}
	}
	return encodePNG(t, img)
}

// stripesPNG alternates bright and dark 10px columns, landing halfway between
// the flat and ramp hashes.
func stripesPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 90, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 90; x++ {
			shade := uint8(0)
			if (x/10)%2 == 0 {
				shade = 255
			}
			img.SetGray(x, y, color.Gray{Y: shade})
		}
	}
	return encodePNG(t, img)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newSceneFixture(t *testing.T, classifier *countingClassifier) (ISceneService, *memory.SessionRepository) {
	t.Helper()
	sessions := memory.NewSessionRepository(time.Hour)
	svc := NewSceneService(sessions, classifier, 10, filepath.Join(t.TempDir(), "shots"), 2, noopLogger{})
	return svc, sessions
}

func TestAnalyzeFrameFirstFrameAlwaysClassifies(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm", Activity: "reading"}}
	svc, _ := newSceneFixture(t, classifier)

	res, err := svc.AnalyzeFrame(context.Background(), "s1", flatPNG(t, 0))
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Equal(t, "calm", res.Context.Mood)
	assert.Equal(t, 1, classifier.calls)
	assert.NotEmpty(t, res.Fingerprint)
}

func TestAnalyzeFrameUnchangedServesCachedDescriptor(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	frame := flatPNG(t, 0)
	_, err := svc.AnalyzeFrame(context.Background(), "s1", frame)
	require.NoError(t, err)

	res, err := svc.AnalyzeFrame(context.Background(), "s1", frame)
	require.NoError(t, err)

	assert.True(t, res.Cached)
	assert.Equal(t, "calm", res.Context.Mood)
	assert.Equal(t, 1, classifier.calls, "unchanged frame must not re-classify")
}

func TestAnalyzeFrameChangedSceneReclassifies(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	_, err := svc.AnalyzeFrame(context.Background(), "s1", flatPNG(t, 0))
	require.NoError(t, err)

	classifier.scene = &store.SceneDescriptor{Mood: "energetic"}
	res, err := svc.AnalyzeFrame(context.Background(), "s1", rampPNG(t))
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Equal(t, "energetic", res.Context.Mood)
	assert.Equal(t, 2, classifier.calls)
}

func TestAnalyzeFrameDecodeFailureTouchesNothing(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	_, err := svc.AnalyzeFrame(context.Background(), "s1", []byte("definitely not an image"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindDecode, apperr.KindOf(err))
	assert.Equal(t, 0, classifier.calls)

	// The session saw no frame, so the next valid upload is still a first
	// frame and classifies.
	res, err := svc.AnalyzeFrame(context.Background(), "s1", flatPNG(t, 0))
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestAnalyzeFrameClassificationFailureKeepsPriorState(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, sessions := newSceneFixture(t, classifier)

	base := flatPNG(t, 0)
	_, err := svc.AnalyzeFrame(context.Background(), "s1", base)
	require.NoError(t, err)

	classifier.err = errors.New("provider down")
	_, err = svc.AnalyzeFrame(context.Background(), "s1", rampPNG(t))
	require.Error(t, err)
	assert.Equal(t, apperr.KindClassification, apperr.KindOf(err))

	// Prior descriptor survives the failure.
	session, ok := sessions.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "calm", session.CurrentScene().Mood)

	// The failed frame was not accepted: re-uploading it retries the
	// classifier instead of serving a stale cached answer.
	classifier.err = nil
	classifier.scene = &store.SceneDescriptor{Mood: "energetic"}
	res, err := svc.AnalyzeFrame(context.Background(), "s1", rampPNG(t))
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "energetic", res.Context.Mood)
}

func TestAnalyzeFrameSmallChangeStaysCached(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	_, err := svc.AnalyzeFrame(context.Background(), "s1", flatPNG(t, 100))
	require.NoError(t, err)

	// A slightly different uniform shade hashes identically.
	res, err := svc.AnalyzeFrame(context.Background(), "s1", flatPNG(t, 110))
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, classifier.calls)
}

func TestScreenshotRingKeepsOnlyRecentFrames(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	for _, frame := range [][]byte{flatPNG(t, 0), rampPNG(t), stripesPNG(t)} {
		_, err := svc.AnalyzeFrame(context.Background(), "s1", frame)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, classifier.calls)
	assert.Len(t, svc.Screenshots("s1"), 2, "ring keeps only the configured number of frames")
}

func TestSessionsAreIsolated(t *testing.T) {
	classifier := &countingClassifier{scene: &store.SceneDescriptor{Mood: "calm"}}
	svc, _ := newSceneFixture(t, classifier)

	frame := flatPNG(t, 0)
	_, err := svc.AnalyzeFrame(context.Background(), "alpha", frame)
	require.NoError(t, err)

	// Same pixels, different session: still a first frame there.
	res, err := svc.AnalyzeFrame(context.Background(), "beta", frame)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, classifier.calls)
}
