package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/logger"
	"screentosong-be/internal/repository/memory"
	"screentosong-be/pkg/apperr"
	"screentosong-be/pkg/imagehash"
	"screentosong-be/pkg/vision"
)

type ISceneService interface {
	AnalyzeFrame(ctx context.Context, sessionID string, image []byte) (*dto.AnalyzeFrameResponse, error)
	Screenshots(sessionID string) []string
}

type sceneService struct {
	sessions      *memory.SessionRepository
	classifier    vision.Provider
	threshold     int
	screenshotDir string
	keep          int
	logger        logger.ILogger
}

func NewSceneService(
	sessions *memory.SessionRepository,
	classifier vision.Provider,
	threshold int,
	screenshotDir string,
	keep int,
	log logger.ILogger,
) ISceneService {
	if keep <= 0 {
		keep = 20
	}
	return &sceneService{
		sessions:      sessions,
		classifier:    classifier,
		threshold:     threshold,
		screenshotDir: screenshotDir,
		keep:          keep,
		logger:        log,
	}
}

// AnalyzeFrame fingerprints an uploaded frame and decides whether to call the
// vision classifier. Unchanged scenes answer from the stored descriptor
// without an external call; failed classifications leave the previous
// fingerprint and descriptor in place so the next capture retries cleanly.
func (s *sceneService) AnalyzeFrame(ctx context.Context, sessionID string, image []byte) (*dto.AnalyzeFrameResponse, error) {
	hash, err := imagehash.Decode(image)
	if err != nil {
		return nil, apperr.Decode(err)
	}

	session := s.sessions.GetOrCreate(sessionID)
	changed, scene := session.Observe(hash, s.threshold)
	if !changed {
		s.logger.Debug("SceneService", "Scene unchanged, serving cached descriptor", map[string]interface{}{
			"session_id":  session.ID,
			"fingerprint": hash.String(),
		})
		return &dto.AnalyzeFrameResponse{
			Cached:      true,
			Fingerprint: hash.String(),
			Context:     scene,
		}, nil
	}

	scene, err = s.classifier.Classify(ctx, image)
	if err != nil {
		s.logger.Error("SceneService", "Classification failed", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return nil, apperr.Classification(err)
	}

	session.Accept(hash, scene)
	s.saveScreenshot(session.ID, image)

	s.logger.Info("SceneService", "Scene classified", map[string]interface{}{
		"session_id":  session.ID,
		"fingerprint": hash.String(),
		"mood":        scene.Mood,
		"activity":    scene.Activity,
	})
	return &dto.AnalyzeFrameResponse{
		Cached:      false,
		Fingerprint: hash.String(),
		Context:     scene,
	}, nil
}

// saveScreenshot keeps a short on-disk ring of accepted frames for video
// assembly. Failures only log; the analyze path never depends on disk.
func (s *sceneService) saveScreenshot(sessionID string, image []byte) {
	if s.screenshotDir == "" {
		return
	}
	dir := filepath.Join(s.screenshotDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("SceneService", "Cannot create screenshot dir", map[string]interface{}{"error": err.Error()})
		return
	}
	name := fmt.Sprintf("frame_%d.png", time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(dir, name), image, 0o644); err != nil {
		s.logger.Warn("SceneService", "Cannot write screenshot", map[string]interface{}{"error": err.Error()})
		return
	}
	s.pruneScreenshots(dir)
}

func (s *sceneService) pruneScreenshots(dir string) {
	paths := listFrames(dir)
	for len(paths) > s.keep {
		if err := os.Remove(paths[0]); err != nil {
			return
		}
		paths = paths[1:]
	}
}

// Screenshots returns the session's saved frames, oldest first.
func (s *sceneService) Screenshots(sessionID string) []string {
	if sessionID == "" {
		sessionID = memory.DefaultSessionID
	}
	return listFrames(filepath.Join(s.screenshotDir, sessionID))
}

func listFrames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// frame_<unixnano>.png sorts chronologically only for equal-width stamps,
	// so sort by name length first.
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})
	return paths
}
