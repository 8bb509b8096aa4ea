package dto

import "screentosong-be/pkg/store"

// AnalyzeFrameResponse reports what a frame upload did to the session.
// Cached means the scene was unchanged and the stored descriptor was reused
// without calling the vision provider.
type AnalyzeFrameResponse struct {
	Cached      bool                   `json:"cached"`
	Fingerprint string                 `json:"fingerprint"`
	Context     *store.SceneDescriptor `json:"context"`
}
