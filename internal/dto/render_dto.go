package dto

// SingRequest narrows an empty body to defaults: a missing genre or mood is
// filled from the session's current scene at render time.
type SingRequest struct {
	Genre string `json:"genre" validate:"omitempty,max=64"`
	Mood  string `json:"mood" validate:"omitempty,max=64"`
}

type RenderResponse struct {
	Path string `json:"path"`
	Url  string `json:"url"`
}
