package dto

import "screentosong-be/pkg/pipeline"

type RunPipelineRequest struct {
	Genre     string `json:"genre" form:"genre" validate:"omitempty,max=64"`
	MakeVideo bool   `json:"make_video" form:"make_video"`
}

type RunPipelineResponse struct {
	Steps    []pipeline.Step `json:"steps"`
	Cached   bool            `json:"cached"`
	Verse    *VerseResponse  `json:"verse,omitempty"`
	SongUrl  string          `json:"song_url,omitempty"`
	VideoUrl string          `json:"video_url,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Vision bool   `json:"vision_configured"`
	Lyrics bool   `json:"lyrics_configured"`
	TTS    bool   `json:"tts_configured"`
	FFmpeg bool   `json:"ffmpeg_found"`
}
