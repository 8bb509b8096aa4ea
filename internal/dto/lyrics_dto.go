package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateLyricsRequest struct {
	Genre string `json:"genre" validate:"omitempty,max=64"`
}

type VerseResponse struct {
	Id        uuid.UUID `json:"id"`
	Lines     []string  `json:"lines"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Verses     []VerseResponse `json:"verses"`
	VerseCount int             `json:"verse_count"`
	LineCount  int             `json:"line_count"`
}

type ClearSessionResponse struct {
	SessionId string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}
