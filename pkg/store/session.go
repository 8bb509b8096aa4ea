package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"screentosong-be/pkg/imagehash"
)

// SceneDescriptor is the structured result of classifying one frame. It is
// produced by the vision provider and treated as immutable once stored.
type SceneDescriptor struct {
	Mood           string   `json:"mood"`
	Activity       string   `json:"activity"`
	Objects        []string `json:"objects"`
	SuggestedGenre string   `json:"suggested_genre"`
	EnergyLevel    int      `json:"energy_level"` // 1-5
	Description    string   `json:"description"`
	ScreenText     string   `json:"screen_text,omitempty"` // study material extracted from the screen
}

// Verse is one generated lyric set: the lines of a single verse plus the
// genre it was written for. Verses are append-only; only a full session reset
// removes them.
type Verse struct {
	Id        uuid.UUID `json:"id"`
	Lines     []string  `json:"lines"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the capture-session cache state: the last accepted
// fingerprint, the current scene, and the verse history. All access goes
// through the methods below so the compare-then-update and append sequences
// stay atomic under concurrent server workers.
type Session struct {
	ID string

	mu       sync.Mutex
	hasHash  bool
	lastHash imagehash.Hash
	scene    *SceneDescriptor
	verses   []Verse
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Observe runs the change decision for a freshly hashed frame. It reports
// whether the scene changed (always true for the first frame of a session)
// and returns the current descriptor for the cached path. State is NOT
// updated here: the fingerprint only becomes last-accepted once
// classification succeeds, via Accept.
func (s *Session) Observe(h imagehash.Hash, threshold int) (changed bool, scene *SceneDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasHash {
		return true, nil
	}
	if s.lastHash.Distance(h) > threshold {
		return true, s.scene
	}
	if s.scene == nil {
		// Fingerprint seen but no descriptor yet: a previous classification
		// failed. Force a retry rather than serving nothing.
		return true, nil
	}
	return false, s.scene
}

// Accept installs a new fingerprint and scene descriptor after a successful
// classification.
func (s *Session) Accept(h imagehash.Hash, scene *SceneDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasHash = true
	s.lastHash = h
	s.scene = scene
}

// CurrentScene returns the descriptor of the last accepted frame, or nil.
func (s *Session) CurrentScene() *SceneDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// AppendVerse records a generated verse. Append-only.
func (s *Session) AppendVerse(v Verse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verses = append(s.verses, v)
}

// Verses returns a snapshot copy of the history, oldest first. Renderers and
// exporters work on the copy so ongoing appends cannot race them.
func (s *Session) Verses() []Verse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Verse, len(s.verses))
	copy(out, s.verses)
	return out
}

// VerseCount returns the number of verses in history.
func (s *Session) VerseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verses)
}

// LineCount is recomputed from the verses on every call, never cached, so it
// cannot drift from the actual history.
func (s *Session) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.verses {
		n += len(v.Lines)
	}
	return n
}

// RecentLines flattens the history into individual lines and returns at most
// maxLines of the newest ones, most recent last. Used as "do not repeat"
// context for the next generation call.
func (s *Session) RecentLines(maxLines int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, v := range s.verses {
		lines = append(lines, v.Lines...)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Reset atomically clears the verse history AND the fingerprint/descriptor
// state. The next frame is treated as the first of a new session. This is the
// only operation that shrinks history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasHash = false
	s.lastHash = 0
	s.scene = nil
	s.verses = nil
}
