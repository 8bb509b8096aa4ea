package media

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestTempoForGenre(t *testing.T) {
	cases := []struct {
		genre string
		want  int
	}{
		{"lo-fi", 85},
		{"Lo-Fi Chill", 85},
		{"jazz", 100},
		{"EDM", 128},
		{"hip-hop", 90},
		{"ambient", 70},
		{"polka", 120},
		{"", 120},
	}
	for _, tc := range cases {
		if got := TempoForGenre(tc.genre); got != tc.want {
			t.Errorf("TempoForGenre(%q) = %d, want %d", tc.genre, got, tc.want)
		}
	}
}

func TestMoodScalePicksPentatonic(t *testing.T) {
	base, freqs := moodScale("dark and mysterious")
	if base != 110 {
		t.Fatalf("expected dark base 110Hz, got %f", base)
	}
	if len(freqs) != 5 {
		t.Fatalf("expected pentatonic scale, got %d notes", len(freqs))
	}

	base, _ = moodScale("something unrecognized")
	if base != 261.63 {
		t.Fatalf("expected default base C4, got %f", base)
	}
}

func TestGenerateBackingTrackShape(t *testing.T) {
	const dur = 5.0
	track := GenerateBackingTrack(dur, 120, "energetic")

	if got, want := len(track), int(dur*SampleRate); got != want {
		t.Fatalf("expected %d samples, got %d", want, got)
	}

	var peak float64
	for _, s := range track {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		t.Fatal("expected non-silent track")
	}
	if peak > 0.901 {
		t.Fatalf("expected peak limited to 0.9, got %f", peak)
	}

	// Fade-in: the very first samples must be quieter than the middle.
	if math.Abs(track[100]) > 0.1 {
		t.Fatalf("expected faded start, got %f", track[100])
	}
}

func TestGenerateBackingTrackZeroDuration(t *testing.T) {
	if track := GenerateBackingTrack(0, 120, "calm"); track != nil {
		t.Fatalf("expected nil track for zero duration, got %d samples", len(track))
	}
}

func TestNoteEnvelopeStartsAndEndsQuiet(t *testing.T) {
	n := note(440, 1.0, SampleRate, instrumentSynth)
	if n[0] != 0 {
		t.Fatalf("expected silent first sample, got %f", n[0])
	}
	tail := n[len(n)-10:]
	for _, s := range tail {
		if math.Abs(s) > 0.2 {
			t.Fatalf("expected released tail, got %f", s)
		}
	}
}

func TestWriteWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	samples := make([]float64, SampleRate) // one second of silence
	samples[0] = 2.0                       // must clamp, not wrap

	if err := WriteWAV(path, samples, SampleRate); err != nil {
		t.Fatalf("WriteWAV returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("expected 44-byte header plus 16-bit samples, got %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("expected RIFF/WAVE markers, got %q %q", data[0:4], data[8:12])
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Fatalf("expected sample rate %d, got %d", SampleRate, rate)
	}
	if first := int16(binary.LittleEndian.Uint16(data[44:46])); first != math.MaxInt16 {
		t.Fatalf("expected clamped full-scale first sample, got %d", first)
	}
}
