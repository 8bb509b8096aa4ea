package media

import (
	"math"
	"math/rand"
	"strings"
)

// moodScale returns a base frequency and pentatonic scale for a mood label.
func moodScale(mood string) (base float64, freqs []float64) {
	m := strings.ToLower(mood)

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(m, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("calm", "peaceful", "serene", "relaxed", "lo-fi"):
		return 220, []float64{220, 247, 277, 330, 370} // A3 major pentatonic
	case contains("energetic", "exciting", "upbeat", "edm", "pop"):
		return 440, []float64{440, 494, 523, 587, 659} // A4 major pentatonic
	case contains("dark", "mysterious", "ominous", "haunting"):
		return 110, []float64{110, 123, 131, 147, 165} // A2 minor pentatonic
	case contains("cosmic", "ethereal", "dreamy", "ambient", "jazz"):
		return 330, []float64{330, 370, 415, 440, 494} // E4 major pentatonic
	default:
		return 261.63, []float64{262, 294, 330, 349, 392} // C major pentatonic
	}
}

// TempoForGenre maps a genre label to a BPM.
func TempoForGenre(genre string) int {
	g := strings.ToLower(genre)
	tempos := []struct {
		key string
		bpm int
	}{
		{"lo-fi", 85}, {"jazz", 100}, {"classical", 90}, {"pop", 120},
		{"edm", 128}, {"rock", 130}, {"hip-hop", 90}, {"r&b", 95},
		{"ambient", 70}, {"funk", 110},
	}
	for _, t := range tempos {
		if strings.Contains(g, t.key) {
			return t.bpm
		}
	}
	return 120
}

type instrumentKind int

const (
	instrumentSynth instrumentKind = iota
	instrumentBass
	instrumentPad
)

// note synthesizes one note as additive harmonics under an ADSR envelope.
func note(freq, duration float64, sr int, kind instrumentKind) []float64 {
	n := int(float64(sr) * duration)
	out := make([]float64, n)

	var harmonics []struct{ mult, amp float64 }
	switch kind {
	case instrumentBass:
		harmonics = []struct{ mult, amp float64 }{{1, 1.0}, {2, 0.3}, {4, 0.1}}
	case instrumentPad:
		harmonics = []struct{ mult, amp float64 }{{1, 0.8}, {2, 0.4}, {3, 0.3}, {5, 0.2}, {7, 0.1}}
	default:
		harmonics = []struct{ mult, amp float64 }{{1, 1.0}, {2, 0.5}, {3, 0.25}, {4, 0.125}}
	}

	for i := range out {
		t := float64(i) / float64(sr)
		var v float64
		for _, h := range harmonics {
			v += h.amp * math.Sin(2*math.Pi*freq*h.mult*t)
		}
		out[i] = v
	}

	applyADSR(out, sr)
	return out
}

// applyADSR shapes a note: 20ms attack, 50ms decay to 0.7 sustain, 100ms
// release.
func applyADSR(samples []float64, sr int) {
	attack := int(float64(sr) * 0.02)
	decay := int(float64(sr) * 0.05)
	release := int(float64(sr) * 0.1)
	const sustain = 0.7

	n := len(samples)
	for i := range samples {
		var env float64
		switch {
		case i < attack && attack > 0:
			env = float64(i) / float64(attack)
		case i < attack+decay && decay > 0:
			env = 1 - (1-sustain)*float64(i-attack)/float64(decay)
		case i >= n-release && release > 0:
			env = sustain * float64(n-i) / float64(release)
		default:
			env = sustain
		}
		samples[i] *= env
	}
}

// GenerateBackingTrack synthesizes a procedural backing track (melody, chord
// pads, bass, drums) for the given duration. The output is mono float64 at
// SampleRate, peak-limited with a 1.5s fade on both ends.
func GenerateBackingTrack(durationSec float64, tempoBPM int, mood string) []float64 {
	sr := SampleRate
	n := int(float64(sr) * durationSec)
	if n <= 0 {
		return nil
	}
	music := make([]float64, n)
	beatDur := 60.0 / float64(tempoBPM)

	base, freqs := moodScale(mood)
	rng := rand.New(rand.NewSource(42)) // deterministic drum texture

	// Melody: one scale note every 2s.
	const noteDur = 2.0
	for i := 0; ; i++ {
		start := int(float64(i) * noteDur * float64(sr))
		if start >= n {
			break
		}
		mix(music, start, note(freqs[i%len(freqs)], noteDur, sr, instrumentSynth), 0.08)
	}

	// Chord pads: root + third, 4s per chord.
	const chordDur = 4.0
	for i := 0; ; i++ {
		start := int(float64(i) * chordDur * float64(sr))
		if start >= n {
			break
		}
		root := note(freqs[i%len(freqs)], chordDur, sr, instrumentPad)
		third := note(freqs[(i+2)%len(freqs)], chordDur, sr, instrumentPad)
		for j := range root {
			root[j] = (root[j] + third[j]) * 0.5
		}
		mix(music, start, root, 0.05)
	}

	// Bass: one note every two beats, an octave below base.
	bassDur := beatDur * 2
	for i := 0; ; i++ {
		start := int(float64(i) * bassDur * float64(sr))
		if start >= n {
			break
		}
		mix(music, start, note(base*0.5, bassDur, sr, instrumentBass), 0.12)
	}

	// Drums: kick each beat, snare on 2 and 4, hats on half beats.
	beat := 0
	for t := 0.0; t < durationSec; t += beatDur {
		start := int(t * float64(sr))
		mix(music, start, kickHit(sr, rng), 1.0)
		if beat%2 == 1 {
			mix(music, start, snareHit(sr, rng), 1.0)
		}
		for j := 0; j < 2; j++ {
			hs := int((t + float64(j)*beatDur/2) * float64(sr))
			mix(music, hs, hihatHit(sr, rng), 1.0)
		}
		beat++
	}

	fade := int(float64(sr) * 1.5)
	if n > 2*fade {
		for i := 0; i < fade; i++ {
			g := float64(i) / float64(fade)
			music[i] *= g
			music[n-1-i] *= g
		}
	}

	normalize(music, 0.9)
	return music
}

func mix(dst []float64, start int, src []float64, gain float64) {
	for i, s := range src {
		idx := start + i
		if idx < 0 || idx >= len(dst) {
			break
		}
		dst[idx] += s * gain
	}
}

func kickHit(sr int, rng *rand.Rand) []float64 {
	n := int(float64(sr) * 0.15)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sr)
		freq := 60 + 40*math.Exp(-20*t)
		out[i] = 0.15*math.Exp(-15*t)*math.Sin(2*math.Pi*freq*t) + 0.02*rng.NormFloat64()*math.Exp(-15*t)
	}
	return out
}

func snareHit(sr int, rng *rand.Rand) []float64 {
	n := int(float64(sr) * 0.12)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sr)
		out[i] = 0.1*math.Exp(-20*t)*math.Sin(2*math.Pi*200*t) + 0.08*math.Exp(-15*t)*rng.NormFloat64()
	}
	return out
}

func hihatHit(sr int, rng *rand.Rand) []float64 {
	n := int(float64(sr) * 0.05)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sr)
		out[i] = 0.03 * math.Exp(-40*t) * rng.NormFloat64()
	}
	return out
}

func normalize(samples []float64, target float64) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	g := target / peak
	for i := range samples {
		samples[i] *= g
	}
}
