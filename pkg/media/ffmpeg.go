package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// VideoWidth and VideoHeight fix the output frame size for assembled videos.
const (
	VideoWidth  = 1280
	VideoHeight = 720
	VideoFPS    = 24
)

// Option configures the FFmpeg wrapper.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithProbeBinary overrides the ffprobe binary name.
func WithProbeBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.probe = binary
		}
	}
}

// FFmpeg wraps the ffmpeg and ffprobe command-line tools.
type FFmpeg struct {
	binary string
	probe  string
}

// NewFFmpeg constructs a wrapper using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", probe: "ffprobe"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", args[len(args)-1], err, tail(string(out)))
	}
	return nil
}

// tail keeps the last few lines of ffmpeg output for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

// ToWav converts any audio input to mono 16-bit PCM at SampleRate.
func (f *FFmpeg) ToWav(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return errors.New("input and output paths required")
	}
	return f.run(ctx, "-y", "-i", inputPath,
		"-ar", strconv.Itoa(SampleRate), "-ac", "1", "-c:a", "pcm_s16le",
		outputPath)
}

// ToMP3 converts an audio input to 192k MP3.
func (f *FFmpeg) ToMP3(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return errors.New("input and output paths required")
	}
	return f.run(ctx, "-y", "-i", inputPath, "-c:a", "libmp3lame", "-b:a", "192k", outputPath)
}

// ApplyVocalEffects processes a vocal stem: pitch correction shimmer, vibrato,
// chorus, echo and compression, tuned per tempo so the delay lands on the
// half beat.
func (f *FFmpeg) ApplyVocalEffects(ctx context.Context, inputPath, outputPath string, tempoBPM int) error {
	if inputPath == "" || outputPath == "" {
		return errors.New("input and output paths required")
	}
	if tempoBPM <= 0 {
		tempoBPM = 120
	}
	delayMs := int(60000.0 / float64(tempoBPM) / 2)
	filter := strings.Join([]string{
		"asetrate=" + strconv.Itoa(SampleRate) + "*1.005,aresample=" + strconv.Itoa(SampleRate),
		"vibrato=f=5.5:d=0.3",
		"chorus=0.6:0.9:50|60:0.4|0.32:0.25|0.4:2|1.3",
		fmt.Sprintf("aecho=0.8:0.6:%d|%d:0.35|0.2", delayMs, delayMs*2),
		"acompressor=threshold=-18dB:ratio=3:attack=5:release=120:makeup=4",
	}, ",")
	return f.run(ctx, "-y", "-i", inputPath, "-af", filter,
		"-ar", strconv.Itoa(SampleRate), "-ac", "1", outputPath)
}

// MixMaster blends a vocal stem over a backing track. The music ducks under
// the vocal via sidechain compression and the sum is lightly mastered.
func (f *FFmpeg) MixMaster(ctx context.Context, vocalPath, musicPath, outputPath string) error {
	if vocalPath == "" || musicPath == "" || outputPath == "" {
		return errors.New("vocal, music and output paths required")
	}
	filter := "[1:a]volume=0.8[music];" +
		"[music][0:a]sidechaincompress=threshold=0.08:ratio=4:attack=8:release=300[ducked];" +
		"[0:a][ducked]amix=inputs=2:duration=longest:weights=1 0.7," +
		"acompressor=threshold=-14dB:ratio=2.5:attack=10:release=200:makeup=3," +
		"alimiter=limit=0.95"
	return f.run(ctx, "-y",
		"-i", vocalPath, "-i", musicPath,
		"-filter_complex", filter,
		"-c:a", "libmp3lame", "-b:a", "192k",
		outputPath)
}

// AssembleVideo builds a 1280x720 24fps slideshow from screenshot frames with
// the song as its soundtrack and the verse lines burned in along the bottom.
// frames are shown in order, evenly spread over the audio duration.
func (f *FFmpeg) AssembleVideo(ctx context.Context, framePaths []string, audioPath, outputPath string, lines []string) error {
	if len(framePaths) == 0 {
		return errors.New("at least one frame required")
	}
	if audioPath == "" || outputPath == "" {
		return errors.New("audio and output paths required")
	}

	audioDur, err := f.Duration(ctx, audioPath)
	if err != nil {
		return err
	}
	if audioDur <= 0 {
		return errors.New("audio has no duration")
	}
	perFrame := audioDur / float64(len(framePaths))

	args := []string{"-y"}
	for _, p := range framePaths {
		args = append(args, "-loop", "1", "-t", fmt.Sprintf("%.3f", perFrame), "-i", p)
	}
	args = append(args, "-i", audioPath)

	var b strings.Builder
	for i := range framePaths {
		fmt.Fprintf(&b, "[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d[v%d];",
			i, VideoWidth, VideoHeight, VideoWidth, VideoHeight, VideoFPS, i)
	}
	for i := range framePaths {
		fmt.Fprintf(&b, "[v%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[slides]", len(framePaths))

	if len(lines) > 0 {
		b.WriteString(";[slides]")
		perLine := audioDur / float64(len(lines))
		for i, line := range lines {
			start := float64(i) * perLine
			end := start + perLine
			fmt.Fprintf(&b,
				"drawtext=text='%s':fontsize=42:fontcolor=white:borderw=3:bordercolor=black:x=(w-text_w)/2:y=h-120:enable='between(t\\,%.2f\\,%.2f)'",
				escapeDrawtext(line), start, end)
			if i < len(lines)-1 {
				b.WriteString(",")
			}
		}
		b.WriteString("[vout]")
	}

	mapLabel := "[slides]"
	if len(lines) > 0 {
		mapLabel = "[vout]"
	}
	args = append(args,
		"-filter_complex", b.String(),
		"-map", mapLabel, "-map", strconv.Itoa(len(framePaths))+":a",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "192k",
		"-shortest",
		outputPath)
	return f.run(ctx, args...)
}

func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return r.Replace(s)
}

// Duration probes the media duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, errors.New("path required")
	}
	cmd := commandContext(ctx, f.probe, //nolint:gosec
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}
