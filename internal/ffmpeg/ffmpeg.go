package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoAudioTrack is returned when a video carries no audio stream to analyze.
var ErrNoAudioTrack = errors.New("media has no audio stream")

// ProbeOutput is the subset of ffprobe's JSON output the gateway reads.
type ProbeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeStream describes one stream of a probed container.
type ProbeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
}

// Duration parses the container duration.
func (p *ProbeOutput) Duration() (time.Duration, error) {
	if p.Format.Duration == "" {
		return 0, errors.New("ffprobe reported no duration")
	}
	seconds, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", p.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// HasAudio reports whether any stream is audio.
func (p *ProbeOutput) HasAudio() bool {
	for _, s := range p.Streams {
		if s.CodecType == "audio" {
			return true
		}
	}
	return false
}

// HasVideo reports whether any stream is video.
func (p *ProbeOutput) HasVideo() bool {
	for _, s := range p.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// Tools runs the ffmpeg and ffprobe binaries.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Logger  *logrus.Logger
}

// NewTools resolves empty binary names to the ones on PATH.
func NewTools(ffmpegBin, ffprobeBin string, logger *logrus.Logger) *Tools {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tools{FFmpeg: ffmpegBin, FFprobe: ffprobeBin, Logger: logger}
}

// Available reports whether both binaries can be found.
func (t *Tools) Available() bool {
	if _, err := exec.LookPath(t.FFmpeg); err != nil {
		return false
	}
	_, err := exec.LookPath(t.FFprobe)
	return err == nil
}

// Probe reads format and stream metadata for a file.
func (t *Tools) Probe(ctx context.Context, filePath string) (*ProbeOutput, error) {
	cmd := exec.CommandContext(ctx, t.FFprobe, probeArgs(filePath)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}

	var out ProbeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("error unmarshalling ffprobe output: %v\nOutput: %s", err, stdout.String())
	}
	return &out, nil
}

// ExtractAudio demuxes the audio track of an in-memory video into MP3.
func (t *Tools) ExtractAudio(ctx context.Context, data []byte, mimeType string) ([]byte, string, error) {
	dir, err := os.MkdirTemp("", "indisense-extract-*")
	if err != nil {
		return nil, "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input"+extensionFor(mimeType))
	output := filepath.Join(dir, "audio.mp3")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, "", fmt.Errorf("write input: %w", err)
	}

	probe, err := t.Probe(ctx, input)
	if err != nil {
		return nil, "", err
	}
	if !probe.HasAudio() {
		return nil, "", ErrNoAudioTrack
	}

	cmd := exec.CommandContext(ctx, t.FFmpeg, extractAudioArgs(input, output)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("ffmpeg audio extraction failed: %v\nStderr: %s", err, stderr.String())
	}

	audio, err := os.ReadFile(output)
	if err != nil {
		return nil, "", fmt.Errorf("read extracted audio: %w", err)
	}
	t.Logger.WithFields(logrus.Fields{
		"input_bytes":  len(data),
		"output_bytes": len(audio),
		"input_mime":   mimeType,
	}).Info("Extracted audio track")
	return audio, "audio/mpeg", nil
}

func probeArgs(filePath string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}
}

func extractAudioArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-codec:a", "libmp3lame",
		"-q:a", "4",
		output,
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/mp4", "audio/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/x-matroska":
		return ".mkv"
	case "video/ogg", "audio/ogg":
		return ".ogg"
	case "video/x-msvideo":
		return ".avi"
	}
	return ".webm"
}
