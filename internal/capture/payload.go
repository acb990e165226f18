package capture

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Mode is the kind of input a capture session collects.
type Mode string

const (
	ModeText  Mode = "text"
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeAudio, ModeVideo:
		return m, nil
	}
	return "", fmt.Errorf("unknown capture mode %q (want text, audio or video)", s)
}

// IsMedia reports whether the mode takes files or recordings.
func (m Mode) IsMedia() bool {
	return m == ModeAudio || m == ModeVideo
}

// containers that browsers and ffmpeg label video/* even when they hold only audio.
var audioCapableContainers = map[string]bool{
	"video/webm": true,
	"video/ogg":  true,
}

// Accepts reports whether a declared MIME type belongs to the mode's category.
func (m Mode) Accepts(mimeType string) bool {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch m {
	case ModeAudio:
		return strings.HasPrefix(base, "audio/") || audioCapableContainers[base]
	case ModeVideo:
		return strings.HasPrefix(base, "video/")
	}
	return false
}

// recordingMIMEType is the codec tag of a blob produced by a recorder in this mode.
func (m Mode) recordingMIMEType() string {
	if m == ModeVideo {
		return "video/webm"
	}
	return "audio/webm"
}

// Payload is one transport-ready submission: a TextPayload or a MediaPayload.
type Payload interface {
	isPayload()
}

// TextPayload carries typed text.
type TextPayload struct {
	Text string
}

// MediaPayload carries a binary submission and its descriptor.
type MediaPayload struct {
	Kind       Mode
	Data       []byte
	MimeType   string
	SourceName string
}

func (TextPayload) isPayload()  {}
func (MediaPayload) isPayload() {}

// File is a user-selected media file.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// LoadFile reads a file from disk. The MIME type comes from the extension and
// falls back to sniffing the content.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name:     filepath.Base(path),
		MimeType: DetectMIMEType(filepath.Base(path), data),
		Data:     data,
	}, nil
}

// mediaExtensions covers the formats the system mime tables often lack.
var mediaExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".weba": "audio/webm",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// DetectMIMEType picks a MIME type for a named blob.
func DetectMIMEType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if known, ok := mediaExtensions[ext]; ok {
		return known
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return mimetype.Detect(data).String()
}

// Blob is the concatenated output of a recording.
type Blob struct {
	Data     []byte
	MimeType string
}
