package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/models"
)

// State is the position of a Session in the capture lifecycle.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateAwaitingDevice
	StateRecording
	StateReady
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateAwaitingDevice:
		return "awaiting_device"
	case StateRecording:
		return "recording"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrWrongMode       = errors.New("operation not available in this capture mode")
	ErrUnacceptedType  = errors.New("file type not accepted in this capture mode")
	ErrRecording       = errors.New("a recording is in progress")
	ErrNotRecording    = errors.New("no recording in progress")
	ErrNothingToSubmit = errors.New("nothing to submit")
	ErrBusy            = errors.New("an analysis request is already in flight")
	ErrSessionClosed   = errors.New("capture session closed")
)

// recordingSourceName is the synthesized file name of a live recording.
const recordingSourceName = "recording.webm"

// Transport delivers a payload to the analysis service.
type Transport interface {
	Analyze(ctx context.Context, p Payload) (*models.AnalysisResult, error)
}

// AudioExtractor pulls the audio track out of a video submission.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, data []byte, mimeType string) ([]byte, string, error)
}

// Option customizes a Session.
type Option func(*Session)

// WithDevice sets the capture device used for live recordings.
func WithDevice(d Device) Option {
	return func(s *Session) { s.device = d }
}

// WithAudioExtractor makes video submissions carry only their audio track.
func WithAudioExtractor(x AudioExtractor) Option {
	return func(s *Session) { s.extractor = x }
}

// WithLogger overrides the session logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session turns one input (typed text, a selected file or a live recording)
// into exactly one payload per submission. It holds at most one candidate.
type Session struct {
	mode      Mode
	transport Transport
	device    Device
	extractor AudioExtractor
	logger    *logrus.Logger

	mu        sync.Mutex
	state     State
	text      string
	file      *File
	recorded  *Blob
	recording *RecordingSession
	inFlight  bool
	closed    bool
	result    *models.AnalysisResult
}

// NewSession creates an idle session for the mode.
func NewSession(mode Mode, transport Transport, opts ...Option) *Session {
	s := &Session{
		mode:      mode,
		transport: transport,
		logger:    logrus.StandardLogger(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the capture mode.
func (s *Session) Mode() Mode { return s.mode }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last successful analysis, or nil.
func (s *Session) Result() *models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SetText stores typed text. Blank text leaves the session idle.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if s.mode != ModeText {
		return ErrWrongMode
	}
	s.text = text
	if strings.TrimSpace(text) == "" {
		s.state = StateIdle
	} else {
		s.state = StateEditing
	}
	return nil
}

// SelectFile makes f the candidate, discarding any recorded blob.
func (s *Session) SelectFile(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if !s.mode.IsMedia() {
		return ErrWrongMode
	}
	if s.state == StateRecording || s.state == StateAwaitingDevice {
		return ErrRecording
	}
	if f.MimeType == "" {
		f.MimeType = DetectMIMEType(f.Name, f.Data)
	}
	if !s.mode.Accepts(f.MimeType) {
		return fmt.Errorf("%w: %s", ErrUnacceptedType, f.MimeType)
	}
	s.file = &f
	s.recorded = nil
	s.state = StateReady
	return nil
}

// StartRecording acquires the device streams and begins accumulating chunks.
// On failure the session keeps its previous candidate.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.mode.IsMedia() {
		s.mu.Unlock()
		return ErrWrongMode
	}
	if s.state == StateRecording || s.state == StateAwaitingDevice {
		s.mu.Unlock()
		return ErrRecording
	}
	previous := s.state
	s.state = StateAwaitingDevice
	s.mu.Unlock()

	rec, err := startRecording(ctx, s.device, s.mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = previous
		s.logger.WithError(err).WithField("mode", s.mode).Warn("Could not access capture device")
		return err
	}
	if s.closed || s.state != StateAwaitingDevice {
		// Closed or reset while waiting for the device.
		rec.Stop()
		return ErrSessionClosed
	}
	s.recording = rec
	s.state = StateRecording
	s.logger.WithField("mode", s.mode).Info("Recording started")
	return nil
}

// StopRecording releases the device and makes the recording the candidate,
// discarding any selected file.
func (s *Session) StopRecording() (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording || s.recording == nil {
		return Blob{}, ErrNotRecording
	}
	blob := s.recording.Stop()
	s.recording = nil
	s.recorded = &blob
	s.file = nil
	s.state = StateReady
	s.logger.WithFields(logrus.Fields{
		"mode":       s.mode,
		"size_bytes": len(blob.Data),
		"mime_type":  blob.MimeType,
	}).Info("Recording stopped")
	return blob, nil
}

// Submit sends the candidate to the transport exactly once and returns the
// session to idle. A failed submission keeps the candidate so the caller can
// resubmit.
func (s *Session) Submit(ctx context.Context) (*models.AnalysisResult, error) {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.state == StateRecording || s.state == StateAwaitingDevice {
		s.mu.Unlock()
		return nil, ErrRecording
	}
	payload, err := s.payloadLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	previous := s.state
	s.inFlight = true
	s.state = StateSubmitted
	s.result = nil
	s.mu.Unlock()

	result, err := s.send(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.state = previous
		return nil, err
	}
	s.text = ""
	s.file = nil
	s.recorded = nil
	s.state = StateIdle
	s.result = result
	return result, nil
}

func (s *Session) send(ctx context.Context, payload Payload) (*models.AnalysisResult, error) {
	if media, ok := payload.(MediaPayload); ok && media.Kind == ModeVideo && s.extractor != nil {
		audio, mimeType, err := s.extractor.ExtractAudio(ctx, media.Data, media.MimeType)
		if err != nil {
			return nil, fmt.Errorf("extract audio track: %w", err)
		}
		media.Data = audio
		media.MimeType = mimeType
		payload = media
	}
	if s.transport == nil {
		return nil, errors.New("capture: no transport configured")
	}
	return s.transport.Analyze(ctx, payload)
}

func (s *Session) payloadLocked() (Payload, error) {
	switch {
	case s.mode == ModeText && s.state == StateEditing:
		return TextPayload{Text: strings.TrimSpace(s.text)}, nil
	case s.state == StateReady && s.file != nil:
		return MediaPayload{Kind: s.mode, Data: s.file.Data, MimeType: s.file.MimeType, SourceName: s.file.Name}, nil
	case s.state == StateReady && s.recorded != nil:
		return MediaPayload{Kind: s.mode, Data: s.recorded.Data, MimeType: s.recorded.MimeType, SourceName: recordingSourceName}, nil
	}
	return nil, ErrNothingToSubmit
}

// Reset discards the last result and any candidate, stopping a recording in
// progress, and returns the session to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.text = ""
	s.file = nil
	s.recorded = nil
	s.result = nil
	if !s.inFlight {
		s.state = StateIdle
	}
}

// Close releases every device stream. The session cannot be used afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.closed = true
	s.state = StateIdle
	return nil
}

func (s *Session) releaseLocked() {
	if s.recording != nil {
		s.recording.Stop()
		s.recording = nil
	}
	if s.state == StateRecording || s.state == StateAwaitingDevice {
		s.state = StateIdle
	}
}

func (s *Session) usable() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
