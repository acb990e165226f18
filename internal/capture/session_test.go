package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/models"
)

type fakeTrack struct {
	kind   string
	stream *fakeStream
	mu     sync.Mutex
	live   bool
}

func (t *fakeTrack) Kind() string { return t.kind }

func (t *fakeTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	wasLive := t.live
	t.live = false
	t.mu.Unlock()
	if wasLive && t.stream != nil {
		t.stream.trackStopped()
	}
}

// fakeStream closes its chunk channel once every track has stopped, after
// flushing tail the way an encoder emits its last buffered data.
type fakeStream struct {
	tracks []Track
	chunks chan []byte
	tail   []byte

	mu   sync.Mutex
	live int
}

func (s *fakeStream) Tracks() []Track       { return s.tracks }
func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) trackStopped() {
	s.mu.Lock()
	s.live--
	last := s.live == 0
	s.mu.Unlock()
	if !last {
		return
	}
	if s.tail != nil {
		s.chunks <- s.tail
	}
	close(s.chunks)
}

// fakeDevice hands out streams whose chunks are pushed by the test.
type fakeDevice struct {
	err         error
	buffer      int
	tail        []byte
	constraints []Constraints
	streams     []*fakeStream
	tracks      []*fakeTrack
}

func (d *fakeDevice) Open(_ context.Context, c Constraints) (Stream, error) {
	d.constraints = append(d.constraints, c)
	if d.err != nil {
		return nil, d.err
	}
	stream := &fakeStream{chunks: make(chan []byte, d.buffer), tail: d.tail}
	kinds := []string{"audio"}
	if c.Video {
		kinds = append(kinds, "video")
	}
	for _, kind := range kinds {
		track := &fakeTrack{kind: kind, stream: stream, live: true}
		stream.tracks = append(stream.tracks, track)
		d.tracks = append(d.tracks, track)
	}
	stream.live = len(kinds)
	d.streams = append(d.streams, stream)
	return stream, nil
}

// push delivers a chunk the way a device would: blocking until it is read.
func (d *fakeDevice) push(t *testing.T, chunk []byte) {
	t.Helper()
	stream := d.streams[len(d.streams)-1]
	select {
	case stream.chunks <- chunk:
	case <-time.After(time.Second):
		t.Fatal("recorder did not read the chunk")
	}
}

func (d *fakeDevice) anyLive() bool {
	for _, track := range d.tracks {
		if track.Live() {
			return true
		}
	}
	return false
}

type fakeTransport struct {
	mu       sync.Mutex
	payloads []Payload
	result   *models.AnalysisResult
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeTransport) Analyze(ctx context.Context, p Payload) (*models.AnalysisResult, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func happyResult() *models.AnalysisResult {
	return &models.AnalysisResult{Emotions: models.EmotionScores{Happy: 80, Neutral: 20}, KeyThemes: []string{"joy"}}
}

func TestRecordingWithoutChunksYieldsEmptyBlob(t *testing.T) {
	for _, mode := range []Mode{ModeAudio, ModeVideo} {
		dev := &fakeDevice{}
		s := NewSession(mode, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
		if err := s.StartRecording(context.Background()); err != nil {
			t.Fatalf("StartRecording: %v", err)
		}
		if s.State() != StateRecording {
			t.Fatalf("state = %s, want recording", s.State())
		}
		blob, err := s.StopRecording()
		if err != nil {
			t.Fatalf("StopRecording: %v", err)
		}
		if blob.Data == nil || len(blob.Data) != 0 {
			t.Fatalf("expected empty non-nil blob, got %#v", blob.Data)
		}
		if blob.MimeType != mode.recordingMIMEType() {
			t.Fatalf("mime = %s, want %s", blob.MimeType, mode.recordingMIMEType())
		}
		if dev.anyLive() {
			t.Fatal("device tracks left live after stop")
		}
		if s.State() != StateReady {
			t.Fatalf("state = %s, want ready", s.State())
		}
		wantVideo := mode == ModeVideo
		if c := dev.constraints[0]; !c.Audio || c.Video != wantVideo {
			t.Fatalf("unexpected constraints %+v for %s", c, mode)
		}
	}
}

func TestRecordingKeepsChunkOrder(t *testing.T) {
	dev := &fakeDevice{}
	transport := &fakeTransport{result: happyResult()}
	s := NewSession(ModeAudio, transport, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	for _, chunk := range []string{"one-", "", "two-", "three"} {
		dev.push(t, []byte(chunk))
	}
	blob, err := s.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if !bytes.Equal(blob.Data, []byte("one-two-three")) {
		t.Fatalf("blob = %q", blob.Data)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	media, ok := transport.payloads[0].(MediaPayload)
	if !ok {
		t.Fatalf("expected MediaPayload, got %T", transport.payloads[0])
	}
	if media.SourceName != "recording.webm" || media.MimeType != "audio/webm" || media.Kind != ModeAudio {
		t.Fatalf("unexpected payload descriptor %+v", media)
	}
}

func TestStopRecordingCollectsBufferedChunks(t *testing.T) {
	dev := &fakeDevice{buffer: 3}
	s := NewSession(ModeAudio, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	stream := dev.streams[0]
	for _, chunk := range []string{"a", "b", "c"} {
		stream.chunks <- []byte(chunk)
	}
	blob, err := s.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if string(blob.Data) != "abc" {
		t.Fatalf("blob = %q, want every queued chunk", blob.Data)
	}
}

func TestStopRecordingKeepsFlushedTail(t *testing.T) {
	for _, mode := range []Mode{ModeAudio, ModeVideo} {
		dev := &fakeDevice{tail: []byte("tail")}
		s := NewSession(mode, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
		if err := s.StartRecording(context.Background()); err != nil {
			t.Fatalf("StartRecording: %v", err)
		}
		dev.push(t, []byte("head-"))
		blob, err := s.StopRecording()
		if err != nil {
			t.Fatalf("StopRecording: %v", err)
		}
		if string(blob.Data) != "head-tail" {
			t.Fatalf("%s: blob = %q, want head-tail", mode, blob.Data)
		}
		if dev.anyLive() {
			t.Fatal("device tracks left live after stop")
		}
	}
}

func TestStopRecordingAbandonsStreamThatNeverCloses(t *testing.T) {
	defer func(old time.Duration) { drainGrace = old }(drainGrace)
	drainGrace = 20 * time.Millisecond

	dev := &fakeDevice{}
	s := NewSession(ModeAudio, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	dev.push(t, []byte("kept"))
	// Detach the tracks from the stream so stopping them never closes it.
	for _, track := range dev.tracks {
		track.stream = nil
	}
	blob, err := s.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if string(blob.Data) != "kept" {
		t.Fatalf("blob = %q", blob.Data)
	}
}

func TestStartRecordingDeviceUnavailable(t *testing.T) {
	dev := &fakeDevice{err: errors.New("permission denied")}
	s := NewSession(ModeVideo, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
	err := s.StartRecording(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}

	noDevice := NewSession(ModeAudio, &fakeTransport{}, WithLogger(quietLogger()))
	if err := noDevice.StartRecording(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable without a device, got %v", err)
	}
}

func TestStopRecordingRequiresRecording(t *testing.T) {
	s := NewSession(ModeAudio, &fakeTransport{}, WithDevice(&fakeDevice{}), WithLogger(quietLogger()))
	if _, err := s.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestSubmitRejectedWhileRecording(t *testing.T) {
	dev := &fakeDevice{}
	transport := &fakeTransport{result: happyResult()}
	s := NewSession(ModeAudio, transport, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.SelectFile(File{Name: "a.mp3", MimeType: "audio/mpeg", Data: []byte("x")}); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrRecording) {
		t.Fatalf("expected ErrRecording, got %v", err)
	}
	if err := s.SelectFile(File{Name: "b.mp3", MimeType: "audio/mpeg"}); !errors.Is(err, ErrRecording) {
		t.Fatalf("expected ErrRecording from SelectFile, got %v", err)
	}
	if transport.count() != 0 {
		t.Fatal("nothing may be sent while recording")
	}
	if _, err := s.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := transport.payloads[0].(MediaPayload).SourceName; got != "recording.webm" {
		t.Fatalf("the recording must replace the selected file, got %s", got)
	}
}

func TestSelectFileDiscardsRecording(t *testing.T) {
	dev := &fakeDevice{}
	transport := &fakeTransport{result: happyResult()}
	s := NewSession(ModeVideo, transport, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := s.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if err := s.SelectFile(File{Name: "clip.mp4", Data: []byte("mp4")}); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	media := transport.payloads[0].(MediaPayload)
	if media.SourceName != "clip.mp4" || media.MimeType != "video/mp4" {
		t.Fatalf("unexpected payload %+v", media)
	}
}

func TestSelectFileChecksMode(t *testing.T) {
	audio := NewSession(ModeAudio, &fakeTransport{}, WithLogger(quietLogger()))
	if err := audio.SelectFile(File{Name: "movie.mp4", MimeType: "video/mp4"}); !errors.Is(err, ErrUnacceptedType) {
		t.Fatalf("expected ErrUnacceptedType, got %v", err)
	}
	if err := audio.SelectFile(File{Name: "voice.webm", MimeType: "video/webm"}); err != nil {
		t.Fatalf("webm container must be accepted for audio: %v", err)
	}
	video := NewSession(ModeVideo, &fakeTransport{}, WithLogger(quietLogger()))
	if err := video.SelectFile(File{Name: "song.mp3", MimeType: "audio/mpeg"}); !errors.Is(err, ErrUnacceptedType) {
		t.Fatalf("expected ErrUnacceptedType, got %v", err)
	}
	text := NewSession(ModeText, &fakeTransport{}, WithLogger(quietLogger()))
	if err := text.SelectFile(File{Name: "a.mp3", MimeType: "audio/mpeg"}); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode, got %v", err)
	}
	if err := text.StartRecording(context.Background()); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode, got %v", err)
	}
}

func TestTextSubmitAndReset(t *testing.T) {
	transport := &fakeTransport{result: happyResult()}
	s := NewSession(ModeText, transport, WithLogger(quietLogger()))

	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("expected ErrNothingToSubmit, got %v", err)
	}
	if err := s.SetText("   "); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("blank text must leave the session idle")
	}
	if err := s.SetText("  I love this! 😊🎉 "); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if s.State() != StateEditing {
		t.Fatalf("state = %s, want editing", s.State())
	}
	result, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Emotions.Overall() != models.SentimentPositive {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := transport.payloads[0].(TextPayload).Text; got != "I love this! 😊🎉" {
		t.Fatalf("text payload = %q", got)
	}
	if s.State() != StateIdle || s.Result() == nil {
		t.Fatalf("after submit: state=%s result=%v", s.State(), s.Result())
	}

	// The candidate was consumed; a second submit has nothing to send.
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("expected ErrNothingToSubmit, got %v", err)
	}

	s.Reset()
	s.Reset()
	if s.Result() != nil || s.State() != StateIdle {
		t.Fatalf("reset left state=%s result=%v", s.State(), s.Result())
	}
	if transport.count() != 1 {
		t.Fatalf("expected exactly one emitted payload, got %d", transport.count())
	}
}

func TestFailedSubmitKeepsCandidate(t *testing.T) {
	transport := &fakeTransport{err: errors.New("rate limited")}
	s := NewSession(ModeText, transport, WithLogger(quietLogger()))
	if err := s.SetText("hello world"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected submit to fail")
	}
	if s.State() != StateEditing {
		t.Fatalf("state = %s, want editing", s.State())
	}
	transport.err = nil
	transport.result = happyResult()
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if transport.count() != 2 {
		t.Fatalf("expected one payload per submit, got %d", transport.count())
	}
}

func TestSubmitRejectsConcurrentRequest(t *testing.T) {
	transport := &fakeTransport{
		result:  happyResult(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := NewSession(ModeText, transport, WithLogger(quietLogger()))
	if err := s.SetText("first"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		errc <- err
	}()
	<-transport.started
	if s.State() != StateSubmitted {
		t.Fatalf("state = %s, want submitted", s.State())
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(transport.release)
	if err := <-errc; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

type fakeExtractor struct{ calls int }

func (x *fakeExtractor) ExtractAudio(_ context.Context, data []byte, mimeType string) ([]byte, string, error) {
	x.calls++
	return append([]byte("audio-of-"), data...), "audio/mpeg", nil
}

func TestVideoSubmitCarriesAudioTrack(t *testing.T) {
	extractor := &fakeExtractor{}
	transport := &fakeTransport{result: happyResult()}
	s := NewSession(ModeVideo, transport, WithAudioExtractor(extractor), WithLogger(quietLogger()))
	if err := s.SelectFile(File{Name: "talk.mp4", MimeType: "video/mp4", Data: []byte("frames")}); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	media := transport.payloads[0].(MediaPayload)
	if extractor.calls != 1 || string(media.Data) != "audio-of-frames" || media.MimeType != "audio/mpeg" {
		t.Fatalf("unexpected payload %+v", media)
	}
	if media.Kind != ModeVideo || media.SourceName != "talk.mp4" {
		t.Fatalf("video descriptor lost: %+v", media)
	}
}

func TestCloseReleasesDuringRecording(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(ModeVideo, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !dev.anyLive() {
		t.Fatal("expected live tracks while recording")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if dev.anyLive() {
		t.Fatal("Close must stop every track")
	}
	if err := s.StartRecording(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestResetStopsRecording(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(ModeAudio, &fakeTransport{}, WithDevice(dev), WithLogger(quietLogger()))
	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	s.Reset()
	if dev.anyLive() {
		t.Fatal("Reset must stop every track")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("expected ErrNothingToSubmit after reset, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Video "); err != nil || m != ModeVideo {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("image"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestDetectMIMEType(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"voice.MP3", nil, "audio/mpeg"},
		{"clip.mp4", []byte("x"), "video/mp4"},
		{"recording.webm", nil, "video/webm"},
		{"noext", wav, "audio/wav"},
	}
	for _, tc := range cases {
		if got := DetectMIMEType(tc.name, tc.data); got != tc.want {
			t.Errorf("DetectMIMEType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestModeAccepts(t *testing.T) {
	cases := []struct {
		mode Mode
		mime string
		want bool
	}{
		{ModeAudio, "audio/mpeg", true},
		{ModeAudio, "audio/webm;codecs=opus", true},
		{ModeAudio, "video/webm", true},
		{ModeAudio, "video/mp4", false},
		{ModeVideo, "video/mp4", true},
		{ModeVideo, "audio/wav", false},
		{ModeText, "text/plain", false},
	}
	for _, tc := range cases {
		if got := tc.mode.Accepts(tc.mime); got != tc.want {
			t.Errorf("%s.Accepts(%q) = %v, want %v", tc.mode, tc.mime, got, tc.want)
		}
	}
}
