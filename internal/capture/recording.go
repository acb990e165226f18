package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDeviceUnavailable is returned when the capture device is denied or missing.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Constraints selects the device streams a recording needs.
type Constraints struct {
	Audio bool
	Video bool
}

func constraintsFor(m Mode) Constraints {
	return Constraints{Audio: true, Video: m == ModeVideo}
}

// Track is one acquired device stream, such as a microphone or a camera.
type Track interface {
	Kind() string
	Live() bool
	Stop()
}

// Stream is a live capture. Chunks delivers encoded media in arrival order and
// is closed once every track has stopped.
type Stream interface {
	Tracks() []Track
	Chunks() <-chan []byte
}

// Device grants access to capture streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// drainGrace bounds how long Stop waits for a stream to deliver its final
// chunks and close after its tracks are stopped.
var drainGrace = 5 * time.Second

// RecordingSession owns one live stream and the chunks read from it.
type RecordingSession struct {
	stream   Stream
	mimeType string

	mu     sync.Mutex
	chunks [][]byte

	abandon  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	blob     Blob
}

// startRecording acquires the streams for the mode and begins accumulating chunks.
func startRecording(ctx context.Context, dev Device, m Mode) (*RecordingSession, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: no capture device configured", ErrDeviceUnavailable)
	}
	stream, err := dev.Open(ctx, constraintsFor(m))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: device returned no stream", ErrDeviceUnavailable)
	}
	r := &RecordingSession{
		stream:   stream,
		mimeType: m.recordingMIMEType(),
		abandon:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.accumulate()
	return r, nil
}

// accumulate appends every non-empty chunk until the stream closes. Chunks
// flushed by the encoder after its tracks stop are part of the recording.
func (r *RecordingSession) accumulate() {
	defer close(r.done)
	chunks := r.stream.Chunks()
	for {
		select {
		case <-r.abandon:
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if len(chunk) == 0 {
				continue
			}
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
		}
	}
}

// Stop releases every track, collects the chunks still in flight and returns
// the recording. Later calls return the same blob.
func (r *RecordingSession) Stop() Blob {
	r.stopOnce.Do(func() {
		r.release()

		timer := time.NewTimer(drainGrace)
		select {
		case <-r.done:
		case <-timer.C:
			close(r.abandon)
			<-r.done
		}
		timer.Stop()

		r.mu.Lock()
		r.blob = Blob{Data: bytes.Join(r.chunks, nil), MimeType: r.mimeType}
		r.chunks = nil
		r.mu.Unlock()
	})
	return r.blob
}

func (r *RecordingSession) release() {
	for _, track := range r.stream.Tracks() {
		track.Stop()
	}
}
