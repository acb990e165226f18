package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/internal/capture"
)

const (
	defaultChunkSize = 32 * 1024
	shutdownGrace    = 3 * time.Second
)

// Input names the platform capture backend and its devices.
type Input struct {
	Format string // ffmpeg -f value: alsa, pulse, v4l2, avfoundation, dshow
	Audio  string
	Video  string
}

// DefaultInput returns the usual capture devices for the running OS.
func DefaultInput() Input {
	switch runtime.GOOS {
	case "darwin":
		return Input{Format: "avfoundation", Audio: "0", Video: "0"}
	case "windows":
		return Input{Format: "dshow", Audio: "Microphone", Video: "Integrated Camera"}
	}
	return Input{Format: "alsa", Audio: "default", Video: "/dev/video0"}
}

// Device records from local capture hardware through an ffmpeg child process
// that streams WebM to stdout.
type Device struct {
	Binary    string
	Input     Input
	ChunkSize int
	Logger    *logrus.Logger
}

var _ capture.Device = (*Device)(nil)

// Open starts ffmpeg and waits until it produces its first bytes, so missing
// or denied devices surface here rather than as an empty recording.
func (d *Device) Open(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	bin := d.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	args, err := recordArgs(d.Input, c)
	if err != nil {
		return nil, err
	}

	s, err := d.start(ctx, exec.Command(bin, args...), c)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"format": d.Input.Format, "video": c.Video}).Debug("Capture device opened")
	return s, nil
}

// start runs cmd as a capture process and waits for its first bytes.
func (d *Device) start(ctx context.Context, cmd *exec.Cmd, c capture.Constraints) (*processStream, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	s := &processStream{
		cmd:    cmd,
		stdin:  stdin,
		chunks: make(chan []byte),
		closed: make(chan struct{}),
		exited: make(chan error, 1),
		logger: d.logger(),
	}
	s.tracks = append(s.tracks, &processTrack{kind: "audio", stream: s})
	if c.Video {
		s.tracks = append(s.tracks, &processTrack{kind: "video", stream: s})
	}
	for _, t := range s.tracks {
		t.(*processTrack).live.Store(true)
	}
	s.remaining.Store(int32(len(s.tracks)))

	ready := make(chan error, 1)
	size := d.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	go func() {
		pump(stdout, s.chunks, s.closed, size, ready)
		s.exited <- cmd.Wait()
	}()

	select {
	case err := <-ready:
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("ffmpeg produced no media: %v\nStderr: %s", err, stderr.String())
		}
	case <-ctx.Done():
		s.abort()
		return nil, ctx.Err()
	}
	return s, nil
}

func (d *Device) logger() *logrus.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logrus.StandardLogger()
}

// recordArgs builds the ffmpeg command line for a live WebM capture.
func recordArgs(in Input, c capture.Constraints) ([]string, error) {
	if in.Format == "" {
		return nil, errors.New("no capture input format configured")
	}
	if !c.Audio {
		return nil, errors.New("capture requires an audio stream")
	}
	if in.Audio == "" || (c.Video && in.Video == "") {
		return nil, fmt.Errorf("%s: capture device name missing", in.Format)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	switch in.Format {
	case "avfoundation":
		video := "none"
		if c.Video {
			video = in.Video
		}
		args = append(args, "-f", in.Format, "-i", video+":"+in.Audio)
	case "dshow":
		source := "audio=" + in.Audio
		if c.Video {
			source = "video=" + in.Video + ":" + source
		}
		args = append(args, "-f", in.Format, "-i", source)
	default:
		if c.Video {
			args = append(args, "-f", "v4l2", "-i", in.Video)
		}
		args = append(args, "-f", in.Format, "-i", in.Audio)
	}

	if c.Video {
		args = append(args, "-c:v", "libvpx", "-deadline", "realtime", "-b:v", "1M")
	} else {
		args = append(args, "-vn")
	}
	args = append(args, "-c:a", "libopus", "-f", "webm", "pipe:1")
	return args, nil
}

// pump copies r into out in chunks of at most size bytes, in read order, until
// EOF or closed. ready receives nil after the first chunk, or the read error if
// none arrived.
func pump(r io.Reader, out chan<- []byte, closed <-chan struct{}, size int, ready chan<- error) {
	defer close(out)
	signalled := false
	signal := func(err error) {
		if !signalled {
			signalled = true
			ready <- err
		}
	}
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			signal(nil)
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-closed:
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				signal(errors.New("stream ended"))
			} else {
				signal(err)
			}
			return
		}
	}
}

type processStream struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	tracks    []capture.Track
	chunks    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	exited    chan error
	remaining atomic.Int32
	once      sync.Once
	logger    *logrus.Logger
}

func (s *processStream) Tracks() []capture.Track { return s.tracks }
func (s *processStream) Chunks() <-chan []byte   { return s.chunks }

// shutdown asks ffmpeg to finish and keeps forwarding what it flushes until it
// exits. Output is dropped only once the process has to be killed.
func (s *processStream) shutdown() {
	s.once.Do(func() {
		_, _ = io.WriteString(s.stdin, "q")
		_ = s.stdin.Close()
		timer := time.NewTimer(shutdownGrace)
		defer timer.Stop()
		select {
		case <-s.exited:
		case <-timer.C:
			s.discard()
			if s.cmd.Process != nil {
				_ = s.cmd.Process.Kill()
			}
			<-s.exited
		}
		s.logger.Debug("Capture process stopped")
	})
}

// abort stops a stream nobody reads from.
func (s *processStream) abort() {
	s.discard()
	s.shutdown()
}

func (s *processStream) discard() {
	s.closeOnce.Do(func() { close(s.closed) })
}

type processTrack struct {
	kind   string
	stream *processStream
	live   atomic.Bool
}

func (t *processTrack) Kind() string { return t.kind }
func (t *processTrack) Live() bool   { return t.live.Load() }

// Stop releases the track. The process ends once every track is stopped.
func (t *processTrack) Stop() {
	if !t.live.CompareAndSwap(true, false) {
		return
	}
	if t.stream.remaining.Add(-1) == 0 {
		t.stream.shutdown()
	}
}
