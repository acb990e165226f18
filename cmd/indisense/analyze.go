package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"indisense/sentiment-gateway/internal/capture"
	"indisense/sentiment-gateway/internal/ffmpeg"
)

func newTextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "text [words...]",
		Short: "Analyze typed text; reads stdin when no words are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				input = string(data)
			}
			if strings.TrimSpace(input) == "" {
				return errors.New("no text to analyze")
			}

			return ctx.withSession(cmd, capture.ModeText, nil, func(s *capture.Session) error {
				return s.SetText(input)
			})
		},
	}
}

func newFileCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag  string
		noExtract bool
	)
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Analyze an audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := capture.LoadFile(args[0])
			if err != nil {
				return err
			}
			tools := ffmpeg.NewTools("", "", ctx.logger)
			mode, err := fileMode(modeFlag, f.MimeType, videoStreamCheck(cmd.Context(), tools, args[0], ctx.logger))
			if err != nil {
				return err
			}
			var opts []capture.Option
			if mode == capture.ModeVideo && !noExtract {
				opts = append(opts, capture.WithAudioExtractor(tools))
			}
			ctx.logger.WithField("file", f.Name).WithField("size", humanize.Bytes(uint64(len(f.Data)))).Debug("Loaded file")

			return ctx.withSession(cmd, mode, opts, func(s *capture.Session) error {
				return s.SelectFile(f)
			})
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Capture mode: audio or video (default: from the file type)")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Send video files as-is instead of extracting their audio track")
	return cmd
}

// hasVideoFunc reports whether a media file carries a video stream.
type hasVideoFunc func() (bool, error)

// videoStreamCheck inspects path with ffprobe. It returns nil when ffprobe
// is not installed.
func videoStreamCheck(ctx context.Context, tools *ffmpeg.Tools, path string, logger *logrus.Logger) hasVideoFunc {
	if !tools.Available() {
		return nil
	}
	return func() (bool, error) {
		out, err := tools.Probe(ctx, path)
		if err != nil {
			logger.WithError(err).WithField("file", path).Debug("Could not inspect streams")
			return false, err
		}
		return out.HasVideo(), nil
	}
}

// fileMode resolves the capture mode of a file, inferring it from the MIME
// type when no mode is requested. Containers that hold either audio or video
// (webm, ogg) are audio only when hasVideo finds no video stream.
func fileMode(requested, mimeType string, hasVideo hasVideoFunc) (capture.Mode, error) {
	if strings.TrimSpace(requested) == "" {
		if capture.ModeVideo.Accepts(mimeType) {
			if !capture.ModeAudio.Accepts(mimeType) || hasVideo == nil {
				return capture.ModeVideo, nil
			}
			if yes, err := hasVideo(); err != nil || yes {
				return capture.ModeVideo, nil
			}
			return capture.ModeAudio, nil
		}
		if capture.ModeAudio.Accepts(mimeType) {
			return capture.ModeAudio, nil
		}
		return "", fmt.Errorf("%s is not an audio or video file", mimeType)
	}
	mode, err := capture.ParseMode(requested)
	if err != nil {
		return "", err
	}
	if !mode.IsMedia() {
		return "", errors.New("files can only be analyzed in audio or video mode")
	}
	return mode, nil
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag string
		duration time.Duration
		format   string
		audioDev string
		videoDev string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone (and camera) and analyze the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := capture.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			if !mode.IsMedia() {
				return errors.New("recording needs audio or video mode")
			}

			input := ffmpeg.DefaultInput()
			if format != "" {
				input.Format = format
			}
			if audioDev != "" {
				input.Audio = audioDev
			}
			if videoDev != "" {
				input.Video = videoDev
			}
			opts := []capture.Option{capture.WithDevice(&ffmpeg.Device{Input: input, Logger: ctx.logger})}
			if mode == capture.ModeVideo {
				opts = append(opts, capture.WithAudioExtractor(ffmpeg.NewTools("", "", ctx.logger)))
			}

			return ctx.withSession(cmd, mode, opts, func(s *capture.Session) error {
				return record(cmd, s, duration)
			})
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(capture.ModeAudio), "Capture mode: audio or video")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (default: press Enter to stop)")
	cmd.Flags().StringVar(&format, "input-format", "", "ffmpeg capture backend (alsa, pulse, avfoundation, dshow)")
	cmd.Flags().StringVar(&audioDev, "audio-device", "", "Audio capture device")
	cmd.Flags().StringVar(&videoDev, "video-device", "", "Video capture device")
	return cmd
}

// record runs one recording until the duration elapses, Enter is pressed or
// the command is cancelled.
func record(cmd *cobra.Command, s *capture.Session, duration time.Duration) error {
	ctx := cmd.Context()
	if err := s.StartRecording(ctx); err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	if duration > 0 {
		fmt.Fprintf(out, "Recording for %s...\n", duration)
	} else {
		fmt.Fprintln(out, "Recording... press Enter to stop")
	}

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		close(enter)
	}()
	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-enter:
	case <-timeout:
	}

	blob, err := s.StopRecording()
	if err != nil {
		return err
	}
	if len(blob.Data) == 0 {
		return errors.New("the recording is empty")
	}
	fmt.Fprintf(out, "Recorded %s of %s\n", humanize.Bytes(uint64(len(blob.Data))), blob.MimeType)
	return nil
}

// withSession prepares a capture session, submits its candidate and prints
// the result. The session is closed on every path.
func (c *commandContext) withSession(cmd *cobra.Command, mode capture.Mode, opts []capture.Option, prepare func(*capture.Session) error) error {
	transport, release, err := c.transport()
	if err != nil {
		return err
	}
	defer release()

	opts = append(opts, capture.WithLogger(c.logger))
	session := capture.NewSession(mode, transport, opts...)
	defer session.Close()

	if err := prepare(session); err != nil {
		return err
	}

	res, err := session.Submit(cmd.Context())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderResult(res, c.colorize(cmd)))
	return nil
}
