package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"indisense/sentiment-gateway/internal/gateway"
	"indisense/sentiment-gateway/models"
)

const (
	msgNotConfigured = "AI service not configured"
	msgNoText        = "No text provided for analysis"
)

// MissingText is the failure for an absent or blank text submission.
func MissingText() *Error {
	return newError(KindInvalidInput, msgNoText, nil)
}

// MissingMedia is the failure for a media submission without data.
func MissingMedia(kind MediaKind) *Error {
	if kind == MediaVideo {
		return newError(KindInvalidInput, "No video/audio data provided", nil)
	}
	return newError(KindInvalidInput, "No audio data provided", nil)
}

// ModelClient is the part of the gateway client the analyzer needs.
type ModelClient interface {
	Configured() bool
	Complete(ctx context.Context, messages []gateway.Message) (string, error)
}

// MediaInput is one audio or video submission. Data is base64 encoded and may
// carry a data URL prefix.
type MediaInput struct {
	Kind     MediaKind
	Data     string
	MimeType string
	FileName string
}

// Analyzer runs the normalization pipeline for text and media submissions.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	model  ModelClient
	logger *logrus.Logger
}

// NewAnalyzer creates an Analyzer backed by the given model client.
func NewAnalyzer(model ModelClient, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Analyzer{model: model, logger: logger}
}

// AnalyzeText scores the emotions of a piece of text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*models.AnalysisResult, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil, MissingText()
	}
	if err := a.checkConfigured(); err != nil {
		return nil, err
	}

	preview := text
	if r := []rune(preview); len(r) > 100 {
		preview = string(r[:100])
	}
	a.logger.WithField("text_preview", preview).Info("Analyzing text sentiment")

	sentiment, err := a.sentiment(ctx, []gateway.Message{
		gateway.SystemMessage(textSentimentPrompt),
		gateway.UserText(textSentimentInstruction(text)),
	}, "AI analysis failed")
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Emotions:  sentiment.Emotions,
		KeyThemes: sentiment.KeyThemes,
	}, nil
}

// AnalyzeMedia transcribes a submission and scores the emotions of the
// transcript. The sentiment call is only made once the transcript passed
// validation.
func (a *Analyzer) AnalyzeMedia(ctx context.Context, in MediaInput) (*models.AnalysisResult, error) {
	if in.Kind != MediaVideo {
		in.Kind = MediaAudio
	}
	data, mimeType, err := prepareMedia(in)
	if err != nil {
		return nil, err
	}
	if err := a.checkConfigured(); err != nil {
		return nil, err
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = "unknown"
	}
	log := a.logger.WithFields(logrus.Fields{
		"media_kind": in.Kind,
		"file_name":  fileName,
		"mime_type":  mimeType,
	})
	log.Info("Processing media file")

	transcript, err := a.transcribe(ctx, in.Kind, data, mimeType)
	if err != nil {
		return nil, err
	}
	log.WithField("transcription", transcript).Info("Transcription accepted")

	sentiment, err := a.sentiment(ctx, []gateway.Message{
		gateway.SystemMessage(mediaSentimentPrompt),
		gateway.UserText(mediaSentimentInstruction(in.Kind, transcript)),
	}, "Failed to analyze sentiment")
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Emotions:      sentiment.Emotions,
		Transcription: transcript,
		KeyThemes:     sentiment.KeyThemes,
	}, nil
}

func (a *Analyzer) checkConfigured() error {
	if a.model == nil || !a.model.Configured() {
		a.logger.Error("Model gateway API key not configured")
		return newError(KindServiceUnavailable, msgNotConfigured, gateway.ErrMissingAPIKey)
	}
	return nil
}

func (a *Analyzer) transcribe(ctx context.Context, kind MediaKind, data, mimeType string) (string, error) {
	failMessage := "Failed to transcribe audio"
	rejectMessage := "Could not transcribe audio. Please ensure the audio contains clear speech."
	if kind == MediaVideo {
		failMessage = "Failed to transcribe video audio"
		rejectMessage = "Could not transcribe video audio. Please ensure the video contains clear speech."
	}

	raw, err := a.model.Complete(ctx, []gateway.Message{
		gateway.SystemMessage(transcriptionPrompt(kind)),
		gateway.UserAudio(transcriptionInstruction(kind), data, audioFormat(mimeType)),
	})
	if err != nil {
		aerr := classifyGatewayError(err, failMessage)
		a.logger.WithError(err).WithField("upstream_status", aerr.UpstreamStatus).Error("Transcription request failed")
		return "", aerr
	}
	a.logger.WithField("response_snippet", summarizeSnippet(raw)).Debug("Transcription response received")

	transcript, err := parseTranscription(raw)
	if err != nil {
		return "", err
	}
	if !hasEnoughSpeech(transcript) {
		a.logger.WithField("transcription", transcript).Warn("Transcription rejected: not enough speech")
		return "", newError(KindTranscriptionFailed, rejectMessage, nil)
	}
	return transcript, nil
}

func (a *Analyzer) sentiment(ctx context.Context, messages []gateway.Message, failMessage string) (*SentimentResult, error) {
	raw, err := a.model.Complete(ctx, messages)
	if err != nil {
		aerr := classifyGatewayError(err, failMessage)
		a.logger.WithError(err).WithField("upstream_status", aerr.UpstreamStatus).Error("Sentiment request failed")
		return nil, aerr
	}
	if strings.TrimSpace(raw) == "" {
		a.logger.Error("No content in sentiment response")
		return nil, newError(KindMalformedModelResponse, "Failed to get AI response", errors.New("empty content"))
	}
	a.logger.WithField("response_snippet", summarizeSnippet(raw)).Debug("Sentiment response received")

	result, err := parseSentiment(raw)
	if err != nil {
		a.logger.WithError(err).WithField("response_snippet", summarizeSnippet(raw)).Error("Failed to parse sentiment response")
		return nil, err
	}
	return result, nil
}

// prepareMedia validates the base64 payload and fills in a missing MIME type
// from the decoded bytes. It returns the canonical base64 form.
func prepareMedia(in MediaInput) (string, string, error) {
	data := strings.TrimSpace(in.Data)
	if strings.HasPrefix(data, "data:") {
		if idx := strings.Index(data, ","); idx >= 0 {
			data = data[idx+1:]
		}
	}
	if data == "" {
		return "", "", MissingMedia(in.Kind)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", "", newError(KindInvalidInput, "Media data is not valid base64", err)
		}
	}
	if len(decoded) == 0 {
		return "", "", MissingMedia(in.Kind)
	}

	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" {
		mimeType = mimetype.Detect(decoded).String()
	}
	return base64.StdEncoding.EncodeToString(decoded), mimeType, nil
}

// audioFormat is the attachment format hint derived from the declared MIME type.
func audioFormat(mimeType string) string {
	if strings.Contains(strings.ToLower(mimeType), "wav") {
		return "wav"
	}
	return "mp3"
}
