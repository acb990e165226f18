package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"indisense/sentiment-gateway/internal/analysis"
	"indisense/sentiment-gateway/models"
	"indisense/sentiment-gateway/utils"
)

const msgInternal = "Internal server error"

// AnalyzeText godoc
// @Summary Analyze the sentiment of text
// @Description Scores six emotions for the submitted text and extracts up to three key themes. Emojis count as strong signals.
// @Tags analysis
// @Accept  json
// @Produce  json
// @Param   request body models.TextAnalysisRequest true "Text to analyze"
// @Success 200 {object} models.AnalysisResponse "Analysis result"
// @Failure 400 {object} models.ErrorResponse "Missing or blank text"
// @Failure 402 {object} models.ErrorResponse "AI credits exhausted"
// @Failure 429 {object} models.ErrorResponse "Rate limited"
// @Failure 500 {object} models.ErrorResponse "Service not configured or model failure"
// @Router /analyze/text [post]
func (h *ApplicationHandler) AnalyzeText(c *fiber.Ctx) error {
	req := new(models.TextAnalysisRequest)
	if err := c.BodyParser(req); err != nil {
		return h.badBody(c, err, analysis.MissingText())
	}
	if err := validate.Struct(req); err != nil {
		h.Logger.WithField("validation", utils.FormatValidationErrors(err)).Warn("Rejected text request")
		return h.respondFailure(c, analysis.MissingText())
	}

	result, err := h.Analyzer.AnalyzeText(c.UserContext(), req.Text)
	if err != nil {
		return h.respondFailure(c, err)
	}
	return utils.RespondAnalyzed(c, result, false)
}

// AnalyzeAudio godoc
// @Summary Transcribe audio and analyze its sentiment
// @Description Transcribes the base64 audio, rejects clips without clear speech, then scores the transcript.
// @Tags analysis
// @Accept  json
// @Produce  json
// @Param   request body models.MediaAnalysisRequest true "Audio to analyze"
// @Success 200 {object} models.AnalysisResponse "Analysis result with transcription"
// @Failure 400 {object} models.ErrorResponse "Missing data or no recognizable speech"
// @Failure 402 {object} models.ErrorResponse "AI credits exhausted"
// @Failure 429 {object} models.ErrorResponse "Rate limited"
// @Failure 500 {object} models.ErrorResponse "Service not configured or model failure"
// @Router /analyze/audio [post]
func (h *ApplicationHandler) AnalyzeAudio(c *fiber.Ctx) error {
	return h.analyzeMedia(c, analysis.MediaAudio)
}

// AnalyzeVideo godoc
// @Summary Transcribe a video's audio track and analyze its sentiment
// @Description Same contract as audio; audioData carries the video's audio track. Only spoken words are judged.
// @Tags analysis
// @Accept  json
// @Produce  json
// @Param   request body models.MediaAnalysisRequest true "Video audio track to analyze"
// @Success 200 {object} models.AnalysisResponse "Analysis result with transcription"
// @Failure 400 {object} models.ErrorResponse "Missing data or no recognizable speech"
// @Failure 402 {object} models.ErrorResponse "AI credits exhausted"
// @Failure 429 {object} models.ErrorResponse "Rate limited"
// @Failure 500 {object} models.ErrorResponse "Service not configured or model failure"
// @Router /analyze/video [post]
func (h *ApplicationHandler) AnalyzeVideo(c *fiber.Ctx) error {
	return h.analyzeMedia(c, analysis.MediaVideo)
}

func (h *ApplicationHandler) analyzeMedia(c *fiber.Ctx, kind analysis.MediaKind) error {
	req := new(models.MediaAnalysisRequest)
	if err := c.BodyParser(req); err != nil {
		return h.badBody(c, err, analysis.MissingMedia(kind))
	}
	if err := validate.Struct(req); err != nil {
		h.Logger.WithFields(map[string]interface{}{
			"media_kind": kind,
			"validation": utils.FormatValidationErrors(err),
		}).Warn("Rejected media request")
		return h.respondFailure(c, analysis.MissingMedia(kind))
	}

	result, err := h.Analyzer.AnalyzeMedia(c.UserContext(), analysis.MediaInput{
		Kind:     kind,
		Data:     req.AudioData,
		MimeType: req.MimeType,
		FileName: req.FileName,
	})
	if err != nil {
		return h.respondFailure(c, err)
	}
	return utils.RespondAnalyzed(c, result, true)
}

// badBody answers an unparseable body. A field of the wrong JSON type counts
// as the field being absent.
func (h *ApplicationHandler) badBody(c *fiber.Ctx, err error, missing *analysis.Error) error {
	h.Logger.WithError(err).Warn("Cannot parse request body")
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return h.respondFailure(c, missing)
	}
	return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
}

func (h *ApplicationHandler) respondFailure(c *fiber.Ctx, err error) error {
	var aerr *analysis.Error
	if !errors.As(err, &aerr) {
		h.Logger.WithError(err).Error("Unclassified analysis failure")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, msgInternal)
	}
	entry := h.Logger.WithFields(map[string]interface{}{
		"kind":   aerr.Kind,
		"status": aerr.Kind.HTTPStatus(),
	})
	if aerr.Kind.HTTPStatus() >= fiber.StatusInternalServerError {
		entry.WithError(err).Error("Analysis failed")
	} else {
		entry.Info("Analysis rejected")
	}
	return utils.RespondWithError(c, aerr.Kind.HTTPStatus(), aerr.Message)
}
