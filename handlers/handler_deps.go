package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/internal/analysis"
	"indisense/sentiment-gateway/internal/archive"
	"indisense/sentiment-gateway/models"
)

var validate = validator.New()

// Analyzer is the analysis pipeline the handlers drive.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*models.AnalysisResult, error)
	AnalyzeMedia(ctx context.Context, in analysis.MediaInput) (*models.AnalysisResult, error)
}

// Archiver stores raw media for a caller.
type Archiver interface {
	Archive(ctx context.Context, token string, up archive.Upload) (*models.MediaUpload, error)
	List(ctx context.Context, token string, limit int) ([]models.MediaUpload, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Analyzer Analyzer
	Archiver Archiver // nil when archival is not configured
	Logger   *logrus.Logger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(analyzer Analyzer, archiver Archiver, logger *logrus.Logger) *ApplicationHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ApplicationHandler{
		Analyzer: analyzer,
		Archiver: archiver,
		Logger:   logger,
	}
}
