// Package archive stores raw media submissions for later reference. It is
// independent of analysis: nothing here is consulted when analyzing.
package archive

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/internal/worker"
	"indisense/sentiment-gateway/models"
)

var (
	// ErrUnauthorized means the bearer token was missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmptyUpload means the uploaded file had no content.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)

const defaultListLimit = 50

// ObjectStore keeps binary objects under a path.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, data []byte) error
}

// Identity resolves a bearer token to the caller's user id.
type Identity interface {
	UserID(ctx context.Context, token string) (string, error)
}

// Records persists archival rows.
type Records interface {
	Insert(ctx context.Context, upload models.MediaUpload) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.MediaUpload, error)
}

// Submitter queues background jobs.
type Submitter interface {
	SubmitJob(job worker.Job) error
}

// Upload is a file received for archival.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// Service accepts uploads and archives them on a worker pool.
type Service struct {
	store    ObjectStore
	identity Identity
	records  Records
	jobs     Submitter
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService wires the archival collaborators together.
func NewService(store ObjectStore, identity Identity, records Records, jobs Submitter, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		identity: identity,
		records:  records,
		jobs:     jobs,
		logger:   logger,
		now:      time.Now,
	}
}

// Archive authenticates the caller and queues the upload. The returned record
// describes where the object will be stored; storage happens asynchronously.
func (s *Service) Archive(ctx context.Context, token string, up Upload) (*models.MediaUpload, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	created := s.now().UTC()
	record := models.MediaUpload{
		ID:          uuid.New(),
		UserID:      userID,
		StoragePath: ObjectPath(userID, created, up.FileName, up.MimeType),
		FileName:    up.FileName,
		MimeType:    up.MimeType,
		SizeBytes:   int64(len(up.Data)),
		CreatedAt:   created,
	}

	job := &uploadJob{record: record, data: up.Data, store: s.store, records: s.records, logger: s.logger}
	if err := s.jobs.SubmitJob(job); err != nil {
		return nil, fmt.Errorf("queue upload %s: %w", record.ID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"upload_id":    record.ID.String(),
		"user_id":      userID,
		"storage_path": record.StoragePath,
		"size_bytes":   record.SizeBytes,
	}).Info("Upload queued for archival")
	return &record, nil
}

// List returns the caller's uploads, newest first.
func (s *Service) List(ctx context.Context, token string, limit int) ([]models.MediaUpload, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	uploads, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads for %s: %w", userID, err)
	}
	if uploads == nil {
		uploads = []models.MediaUpload{}
	}
	return uploads, nil
}

func (s *Service) authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.identity.UserID(ctx, token)
	if err != nil {
		s.logger.WithError(err).Warn("Rejected archival token")
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// ObjectPath is {user_id}/{unix_millis}.{ext}. The extension comes from the
// file name, then the MIME type, then "bin".
func ObjectPath(userID string, at time.Time, fileName, mimeType string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		}
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}

// uploadJob stores one object and then records it.
type uploadJob struct {
	record  models.MediaUpload
	data    []byte
	store   ObjectStore
	records Records
	logger  *logrus.Logger
}

func (j *uploadJob) ID() string { return "archive-" + j.record.ID.String() }

func (j *uploadJob) Execute(ctx context.Context) error {
	if err := j.store.Put(ctx, j.record.StoragePath, j.record.MimeType, j.data); err != nil {
		return fmt.Errorf("store %s: %w", j.record.StoragePath, err)
	}
	if err := j.records.Insert(ctx, j.record); err != nil {
		return fmt.Errorf("record %s: %w", j.record.StoragePath, err)
	}
	j.logger.WithFields(logrus.Fields{
		"upload_id":    j.record.ID.String(),
		"storage_path": j.record.StoragePath,
	}).Info("Upload archived")
	return nil
}
