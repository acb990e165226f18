package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaUpload represents an archived media file in the database.
type MediaUpload struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	StoragePath string    `json:"storage_path"` // Relative to the bucket root, e.g. {user_id}/{millis}.webm
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
