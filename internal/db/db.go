package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"

	"indisense/sentiment-gateway/models"
)

// DefaultUploadsTable holds one row per archived media file.
const DefaultUploadsTable = "media_uploads"

// NewClient builds a PostgREST client against a Supabase project.
func NewClient(supabaseURL, supabaseKey string) (*postgrest.Client, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, errors.New("supabase url and key must be set")
	}
	client := postgrest.NewClient(strings.TrimRight(supabaseURL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        supabaseKey,
		"Authorization": fmt.Sprintf("Bearer %s", supabaseKey),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to initialize postgrest client: %w", client.ClientError)
	}
	return client, nil
}

// MediaUploads reads and writes the uploads table.
type MediaUploads struct {
	client *postgrest.Client
	table  string
}

// NewMediaUploads uses DefaultUploadsTable when table is empty.
func NewMediaUploads(client *postgrest.Client, table string) *MediaUploads {
	if table == "" {
		table = DefaultUploadsTable
	}
	return &MediaUploads{client: client, table: table}
}

// Insert adds one upload row.
func (m *MediaUploads) Insert(_ context.Context, upload models.MediaUpload) error {
	var results []models.MediaUpload
	_, err := m.client.From(m.table).Insert(upload, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no record returned after insert, id: %s", upload.ID)
	}
	return nil
}

// ListByUser returns up to limit rows for the user, newest first.
func (m *MediaUploads) ListByUser(_ context.Context, userID string, limit int) ([]models.MediaUpload, error) {
	var results []models.MediaUpload
	_, err := m.client.From(m.table).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads for %s: %w", userID, err)
	}
	return results, nil
}
