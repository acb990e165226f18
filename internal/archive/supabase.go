package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// DefaultBucket is the storage bucket holding archived media.
const DefaultBucket = "media-uploads"

// SupabaseStore writes objects to Supabase Storage.
type SupabaseStore struct {
	client *supa.Client
	bucket string
}

// NewSupabaseStore uses DefaultBucket when bucket is empty.
func NewSupabaseStore(client *supa.Client, bucket string) *SupabaseStore {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &SupabaseStore{client: client, bucket: bucket}
}

// Put uploads data without overwriting an existing object.
func (s *SupabaseStore) Put(_ context.Context, objectPath, contentType string, data []byte) error {
	upsert := false
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}
	if _, err := s.client.Storage.UploadFile(s.bucket, objectPath, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload to bucket %s: %w", s.bucket, err)
	}
	return nil
}

// SupabaseIdentity resolves bearer tokens with Supabase Auth.
type SupabaseIdentity struct {
	client *supa.Client
}

// NewSupabaseIdentity wraps an initialized client.
func NewSupabaseIdentity(client *supa.Client) *SupabaseIdentity {
	return &SupabaseIdentity{client: client}
}

// UserID returns the id of the user owning token.
func (i *SupabaseIdentity) UserID(_ context.Context, token string) (string, error) {
	user, err := i.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return "", errors.New("get user: empty response")
	}
	return user.ID.String(), nil
}
