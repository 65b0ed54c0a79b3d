package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	storagego "github.com/supabase-community/storage-go"
)

// SupabaseStore uploads objects to a Supabase storage bucket and returns
// their public URLs.
type SupabaseStore struct {
	client  *storagego.Client
	bucket  string
	baseURL string
}

func NewSupabaseStore(supabaseURL, serviceRoleKey, bucket string) (*SupabaseStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(supabaseURL), "/")
	if baseURL == "" || strings.TrimSpace(serviceRoleKey) == "" {
		return nil, errors.New("storage: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	return &SupabaseStore{
		client:  storagego.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// Put uploads with upsert so a retried scene overwrites its earlier attempt.
func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	upsert := true
	_, err = s.client.UploadFile(s.bucket, cleanKey, bytes.NewReader(data), storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", cleanKey, err)
	}
	return s.PublicURL(cleanKey), nil
}

func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}

var _ ObjectStore = (*SupabaseStore)(nil)
