// Package storage persists generated assets and returns references that can
// be handed to clients.
package storage

import (
	"context"
	"fmt"

	"reelgen/internal/infra"
)

const (
	BackendFilesystem = "filesystem"
	BackendSupabase   = "supabase"
)

// ObjectStore writes an object under key and returns its public reference.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Open builds the store selected by STORAGE_BACKEND.
func Open(cfg *infra.Config) (ObjectStore, error) {
	switch cfg.StorageBackend {
	case BackendFilesystem, "":
		return NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	case BackendSupabase:
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}

// SceneKey is the object key of a rendered scene image.
func SceneKey(jobID string, index int, ext string) string {
	return fmt.Sprintf("jobs/%s/scenes/%02d%s", jobID, index, ext)
}

// ArtifactKey is the object key of a job's final bundle.
func ArtifactKey(jobID string) string {
	return fmt.Sprintf("jobs/%s/reel.zip", jobID)
}
