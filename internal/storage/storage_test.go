package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/infra"
)

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "jobs/a/scenes/00.png", want: "jobs/a/scenes/00.png"},
		{in: "/jobs//a/../b.png", want: "jobs/b.png"},
		{in: `jobs\a.png`, want: "jobs/a.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "..", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static/")
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), SceneKey("job-1", 2, ".png"), "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/static/jobs/job-1/scenes/02.png", ref)

	data, err := os.ReadFile(filepath.Join(dir, "jobs", "job-1", "scenes", "02.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	_, err = os.Stat(filepath.Join(dir, "jobs", "job-1", "scenes", "02.png.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorePutHonoursContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "a.png", "image/png", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	store, err := Open(&infra.Config{StorageBackend: "filesystem", StoragePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(&infra.Config{StorageBackend: "supabase"})
	require.Error(t, err)

	sb, err := Open(&infra.Config{StorageBackend: "supabase", SupabaseURL: "https://x.supabase.co/", SupabaseServiceKey: "k", SupabaseBucket: "videos"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co/storage/v1/object/public/videos/jobs/a/reel.zip", sb.(*SupabaseStore).PublicURL(ArtifactKey("a")))

	_, err = Open(&infra.Config{StorageBackend: "s3"})
	require.Error(t, err)
}
