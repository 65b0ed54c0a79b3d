package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveRoundTripsEntries(t *testing.T) {
	data, err := Archive([]Entry{{Filename: "a.txt", Data: []byte("alpha")}, {Filename: "dir/b.txt", Data: []byte("beta")}})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	f, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if zr.File[1].Name != "dir/b.txt" || string(got) != "beta" {
		t.Fatalf("entry = %s %q", zr.File[1].Name, got)
	}

	again, _ := Archive([]Entry{{Filename: "a.txt", Data: []byte("alpha")}, {Filename: "dir/b.txt", Data: []byte("beta")}})
	if !bytes.Equal(data, again) {
		t.Fatal("archive is not deterministic")
	}
}
