// Package zip packs in-memory entries into a zip archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

type Entry struct {
	Filename string
	Data     []byte
}

// epoch pins entry timestamps so identical inputs produce identical archives.
var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Archive writes entries in order and returns the archive bytes.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.Filename,
			Method:   zip.Deflate,
			Modified: epoch,
		})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
