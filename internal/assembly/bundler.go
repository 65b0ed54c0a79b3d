// Package assembly packages a rendered job into the artifact handed to the
// external encoder: a manifest, subtitle timings and the scene references.
package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"reelgen/internal/domain"
	"reelgen/internal/storage"
	"reelgen/pkg/zip"
)

type Manifest struct {
	JobID          string          `json:"job_id"`
	Prompt         string          `json:"prompt"`
	Locale         string          `json:"locale,omitempty"`
	TargetDuration float64         `json:"target_duration_seconds"`
	Scenes         []ManifestScene `json:"scenes"`
}

type ManifestScene struct {
	Index     int     `json:"index"`
	Start     float64 `json:"start_seconds"`
	End       float64 `json:"end_seconds"`
	AssetRef  string  `json:"asset_ref"`
	Narration string  `json:"narration"`
}

// Bundler writes reel.zip for a job and stores it.
type Bundler struct {
	store  storage.ObjectStore
	target time.Duration
}

func NewBundler(store storage.ObjectStore, target time.Duration) *Bundler {
	if target <= 0 {
		target = 30 * time.Second
	}
	return &Bundler{store: store, target: target}
}

func (b *Bundler) Assemble(ctx context.Context, job *domain.VideoJob) (string, error) {
	if job == nil || len(job.Scenes) == 0 {
		return "", errors.New("assembly: job has no scenes")
	}
	for i, scene := range job.Scenes {
		if scene.AssetRef == "" {
			return "", fmt.Errorf("assembly: scene %d has no asset", i)
		}
	}

	windows := timings(job.Scenes, b.target)
	manifest := Manifest{
		JobID:          job.ID,
		Prompt:         job.Prompt,
		Locale:         job.Locale,
		TargetDuration: b.target.Seconds(),
	}
	for i, scene := range job.Scenes {
		manifest.Scenes = append(manifest.Scenes, ManifestScene{
			Index:     i,
			Start:     windows[i].start.Seconds(),
			End:       windows[i].end.Seconds(),
			AssetRef:  scene.AssetRef,
			Narration: scene.ContentText,
		})
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("assembly: encode manifest: %w", err)
	}

	archive, err := zip.Archive([]zip.Entry{
		{Filename: "manifest.json", Data: manifestJSON},
		{Filename: "narration.srt", Data: []byte(subtitles(job.Scenes, windows))},
	})
	if err != nil {
		return "", fmt.Errorf("assembly: %w", err)
	}
	ref, err := b.store.Put(ctx, storage.ArtifactKey(job.ID), "application/zip", archive)
	if err != nil {
		return "", fmt.Errorf("assembly: store bundle: %w", err)
	}
	return ref, nil
}

type window struct {
	start, end time.Duration
}

// timings splits target across scenes in proportion to narration length.
// Every scene gets at least one share so silent scenes still appear.
func timings(scenes []domain.Scene, target time.Duration) []window {
	weights := make([]int, len(scenes))
	total := 0
	for i, scene := range scenes {
		weights[i] = max(1, utf8.RuneCountInString(strings.TrimSpace(scene.ContentText)))
		total += weights[i]
	}
	out := make([]window, len(scenes))
	var cursor time.Duration
	acc := 0
	for i, w := range weights {
		acc += w
		end := time.Duration(int64(target) * int64(acc) / int64(total)).Truncate(time.Millisecond)
		if i == len(weights)-1 {
			end = target
		}
		out[i] = window{start: cursor, end: end}
		cursor = end
	}
	return out
}

func subtitles(scenes []domain.Scene, windows []window) string {
	var sb strings.Builder
	for i, scene := range scenes {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(windows[i].start), srtTimestamp(windows[i].end), strings.TrimSpace(scene.ContentText))
	}
	return sb.String()
}

func srtTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}
