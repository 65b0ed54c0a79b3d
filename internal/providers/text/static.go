package text

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelgen/internal/domain"
)

// StaticWriter produces a canned script without network access. It backs
// local development and keyless deployments.
type StaticWriter struct{}

func NewStaticWriter() *StaticWriter {
	return &StaticWriter{}
}

var staticBeats = []struct {
	shot string
	line string
}{
	{"an establishing wide shot introducing", "Let's talk about %s."},
	{"a close-up detail shot of", "Here is what makes %s worth a closer look."},
	{"a vibrant action shot showing", "See %s in action."},
	{"a surprising angle on", "Most people never notice this about %s."},
	{"a warm closing shot celebrating", "That's %s in thirty seconds."},
}

func (s *StaticWriter) WriteScript(ctx context.Context, req domain.ScriptRequest) (*domain.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(req.Prompt)
	title := cases.Title(language.Und).String(topic)

	count := len(staticBeats)
	if req.MaxScenes > 0 && count > req.MaxScenes {
		count = req.MaxScenes
	}
	if count < req.MinScenes {
		count = req.MinScenes
	}
	scenes := make([]domain.Scene, 0, count)
	for i := 0; i < count; i++ {
		beat := staticBeats[i%len(staticBeats)]
		scenes = append(scenes, domain.Scene{
			ImagePrompt: fmt.Sprintf("Photorealistic vertical frame, %s %s", beat.shot, topic),
			ContentText: fmt.Sprintf(beat.line, title),
		})
	}
	return &domain.Script{Scenes: scenes}, nil
}

var _ domain.ScriptWriter = (*StaticWriter)(nil)
