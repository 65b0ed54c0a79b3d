package domain

import "context"

// ScriptRequest is what the script stage asks a text backend for.
type ScriptRequest struct {
	Prompt    string
	Locale    string
	MinScenes int
	MaxScenes int
}

// Script is the structured output of a text backend.
type Script struct {
	Scenes []Scene
	Usage  *Usage
}

// ScriptWriter turns a prompt into an ordered scene list. Implementations
// return *ProviderError so callers can classify failures.
type ScriptWriter interface {
	WriteScript(ctx context.Context, req ScriptRequest) (*Script, error)
}

// ImageRequest identifies one scene image to render.
type ImageRequest struct {
	JobID      string
	SceneIndex int
	Prompt     string
}

// ImageRenderer renders a scene image and returns a reference to the stored asset.
type ImageRenderer interface {
	RenderImage(ctx context.Context, req ImageRequest) (string, error)
}
