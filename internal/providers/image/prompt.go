package image

import (
	"fmt"
	"strings"
)

// DefaultNegativePrompt captures undesirable artefacts we want the model to avoid.
const DefaultNegativePrompt = "low quality, blurry, distorted, washed out, incorrect anatomy, extra limbs, text artefacts, watermark"

// BuildScenePrompt turns a scene's image prompt into an instruction for a
// text-to-image model. Every scene is framed for a vertical 9:16 reel.
func BuildScenePrompt(scenePrompt string, sceneIndex int) string {
	lines := []string{
		fmt.Sprintf("Create a photorealistic vertical 9:16 frame for scene %d of a short video.", sceneIndex+1),
	}
	if subject := strings.TrimSpace(scenePrompt); subject != "" {
		lines = append(lines, "Scene: "+subject+".")
	}
	lines = append(lines,
		"Keep the main subject centred with room for captions in the lower third.",
		"Do not render any text or logos.",
		"Avoid: "+DefaultNegativePrompt+".",
	)
	return strings.Join(lines, " ")
}

// extensionFor maps an image MIME type to a file extension.
func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
