package genai

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
)

// Vertical 9:16 frame used for short-form scenes.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
)

// DeterministicSeed hashes the parts into a short hex seed.
func DeterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// SyntheticPNG renders a striped placeholder frame whose colours derive from
// seed, so the same scene always yields the same bytes.
func SyntheticPNG(width, height int, seed string) ([]byte, error) {
	if width <= 0 {
		width = FrameWidth
	}
	if height <= 0 {
		height = FrameHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFromSeed(seed, 0)}, image.Point{}, draw.Src)

	accent := colorFromSeed(seed, 1)
	stripe := max(32, height/12)
	for y := 0; y < height; y += stripe * 2 {
		draw.Draw(img, image.Rect(0, y, width, min(height, y+stripe)), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	step := max(16, width/32)
	for x := 0; x < max(width, height); x += step {
		for y := 0; y < height && x+y < width; y++ {
			img.Set(x+y, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
