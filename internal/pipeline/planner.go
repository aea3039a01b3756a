package pipeline

import "math"

// Plan returns the dimensions an image of width x height is re-encoded at so
// that it is no wider than maxWidth. Images are never upscaled.
func Plan(width, height, maxWidth int) (int, int) {
	if width <= maxWidth {
		return width, height
	}

	ratio := float64(maxWidth) / float64(width)
	targetHeight := int(math.Round(float64(height) * ratio))
	return max(1, maxWidth), max(1, targetHeight)
}
