package compositor

import "soundprint-mockup/models"

// Channel values are linear in [0,1]; no gamma handling.

func blendChannel(mode models.BlendMode, b, s float32) float32 {
	switch mode {
	case models.BlendMultiply:
		return b * s
	case models.BlendScreen:
		return screen(b, s)
	case models.BlendOverlay:
		return overlay(b, s)
	default:
		return s
	}
}

func screen(b, s float32) float32 {
	return 1 - (1-b)*(1-s)
}

func overlay(b, s float32) float32 {
	if b < 0.5 {
		return 2 * b * s
	}
	return 1 - 2*(1-b)*(1-s)
}

func mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
