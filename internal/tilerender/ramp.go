package tilerender

import "image/color"

// colorForEnergy maps a cell's energy (femtojoules) to an RGBA color under
// the stepped ramp spec.md §4.6 defines. Values at or below zero are fully
// transparent.
func colorForEnergy(v float64) color.RGBA {
	switch {
	case v <= 0:
		return color.RGBA{0, 0, 0, 0}
	case v < 50:
		return color.RGBA{65, 182, 196, 160}
	case v < 200:
		return color.RGBA{44, 127, 184, 200}
	case v < 500:
		return color.RGBA{37, 52, 148, 220}
	case v < 1000:
		return color.RGBA{255, 255, 0, 240}
	case v < 2000:
		return color.RGBA{255, 140, 0, 255}
	default:
		return color.RGBA{220, 20, 60, 255}
	}
}
