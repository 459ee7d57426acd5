// Package tilerender turns an aggregated TOE grid into a 256x256 Web
// Mercator RGBA PNG tile using a stepped color ramp.
package tilerender

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/jcom-dev/zmanim/internal/aggregator"
	"github.com/jcom-dev/zmanim/internal/projection"
)

// Identity names a single tile by its slippy-map coordinates.
type Identity struct {
	Z, X, Y int
}

// Render paints grid's non-zero cells onto a 256x256 transparent RGBA
// canvas at the given tile identity and encodes it as PNG. ABI-variant
// cells are dilated into their surrounding 3x3 neighborhood per spec.md
// §4.6, compensating for Mercator-vs-geostationary sub-pixel drift at low
// zoom. An empty or fully out-of-view grid still yields a valid transparent
// PNG — never an error.
func Render(grid *aggregator.Grid, abi *projection.ABIFixedGrid, tile Identity) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, projection.TileSize, projection.TileSize))

	dilate := grid.Variant == aggregator.GridABI
	for _, cell := range grid.Resolve(abi) {
		px, py := projection.TilePixel(cell.Lon, cell.Lat, tile.Z, tile.X, tile.Y)
		x, y := int(math.Floor(px)), int(math.Floor(py))
		if x < 0 || x >= projection.TileSize || y < 0 || y >= projection.TileSize {
			continue
		}

		c := colorForEnergy(cell.EnergyFJ)
		if dilate {
			paint3x3(img, x, y, c)
		} else {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("tilerender: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// paint3x3 paints a fixed 3x3 neighborhood centered on (x, y), clipped to
// the tile bounds.
func paint3x3(img *image.RGBA, x, y int, c color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			px, py := x+dx, y+dy
			if px < 0 || px >= projection.TileSize || py < 0 || py >= projection.TileSize {
				continue
			}
			img.SetRGBA(px, py, c)
		}
	}
}
