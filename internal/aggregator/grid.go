// Package aggregator bins GLM events onto a fixed Earth grid and sums
// optical energy per cell (Total Optical Energy) over a query window.
package aggregator

// GridVariant selects which fixed grid events are binned onto.
type GridVariant int

const (
	// GridABI bins onto the GOES-R ABI geostationary fixed grid (~2km
	// cells in projected meters, origin at sub-satellite nadir).
	GridABI GridVariant = iota
	// GridGeodetic bins onto a global 0.018-degree latitude/longitude
	// grid (~2km cells at the equator).
	GridGeodetic
)

// CellSizeMeters is the nominal ABI grid cell size.
const CellSizeMeters = 2000.0

// CellSizeDegrees is the nominal geodetic grid cell size.
const CellSizeDegrees = 0.018

// cellKey is a sparse grid index. For the ABI variant it is (gx, gy) in
// units of CellSizeMeters; for the geodetic variant it is (ilat, ilon) in
// units of CellSizeDegrees, as described in spec.
type cellKey struct{ a, b int }

// Grid is the aggregated per-cell energy map produced by Aggregate. It is
// transient: built fresh per tile request, never persisted.
type Grid struct {
	Variant GridVariant
	Cells   map[cellKey]float64
}

// newGrid allocates an empty grid of the given variant.
func newGrid(v GridVariant) *Grid {
	return &Grid{Variant: v, Cells: make(map[cellKey]float64)}
}

func (g *Grid) add(a, b int, energyFJ float64) {
	g.Cells[cellKey{a, b}] += energyFJ
}

// ABIInverter is the subset of projection.ABIFixedGrid the aggregator needs
// to recover a cell's geodetic center; kept as an interface so this package
// does not need to import projection just to accept a concrete type.
type ABIInverter interface {
	Inverse(x, y float64) (lonDeg, latDeg float64, err error)
}

// CellSample is a resolved grid cell: its geodetic center and total energy,
// ready for the tile renderer to project onto Web Mercator.
type CellSample struct {
	Lon, Lat float64
	EnergyFJ float64
}

// Resolve returns every non-zero cell's geodetic center and energy. For the
// ABI variant this uses proj's inverse transform; cells whose center falls
// beyond the visible Earth disk (a projection failure) are skipped, per the
// drop-and-continue error policy.
func (g *Grid) Resolve(proj ABIInverter) []CellSample {
	out := make([]CellSample, 0, len(g.Cells))
	for k, energy := range g.Cells {
		if energy <= 0 {
			continue
		}
		var lon, lat float64
		switch g.Variant {
		case GridGeodetic:
			lat = (float64(k.a)+0.5)*CellSizeDegrees - 90.0
			lon = (float64(k.b)+0.5)*CellSizeDegrees - 180.0
		default: // GridABI
			x := (float64(k.a) + 0.5) * CellSizeMeters
			y := (float64(k.b) + 0.5) * CellSizeMeters
			var err error
			lon, lat, err = proj.Inverse(x, y)
			if err != nil {
				continue
			}
		}
		out = append(out, CellSample{Lon: lon, Lat: lat, EnergyFJ: energy})
	}
	return out
}

// TotalEnergyFJ sums every cell's energy — used by the energy-preservation
// property test.
func (g *Grid) TotalEnergyFJ() float64 {
	var total float64
	for _, v := range g.Cells {
		total += v
	}
	return total
}

// CellCount reports how many distinct cells were touched.
func (g *Grid) CellCount() int { return len(g.Cells) }
