package projection

import (
	"fmt"
	"math"
)

// ABIFixedGrid implements the forward and inverse GOES-R Advanced Baseline
// Imager fixed-grid geostationary projection, following the navigation
// equations published in the GOES-R Product User Guide (scan-angle
// geometry against a GRS80 reference ellipsoid), scaled to projected meters
// by the satellite's perspective height — the same convention a
// `+proj=geos +units=m` PROJ string produces.
type ABIFixedGrid struct {
	lon0   float64 // sub-satellite longitude, degrees
	height float64 // perspective point height above the ellipsoid, meters
	req    float64 // semi-major axis, meters
	rpol   float64 // semi-minor axis, meters
	h      float64 // distance from Earth center to satellite (height + req)
}

// DefaultSatelliteHeight is the GOES-R nominal perspective point height.
const DefaultSatelliteHeight = 35_786_023.0

// GRS80 semi-major/minor axes, meters.
const (
	GRS80SemiMajor = 6_378_137.0
	GRS80SemiMinor = 6_356_752.31414
)

// NewABIFixedGrid builds the projection for the given sub-satellite
// longitude in degrees. height/req/rpol are always the GOES-R nominal
// perspective height and GRS80 semi-axes.
func NewABIFixedGrid(lon0Deg float64) *ABIFixedGrid {
	return &ABIFixedGrid{
		lon0:   lon0Deg,
		height: DefaultSatelliteHeight,
		req:    GRS80SemiMajor,
		rpol:   GRS80SemiMinor,
		h:      DefaultSatelliteHeight + GRS80SemiMajor,
	}
}

// Forward projects a geodetic (lon, lat) in degrees to ABI fixed-grid
// projected meters. Returns an error if the point falls beyond the visible
// Earth disk (over the limb from the satellite's perspective) — callers
// must treat this as a per-event projection failure per the drop-and-log
// policy, not a fatal error.
func (g *ABIFixedGrid) Forward(lonDeg, latDeg float64) (x, y float64, err error) {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	lon0 := g.lon0 * math.Pi / 180.0

	rpolOverReq2 := (g.rpol / g.req) * (g.rpol / g.req)
	reqOverRpol2 := 1.0 / rpolOverReq2

	phiC := math.Atan(rpolOverReq2 * math.Tan(lat))
	cosPhiC := math.Cos(phiC)
	sinPhiC := math.Sin(phiC)

	rc := 1.0 / math.Sqrt(cosPhiC*cosPhiC/(g.req*g.req)+sinPhiC*sinPhiC/(g.rpol*g.rpol))

	dLon := lon - lon0
	sx := g.h - rc*cosPhiC*math.Cos(dLon)
	sy := -rc * cosPhiC * math.Sin(dLon)
	sz := rc * sinPhiC

	if g.h*(g.h-sx) < sy*sy+reqOverRpol2*sz*sz {
		return 0, 0, fmt.Errorf("projection: point (%.4f,%.4f) is beyond the visible Earth disk", lonDeg, latDeg)
	}

	mag := math.Sqrt(sx*sx + sy*sy + sz*sz)
	yScan := math.Atan(sz / sx)
	xScan := math.Asin(-sy / mag)

	return xScan * g.height, yScan * g.height, nil
}

// Inverse maps ABI fixed-grid projected meters back to a geodetic (lon,
// lat) in degrees. Returns an error if the scan angles do not intersect
// the reference ellipsoid (the ray passes beyond the limb).
func (g *ABIFixedGrid) Inverse(x, y float64) (lonDeg, latDeg float64, err error) {
	xScan := x / g.height
	yScan := y / g.height

	cosX, sinX := math.Cos(xScan), math.Sin(xScan)
	cosY, sinY := math.Cos(yScan), math.Sin(yScan)
	reqOverRpol2 := (g.req / g.rpol) * (g.req / g.rpol)

	a := sinX*sinX + cosX*cosX*(cosY*cosY+reqOverRpol2*sinY*sinY)
	b := -2 * g.h * cosX * cosY
	c := g.h*g.h - g.req*g.req

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, fmt.Errorf("projection: scan angle (%.6f,%.6f) misses the Earth disk", xScan, yScan)
	}

	rs := (-b - math.Sqrt(disc)) / (2 * a)

	sx := rs * cosX * cosY
	sy := -rs * sinX
	sz := rs * cosX * sinY

	lon0 := g.lon0 * math.Pi / 180.0
	lon := lon0 - math.Atan(sy/(g.h-sx))
	lat := math.Atan(reqOverRpol2 * sz / math.Hypot(g.h-sx, sy))

	return lon * 180.0 / math.Pi, lat * 180.0 / math.Pi, nil
}

// Lon0 returns the configured sub-satellite longitude in degrees.
func (g *ABIFixedGrid) Lon0() float64 { return g.lon0 }
