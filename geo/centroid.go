package geo

import (
	"math"

	"github.com/cube2222/octogeo/octosql"
)

// areaTolerance is relative to the bounding box area of the polygon.
const areaTolerance = 1e-12

var CentroidType = octosql.NewStructType(
	octosql.StructField{Name: "x", Type: octosql.Nullable(octosql.Float)},
	octosql.StructField{Name: "y", Type: octosql.Nullable(octosql.Float)},
)

type point struct {
	x, y float64
}

// centroidColumn computes the area-weighted centroid of each ring.
// Null rings give a null row, degenerate rings a struct with null fields.
func centroidColumn(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error) {
	rings := args[0]
	out := make([]octosql.Value, len(rings))
	for i, ring := range rings {
		if ring.TypeID != octosql.TypeIDList {
			out[i] = octosql.NewNull()
			continue
		}
		x, y, ok := polygonCentroid(ringPoints(ring.List))
		if !ok {
			out[i] = octosql.NewStruct([]octosql.Value{octosql.NewNull(), octosql.NewNull()})
			continue
		}
		out[i] = octosql.NewStruct([]octosql.Value{octosql.NewFloat(x), octosql.NewFloat(y)})
	}
	return out, nil
}

// ringPoints reads [x, y, ...] vertices, skipping ones without two numeric coordinates.
// A closing vertex equal to the first one is dropped, the ring is implicitly closed.
func ringPoints(vertices []octosql.Value) []point {
	points := make([]point, 0, len(vertices))
	for _, vertex := range vertices {
		if vertex.TypeID != octosql.TypeIDList || len(vertex.List) < 2 {
			continue
		}
		x, okX := vertex.List[0].AsFloat()
		y, okY := vertex.List[1].AsFloat()
		if !okX || !okY || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		points = append(points, point{x: x, y: y})
	}
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	return points
}

// polygonCentroid is the shoelace centroid of a polygon ring. Coordinates are shifted to the first vertex
// while summing, which keeps precision for small polygons far from the origin.
func polygonCentroid(points []point) (x, y float64, ok bool) {
	if len(points) < 3 {
		return 0, 0, false
	}
	origin := points[0]
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)

	var area, cx, cy float64
	for i := range points {
		cur := points[i]
		next := points[(i+1)%len(points)]
		minX, maxX = math.Min(minX, cur.x), math.Max(maxX, cur.x)
		minY, maxY = math.Min(minY, cur.y), math.Max(maxY, cur.y)

		x0, y0 := cur.x-origin.x, cur.y-origin.y
		x1, y1 := next.x-origin.x, next.y-origin.y
		cross := x0*y1 - x1*y0
		area += cross
		cx += (x0 + x1) * cross
		cy += (y0 + y1) * cross
	}
	area /= 2

	bbox := (maxX - minX) * (maxY - minY)
	if bbox == 0 || math.Abs(area) <= areaTolerance*bbox {
		return 0, 0, false
	}
	return cx/(6*area) + origin.x, cy/(6*area) + origin.y, true
}
