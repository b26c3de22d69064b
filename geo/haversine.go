package geo

import (
	"math"

	"github.com/cube2222/octogeo/octosql"
)

const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two points given in degrees.
func Haversine(lat0, lon0, lat1, lon1 float64) float64 {
	phi0 := lat0 * math.Pi / 180
	phi1 := lat1 * math.Pi / 180
	dPhi := (lat1 - lat0) * math.Pi / 180
	dLambda := (lon1 - lon0) * math.Pi / 180

	a := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi0)*math.Cos(phi1)*math.Pow(math.Sin(dLambda/2), 2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// haversineColumn takes the reference point (lat, lon) as parameters and x (lon), y (lat) columns.
func haversineColumn(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error) {
	lat0, _ := params[0].AsFloat()
	lon0, _ := params[1].AsFloat()
	xs, ys := args[0], args[1]

	out := make([]octosql.Value, len(xs))
	for i := range xs {
		lon, okLon := xs[i].AsFloat()
		lat, okLat := ys[i].AsFloat()
		if !okLon || !okLat {
			out[i] = octosql.NewNull()
			continue
		}
		out[i] = octosql.NewFloat(Haversine(lat0, lon0, lat, lon))
	}
	return out, nil
}
