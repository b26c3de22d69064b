// Package analysis holds the building footprint reports.
package analysis

import (
	"github.com/cube2222/octogeo/dataframe"
	"github.com/cube2222/octogeo/datetime"
	"github.com/cube2222/octogeo/geo"
	"github.com/cube2222/octogeo/logical"
)

// Reference is the point distances are measured from.
type Reference struct {
	Latitude  float64
	Longitude float64
}

var SohoHouse = Reference{
	Latitude:  22.2878391,
	Longitude: 114.1441448,
}

const CreationDateFormat = "%FT%H:%M:%SZ"

// Coords is the centroid of the outer ring of the footprint.
func Coords() logical.Expression {
	return geo.Centroid(logical.Col("geometry").Field("coordinates").Get(0)).Alias("coords")
}

// CreationYear is the year of the record creation date, null when the date doesn't parse.
func CreationYear() logical.Expression {
	return logical.Col("RECORDCREATIONDATE").
		ParseTime(datetime.Options{
			Format:    CreationDateFormat,
			Ambiguous: datetime.AmbiguousRaise,
		}).
		Year().
		Alias("creation_year")
}

// DistanceKm needs the coords column.
func DistanceKm(ref Reference) logical.Expression {
	coords := logical.Col("coords")
	return geo.Distance(ref.Latitude, ref.Longitude, coords.Field("x"), coords.Field("y")).Alias("distance_km")
}

// Features derives coords, creation_year and distance_km.
func Features(ref Reference) []Step {
	return []Step{
		func(lf dataframe.LazyFrame) dataframe.LazyFrame {
			return lf.WithColumns(Coords(), CreationYear())
		},
		func(lf dataframe.LazyFrame) dataframe.LazyFrame {
			return lf.WithColumns(DistanceKm(ref))
		},
	}
}
