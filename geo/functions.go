// Package geo provides geospatial column functions: polygon centroids, great-circle distances and value bucketing.
package geo

import (
	"github.com/cube2222/octogeo/logical"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var numeric = octosql.TypeSum(octosql.Int, octosql.Float)

func UserFunctions() map[string]physical.UserFunctionDescriptor {
	return map[string]physical.UserFunctionDescriptor{
		"centroid": {
			Description:   "Area-weighted centroid of a polygon ring given as a list of [x, y] vertices. Degenerate rings give null coordinates.",
			ArgumentTypes: []octosql.Type{octosql.NewListType(octosql.NewListType(numeric))},
			Function:      centroidColumn,
		},
		"haversine": {
			Description:    "Great-circle distance in kilometers from the (lat, lon) parameter point to the x (lon), y (lat) arguments.",
			ArgumentTypes:  []octosql.Type{numeric, numeric},
			ParameterTypes: []octosql.Type{numeric, numeric},
			Function:       haversineColumn,
		},
	}
}

// Centroid computes the centroid struct {x, y} of a ring column.
func Centroid(ring logical.Expression) logical.Expression {
	return logical.NewUserFunction("centroid", octosql.Nullable(CentroidType), nil, ring)
}

// Distance computes the distance in kilometers from the reference point to the x (lon), y (lat) columns.
func Distance(lat, lon float64, x, y logical.Expression) logical.Expression {
	return logical.NewUserFunction(
		"haversine",
		octosql.Nullable(octosql.Float),
		[]octosql.Value{octosql.NewFloat(lat), octosql.NewFloat(lon)},
		x, y,
	)
}

// Bucket labels each value with the fixed width range containing it, as "{start}-{end}".
// The result is named after the source column with a _bucket suffix. Width must be a positive int or float64,
// otherwise the expression fails to typecheck with a SchemaError.
func Bucket(expr logical.Expression, width interface{}) logical.Expression {
	name := expr.OutputName() + "_bucket"
	w, err := bucketWidth(width)
	if err != nil {
		return logical.Fail(err).Alias(name)
	}
	index := bucketIndex(expr, w)
	return logical.Concat(
		index.Mul(w).Cast(octosql.String),
		logical.Lit("-"),
		index.Add(logical.Lit(1)).Mul(w).Cast(octosql.String),
	).Alias(name)
}

// BucketStart is the numeric start of the bucket, usable for sorting buckets in numeric order.
func BucketStart(expr logical.Expression, width interface{}) logical.Expression {
	name := expr.OutputName() + "_bucket_start"
	w, err := bucketWidth(width)
	if err != nil {
		return logical.Fail(err).Alias(name)
	}
	return bucketIndex(expr, w).Mul(w).Alias(name)
}

func bucketIndex(expr logical.Expression, w logical.Expression) logical.Expression {
	return expr.Div(w).Floor().Cast(octosql.Int)
}

func bucketWidth(width interface{}) (logical.Expression, error) {
	switch width := width.(type) {
	case int:
		if width > 0 {
			return logical.Lit(width), nil
		}
	case float64:
		if width > 0 {
			return logical.Lit(width), nil
		}
	default:
		return logical.Expression{}, octosql.SchemaErrorf("unsupported bucket width type: %T", width)
	}
	return logical.Expression{}, octosql.SchemaErrorf("bucket width must be positive, got %v", width)
}
