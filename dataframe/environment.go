package dataframe

import (
	"github.com/cube2222/octogeo/aggregates"
	"github.com/cube2222/octogeo/functions"
	"github.com/cube2222/octogeo/geo"
	"github.com/cube2222/octogeo/physical"
)

// DefaultEnvironment has all built-in functions, aggregates and the geospatial user functions registered.
func DefaultEnvironment(parallelism int) physical.Environment {
	return physical.Environment{
		Functions:     functions.FunctionMap(),
		Aggregates:    aggregates.AggregateMap(),
		UserFunctions: geo.UserFunctions(),
		Parallelism:   parallelism,
	}
}
