package aggregates

import (
	"github.com/cube2222/octogeo/physical"
)

func AggregateMap() map[string]physical.AggregateDetails {
	return map[string]physical.AggregateDetails{
		"count": {
			Description: "Counts the non-null values in the group.",
			Descriptors: CountOverloads,
		},
		"sum": {
			Description: "Sums the non-null values in the group. Null if there are none.",
			Descriptors: SumOverloads,
		},
		"mean": {
			Description: "Averages the non-null values in the group. Null if there are none.",
			Descriptors: AverageOverloads,
		},
		"min": {
			Descriptors: MinOverloads,
		},
		"max": {
			Descriptors: MaxOverloads,
		},
	}
}
