package aggregates

import (
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var MinOverloads = extremumOverloads(-1)

var MaxOverloads = extremumOverloads(1)

func extremumOverloads(direction int) []physical.AggregateDescriptor {
	var out []physical.AggregateDescriptor
	for _, t := range []octosql.Type{octosql.Int, octosql.Float, octosql.String, octosql.Time} {
		out = append(out, physical.AggregateDescriptor{
			ArgumentType: t,
			OutputType:   octosql.Nullable(t),
			Prototype:    NewExtremumPrototype(direction),
		})
	}
	return out
}

// Extremum keeps the smallest value for direction -1 and the largest for 1.
type Extremum struct {
	direction int
	value     octosql.Value
	set       bool
}

func NewExtremumPrototype(direction int) func() nodes.Aggregate {
	return func() nodes.Aggregate {
		return &Extremum{
			direction: direction,
		}
	}
}

func (c *Extremum) Add(value octosql.Value) {
	if !c.set || value.Compare(c.value)*c.direction > 0 {
		c.value = value
		c.set = true
	}
}

func (c *Extremum) Trigger() octosql.Value {
	if !c.set {
		return octosql.NewNull()
	}
	return c.value
}
