package aggregates

import (
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var SumOverloads = []physical.AggregateDescriptor{
	{
		ArgumentType: octosql.Int,
		OutputType:   octosql.Nullable(octosql.Int),
		Prototype:    NewSumIntPrototype(),
	},
	{
		ArgumentType: octosql.Float,
		OutputType:   octosql.Nullable(octosql.Float),
		Prototype:    NewSumFloatPrototype(),
	},
}

type SumInt struct {
	sum   int
	count int
}

func NewSumIntPrototype() func() nodes.Aggregate {
	return func() nodes.Aggregate {
		return &SumInt{}
	}
}

func (c *SumInt) Add(value octosql.Value) {
	c.sum += value.Int
	c.count++
}

func (c *SumInt) Trigger() octosql.Value {
	if c.count == 0 {
		return octosql.NewNull()
	}
	return octosql.NewInt(c.sum)
}

type SumFloat struct {
	sum   float64
	count int
}

func NewSumFloatPrototype() func() nodes.Aggregate {
	return func() nodes.Aggregate {
		return &SumFloat{}
	}
}

func (c *SumFloat) Add(value octosql.Value) {
	c.sum += value.Float
	c.count++
}

func (c *SumFloat) Trigger() octosql.Value {
	if c.count == 0 {
		return octosql.NewNull()
	}
	return octosql.NewFloat(c.sum)
}
