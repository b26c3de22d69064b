package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cube2222/octogeo/octosql"
)

func TestAggregates(t *testing.T) {
	tests := []struct {
		name      string
		aggregate string
		inputs    []octosql.Value
		want      octosql.Value
	}{
		{name: "count", aggregate: "count", inputs: []octosql.Value{octosql.NewInt(1), octosql.NewInt(1)}, want: octosql.NewInt(2)},
		{name: "count empty", aggregate: "count", want: octosql.NewInt(0)},
		{name: "mean ints", aggregate: "mean", inputs: []octosql.Value{octosql.NewInt(1), octosql.NewInt(2)}, want: octosql.NewFloat(1.5)},
		{name: "mean empty", aggregate: "mean", want: octosql.NewNull()},
		{name: "sum floats", aggregate: "sum", inputs: []octosql.Value{octosql.NewFloat(0.5), octosql.NewFloat(0.25)}, want: octosql.NewFloat(0.75)},
		{name: "sum empty", aggregate: "sum", want: octosql.NewNull()},
		{name: "min", aggregate: "min", inputs: []octosql.Value{octosql.NewInt(3), octosql.NewInt(-1), octosql.NewInt(2)}, want: octosql.NewInt(-1)},
		{name: "max", aggregate: "max", inputs: []octosql.Value{octosql.NewString("a"), octosql.NewString("c"), octosql.NewString("b")}, want: octosql.NewString("c")},
		{name: "max empty", aggregate: "max", want: octosql.NewNull()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, ok := AggregateMap()[tt.aggregate]
			assert.True(t, ok)
			descriptor := details.Descriptors[0]
			if len(tt.inputs) > 0 && tt.inputs[0].TypeID == octosql.TypeIDFloat && len(details.Descriptors) > 1 {
				descriptor = details.Descriptors[1]
			}
			aggregate := descriptor.Prototype()
			for _, input := range tt.inputs {
				aggregate.Add(input)
			}
			assert.Equal(t, tt.want, aggregate.Trigger())
		})
	}
}

func TestPrototypesAreIndependent(t *testing.T) {
	prototype := NewAveragePrototype()
	a, b := prototype(), prototype()
	a.Add(octosql.NewFloat(10))
	assert.Equal(t, octosql.NewFloat(10), a.Trigger())
	assert.Equal(t, octosql.NewNull(), b.Trigger())
}
