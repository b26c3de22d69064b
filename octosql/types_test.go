package octosql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeIs(t *testing.T) {
	ring := NewListType(NewListType(Float))

	tests := []struct {
		t1   Type
		t2   Type
		want TypeRelation
	}{
		{t1: Int, t2: Int, want: TypeRelationIs},
		{t1: Int, t2: Float, want: TypeRelationIsnt},
		{t1: Int, t2: Any, want: TypeRelationIs},
		{t1: Int, t2: Nullable(Int), want: TypeRelationIs},
		{t1: Nullable(Int), t2: Int, want: TypeRelationMaybe},
		{t1: Null, t2: Nullable(String), want: TypeRelationIs},
		{t1: ring, t2: NewListType(NewListType(Float)), want: TypeRelationIs},
		{t1: ring, t2: NewListType(Float), want: TypeRelationIsnt},
		{
			t1:   NewStructType(StructField{Name: "x", Type: Float}),
			t2:   NewStructType(StructField{Name: "x", Type: Nullable(Float)}),
			want: TypeRelationIs,
		},
		{
			t1:   NewStructType(StructField{Name: "x", Type: Float}),
			t2:   NewStructType(StructField{Name: "y", Type: Float}),
			want: TypeRelationIsnt,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.t1.Is(tt.t2), "%s is %s", tt.t1, tt.t2)
		})
	}
}

func TestWithoutNull(t *testing.T) {
	assert.True(t, WithoutNull(Nullable(Int)).Equals(Int))
	assert.True(t, WithoutNull(Null).Equals(Null))
	assert.True(t, WithoutNull(TypeSum(TypeSum(Int, String), Null)).Equals(TypeSum(Int, String)))
	assert.True(t, Nullable(Float).MayBeNull())
	assert.False(t, Float.MayBeNull())
}

func TestTypeSumIsIdempotent(t *testing.T) {
	sum := TypeSum(Int, Null)
	assert.True(t, TypeSum(sum, Null).Equals(sum))
	assert.True(t, TypeSum(sum, Int).Equals(sum))
	assert.Len(t, sum.Union.Alternatives, 2)
}

func TestFieldIndex(t *testing.T) {
	s := NewStructType(StructField{Name: "type", Type: String}, StructField{Name: "coordinates", Type: Any})
	assert.Equal(t, 1, s.FieldIndex("coordinates"))
	assert.Equal(t, -1, s.FieldIndex("bbox"))
}
