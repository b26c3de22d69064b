package octosql

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValueCompare(t *testing.T) {
	tests := []struct {
		name  string
		left  Value
		right Value
		want  int
	}{
		{name: "ints", left: NewInt(1), right: NewInt(2), want: -1},
		{name: "floats", left: NewFloat(2.5), right: NewFloat(2.5), want: 0},
		{name: "mixed numeric", left: NewInt(3), right: NewFloat(2.5), want: 1},
		{name: "null first", left: NewNull(), right: NewInt(-100), want: -1},
		{name: "strings", left: NewString("10000-11000"), right: NewString("9000-10000"), want: -1},
		{name: "nan last", left: NewFloat(math.NaN()), right: NewFloat(math.Inf(1)), want: 1},
		{name: "nan equal", left: NewFloat(math.NaN()), right: NewFloat(math.NaN()), want: 0},
		{
			name:  "times",
			left:  NewTime(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)),
			right: NewTime(time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)),
			want:  -1,
		},
		{
			name:  "lists",
			left:  NewList([]Value{NewFloat(1), NewFloat(2)}),
			right: NewList([]Value{NewFloat(1)}),
			want:  1,
		},
		{
			name:  "structs",
			left:  NewStruct([]Value{NewFloat(1), NewNull()}),
			right: NewStruct([]Value{NewFloat(1), NewFloat(0)}),
			want:  -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.left.Compare(tt.right))
			assert.Equal(t, -tt.want, tt.right.Compare(tt.left))
		})
	}
}

func TestValueEqualIsStrict(t *testing.T) {
	assert.False(t, NewInt(1).Equal(NewFloat(1)))
	assert.True(t, NewNull().Equal(NewNull()))
	assert.True(t, NewList([]Value{NewString("a")}).Equal(NewList([]Value{NewString("a")})))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "1000", NewFloat(1000).String())
	assert.Equal(t, "0.5", NewFloat(0.5).String())
	assert.Equal(t, "[1, null]", NewList([]Value{NewInt(1), NewNull()}).String())
	assert.Equal(t, "{1, 'a'}", NewStruct([]Value{NewInt(1), NewString("a")}).String())
}

func TestErrorKinds(t *testing.T) {
	err := errors.Wrap(SchemaErrorf("unknown column %s", "x"), "couldn't typecheck filter")
	assert.True(t, IsSchemaError(err))
	assert.False(t, IsParseError(err))
	assert.Contains(t, err.Error(), "schema error: unknown column x")

	assert.True(t, IsIOError(WrapIOError(errors.New("disk on fire"), "couldn't open file")))
	assert.Nil(t, WrapIOError(nil, "unused"))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}
