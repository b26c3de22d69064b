package functions

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

func FunctionMap() map[string]physical.FunctionDetails {
	return map[string]physical.FunctionDetails{
		// Comparisons
		"=": {
			Description: "Returns true if the arguments are equal.",
			Descriptors: comparison(func(comp int) bool { return comp == 0 }),
		},
		"!=": {
			Description: "Returns true if the arguments aren't equal.",
			Descriptors: comparison(func(comp int) bool { return comp != 0 }),
		},
		"<": {
			Descriptors: comparison(func(comp int) bool { return comp < 0 }),
		},
		"<=": {
			Descriptors: comparison(func(comp int) bool { return comp <= 0 }),
		},
		">": {
			Descriptors: comparison(func(comp int) bool { return comp > 0 }),
		},
		">=": {
			Descriptors: comparison(func(comp int) bool { return comp >= 0 }),
		},
		"not": {
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Boolean},
					OutputType:    octosql.Boolean,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewBoolean(!values[0].Boolean), nil
					},
				},
			},
		},
		"is_null": {
			Description: "Returns true only if the argument is null.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Any},
					OutputType:    octosql.Boolean,
					Strict:        false,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewBoolean(values[0].TypeID == octosql.TypeIDNull), nil
					},
				},
			},
		},
		"is_not_null": {
			Description: "Returns true only if the argument is not null.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Any},
					OutputType:    octosql.Boolean,
					Strict:        false,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewBoolean(values[0].TypeID != octosql.TypeIDNull), nil
					},
				},
			},
		},
		// Arithmetic operators
		"+": {
			Descriptors: append(arithmetic(
				func(a, b int) int { return a + b },
				func(a, b float64) float64 { return a + b },
			), physical.FunctionDescriptor{
				ArgumentTypes: []octosql.Type{octosql.String, octosql.String},
				OutputType:    octosql.String,
				Strict:        true,
				Function: func(values []octosql.Value) (octosql.Value, error) {
					return octosql.NewString(values[0].Str + values[1].Str), nil
				},
			}),
		},
		"-": {
			Descriptors: append(arithmetic(
				func(a, b int) int { return a - b },
				func(a, b float64) float64 { return a - b },
			), physical.FunctionDescriptor{
				ArgumentTypes: []octosql.Type{octosql.Int},
				OutputType:    octosql.Int,
				Strict:        true,
				Function: func(values []octosql.Value) (octosql.Value, error) {
					return octosql.NewInt(-values[0].Int), nil
				},
			}, physical.FunctionDescriptor{
				ArgumentTypes: []octosql.Type{octosql.Float},
				OutputType:    octosql.Float,
				Strict:        true,
				Function: func(values []octosql.Value) (octosql.Value, error) {
					return octosql.NewFloat(-values[0].Float), nil
				},
			}),
		},
		"*": {
			Descriptors: arithmetic(
				func(a, b int) int { return a * b },
				func(a, b float64) float64 { return a * b },
			),
		},
		"/": {
			Description: "Divides the first argument by the second. The result is always a float.",
			Descriptors: []physical.FunctionDescriptor{
				{
					TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
						if len(types) != 2 || !isNumeric(types[0]) || !isNumeric(types[1]) {
							return octosql.Type{}, false
						}
						return octosql.Float, true
					},
					Strict: true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						a, _ := values[0].AsFloat()
						b, _ := values[1].AsFloat()
						return octosql.NewFloat(a / b), nil
					},
				},
			},
		},
		// Math functions
		"abs": {
			Description: "Returns absolute value of argument.",
			Descriptors: unaryNumeric(
				func(a int) int {
					if a < 0 {
						return -a
					}
					return a
				},
				math.Abs,
			),
		},
		"floor": {
			Description: "Returns floor of argument.",
			Descriptors: unaryNumeric(func(a int) int { return a }, math.Floor),
		},
		"ceil": {
			Description: "Returns ceiling of argument.",
			Descriptors: unaryNumeric(func(a int) int { return a }, math.Ceil),
		},
		"round": {
			Description: "Rounds the argument half away from zero.",
			Descriptors: unaryNumeric(func(a int) int { return a }, math.Round),
		},
		"sqrt": {
			Description: "Returns square root of argument.",
			Descriptors: []physical.FunctionDescriptor{
				{
					TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
						if len(types) != 1 || !isNumeric(types[0]) {
							return octosql.Type{}, false
						}
						return octosql.Float, true
					},
					Strict: true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						a, _ := values[0].AsFloat()
						return octosql.NewFloat(math.Sqrt(a)), nil
					},
				},
			},
		},
		// String functions
		"upper": {
			Description: "Returns the argument in upper case.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.String},
					OutputType:    octosql.String,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewString(strings.ToUpper(values[0].Str)), nil
					},
				},
			},
		},
		"lower": {
			Description: "Returns the argument in lower case.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.String},
					OutputType:    octosql.String,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewString(strings.ToLower(values[0].Str)), nil
					},
				},
			},
		},
		"len": {
			Description: "Returns the length of a string or list.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.String},
					OutputType:    octosql.Int,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewInt(len(values[0].Str)), nil
					},
				},
				{
					TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
						if len(types) != 1 || types[0].TypeID != octosql.TypeIDList {
							return octosql.Type{}, false
						}
						return octosql.Int, true
					},
					Strict: true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewInt(len(values[0].List)), nil
					},
				},
			},
		},
		"concat": {
			Description: "Concatenates all arguments.",
			Descriptors: []physical.FunctionDescriptor{
				{
					TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
						for _, t := range types {
							if t.Is(octosql.String) != octosql.TypeRelationIs {
								return octosql.Type{}, false
							}
						}
						return octosql.String, true
					},
					Strict: true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						var sb strings.Builder
						for i := range values {
							sb.WriteString(values[i].Str)
						}
						return octosql.NewString(sb.String()), nil
					},
				},
			},
		},
		// Date parts
		"year": {
			Description: "Returns the year of the given time.",
			Descriptors: timePart(func(t time.Time) int { return t.Year() }),
		},
		"month": {
			Descriptors: timePart(func(t time.Time) int { return int(t.Month()) }),
		},
		"day": {
			Descriptors: timePart(func(t time.Time) int { return t.Day() }),
		},
		// Conversions
		"int": {
			Description: "Converts the argument to an integer. Floats are truncated toward zero, unparsable values become null.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Int},
					OutputType:    octosql.Int,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return values[0], nil
					},
				},
				{
					ArgumentTypes: []octosql.Type{octosql.Float},
					OutputType:    octosql.Nullable(octosql.Int),
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						f := values[0].Float
						if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
							return octosql.NewNull(), nil
						}
						return octosql.NewInt(int(f)), nil
					},
				},
				{
					ArgumentTypes: []octosql.Type{octosql.Boolean},
					OutputType:    octosql.Int,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						if values[0].Boolean {
							return octosql.NewInt(1), nil
						}
						return octosql.NewInt(0), nil
					},
				},
				{
					ArgumentTypes: []octosql.Type{octosql.String},
					OutputType:    octosql.Nullable(octosql.Int),
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						i, err := strconv.Atoi(strings.TrimSpace(values[0].Str))
						if err != nil {
							return octosql.NewNull(), nil
						}
						return octosql.NewInt(i), nil
					},
				},
			},
		},
		"float": {
			Description: "Converts the argument to a float, unparsable values become null.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Float},
					OutputType:    octosql.Float,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return values[0], nil
					},
				},
				{
					ArgumentTypes: []octosql.Type{octosql.Int},
					OutputType:    octosql.Float,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewFloat(float64(values[0].Int)), nil
					},
				},
				{
					ArgumentTypes: []octosql.Type{octosql.String},
					OutputType:    octosql.Nullable(octosql.Float),
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						f, err := strconv.ParseFloat(strings.TrimSpace(values[0].Str), 64)
						if err != nil {
							return octosql.NewNull(), nil
						}
						return octosql.NewFloat(f), nil
					},
				},
			},
		},
		"string": {
			Description: "Converts the argument to a string. Floats use the shortest representation that round-trips.",
			Descriptors: []physical.FunctionDescriptor{
				{
					ArgumentTypes: []octosql.Type{octosql.Any},
					OutputType:    octosql.String,
					Strict:        true,
					Function: func(values []octosql.Value) (octosql.Value, error) {
						return octosql.NewString(AsString(values[0])), nil
					},
				},
			},
		},
	}
}

// AsString formats a value as plain text, without quoting strings.
func AsString(value octosql.Value) string {
	switch value.TypeID {
	case octosql.TypeIDString:
		return value.Str
	case octosql.TypeIDInt:
		return strconv.Itoa(value.Int)
	case octosql.TypeIDFloat:
		return octosql.FormatFloat(value.Float)
	case octosql.TypeIDBoolean:
		return strconv.FormatBool(value.Boolean)
	case octosql.TypeIDTime:
		return value.Time.Format(time.RFC3339Nano)
	}
	return value.String()
}

func isNumeric(t octosql.Type) bool {
	return t.Is(octosql.TypeSum(octosql.Int, octosql.Float)) == octosql.TypeRelationIs
}

func comparison(test func(comp int) bool) []physical.FunctionDescriptor {
	return []physical.FunctionDescriptor{
		{
			TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
				if len(types) != 2 {
					return octosql.Type{}, false
				}
				if isNumeric(types[0]) && isNumeric(types[1]) {
					return octosql.Boolean, true
				}
				if !types[0].Equals(types[1]) {
					return octosql.Type{}, false
				}
				return octosql.Boolean, true
			},
			Strict: true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				return octosql.NewBoolean(test(values[0].Compare(values[1]))), nil
			},
		},
	}
}

func arithmetic(intOp func(a, b int) int, floatOp func(a, b float64) float64) []physical.FunctionDescriptor {
	return []physical.FunctionDescriptor{
		{
			ArgumentTypes: []octosql.Type{octosql.Int, octosql.Int},
			OutputType:    octosql.Int,
			Strict:        true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				return octosql.NewInt(intOp(values[0].Int, values[1].Int)), nil
			},
		},
		{
			TypeFn: func(types []octosql.Type) (octosql.Type, bool) {
				if len(types) != 2 || !isNumeric(types[0]) || !isNumeric(types[1]) {
					return octosql.Type{}, false
				}
				return octosql.Float, true
			},
			Strict: true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				a, _ := values[0].AsFloat()
				b, _ := values[1].AsFloat()
				return octosql.NewFloat(floatOp(a, b)), nil
			},
		},
	}
}

func unaryNumeric(intOp func(a int) int, floatOp func(a float64) float64) []physical.FunctionDescriptor {
	return []physical.FunctionDescriptor{
		{
			ArgumentTypes: []octosql.Type{octosql.Int},
			OutputType:    octosql.Int,
			Strict:        true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				return octosql.NewInt(intOp(values[0].Int)), nil
			},
		},
		{
			ArgumentTypes: []octosql.Type{octosql.Float},
			OutputType:    octosql.Float,
			Strict:        true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				return octosql.NewFloat(floatOp(values[0].Float)), nil
			},
		},
	}
}

func timePart(part func(t time.Time) int) []physical.FunctionDescriptor {
	return []physical.FunctionDescriptor{
		{
			ArgumentTypes: []octosql.Type{octosql.Time},
			OutputType:    octosql.Int,
			Strict:        true,
			Function: func(values []octosql.Value) (octosql.Value, error) {
				return octosql.NewInt(part(values[0].Time)), nil
			},
		},
	}
}
