package octosql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ZeroValue = Value{}

// Value is a single cell. Struct values are positional, field names live in the column Type.
type Value struct {
	TypeID  TypeID
	Int     int
	Float   float64
	Boolean bool
	Str     string
	Time    time.Time
	List    []Value
	Struct  []Value
}

func NewNull() Value {
	return Value{
		TypeID: TypeIDNull,
	}
}

func NewInt(value int) Value {
	return Value{
		TypeID: TypeIDInt,
		Int:    value,
	}
}

func NewFloat(value float64) Value {
	return Value{
		TypeID: TypeIDFloat,
		Float:  value,
	}
}

func NewBoolean(value bool) Value {
	return Value{
		TypeID:  TypeIDBoolean,
		Boolean: value,
	}
}

func NewString(value string) Value {
	return Value{
		TypeID: TypeIDString,
		Str:    value,
	}
}

func NewTime(value time.Time) Value {
	return Value{
		TypeID: TypeIDTime,
		Time:   value,
	}
}

func NewList(value []Value) Value {
	return Value{
		TypeID: TypeIDList,
		List:   value,
	}
}

func NewStruct(values []Value) Value {
	return Value{
		TypeID: TypeIDStruct,
		Struct: values,
	}
}

func (value Value) IsNull() bool {
	return value.TypeID == TypeIDNull
}

// Type infers the type of a value. Struct fields get positional names, f0, f1 and so on.
func (value Value) Type() Type {
	switch value.TypeID {
	case TypeIDList:
		element := Null
		for i, item := range value.List {
			if i == 0 {
				element = item.Type()
			} else {
				element = TypeSum(element, item.Type())
			}
		}
		return NewListType(element)
	case TypeIDStruct:
		fields := make([]StructField, len(value.Struct))
		for i := range value.Struct {
			fields[i] = StructField{
				Name: fmt.Sprintf("f%d", i),
				Type: value.Struct[i].Type(),
			}
		}
		return NewStructType(fields...)
	}
	return Type{TypeID: value.TypeID}
}

// AsFloat returns the numeric value of an Int or Float.
func (value Value) AsFloat() (float64, bool) {
	switch value.TypeID {
	case TypeIDInt:
		return float64(value.Int), true
	case TypeIDFloat:
		return value.Float, true
	}
	return 0, false
}

func (value Value) Compare(other Value) int {
	// The runtime types may be different for a union.
	// Ints and floats compare numerically.
	if value.TypeID != other.TypeID {
		if a, ok := value.AsFloat(); ok {
			if b, ok := other.AsFloat(); ok {
				return compareFloats(a, b)
			}
		}
		if value.TypeID < other.TypeID {
			return -1
		} else {
			return 1
		}
	}

	switch value.TypeID {
	case TypeIDNull:
		return 0

	case TypeIDInt:
		if value.Int < other.Int {
			return -1
		} else if value.Int > other.Int {
			return 1
		} else {
			return 0
		}

	case TypeIDFloat:
		return compareFloats(value.Float, other.Float)

	case TypeIDBoolean:
		if value.Boolean == other.Boolean {
			return 0
		} else if !value.Boolean {
			return -1
		} else {
			return 1
		}

	case TypeIDString:
		return strings.Compare(value.Str, other.Str)

	case TypeIDTime:
		if value.Time.Before(other.Time) {
			return -1
		} else if value.Time.After(other.Time) {
			return 1
		} else {
			return 0
		}

	case TypeIDList:
		return compareSlices(value.List, other.List)

	case TypeIDStruct:
		return compareSlices(value.Struct, other.Struct)

	case TypeIDUnion:
		panic("can't have union type as concrete value instance")
	default:
		panic("impossible, type switch bug")
	}
}

// NaN sorts after every other float and equals itself, so grouping and sorting stay total.
func compareFloats(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareSlices(left, right []Value) int {
	maxLen := len(left)
	if len(right) > maxLen {
		maxLen = len(right)
	}

	for i := 0; i < maxLen; i++ {
		if i == len(left) {
			return -1
		} else if i == len(right) {
			return 1
		}

		if comp := left[i].Compare(right[i]); comp != 0 {
			return comp
		}
	}

	return 0
}

// Equal is strict: values of different concrete types are never equal.
func (value Value) Equal(other Value) bool {
	if value.TypeID != other.TypeID {
		return false
	}
	return value.Compare(other) == 0
}

func (value Value) String() string {
	builder := &strings.Builder{}
	value.append(builder)
	return builder.String()
}

func (value Value) append(builder *strings.Builder) {
	switch value.TypeID {
	case TypeIDNull:
		builder.WriteString("null")

	case TypeIDInt:
		builder.WriteString(strconv.Itoa(value.Int))

	case TypeIDFloat:
		builder.WriteString(FormatFloat(value.Float))

	case TypeIDBoolean:
		builder.WriteString(fmt.Sprint(value.Boolean))

	case TypeIDString:
		builder.WriteString(fmt.Sprintf("'%s'", value.Str))

	case TypeIDTime:
		builder.WriteString(value.Time.Format(time.RFC3339))

	case TypeIDList:
		builder.WriteString("[")
		for i, v := range value.List {
			v.append(builder)
			if i != len(value.List)-1 {
				builder.WriteString(", ")
			}
		}
		builder.WriteString("]")

	case TypeIDStruct:
		builder.WriteString("{")
		for i, v := range value.Struct {
			v.append(builder)
			if i != len(value.Struct)-1 {
				builder.WriteString(", ")
			}
		}
		builder.WriteString("}")

	case TypeIDUnion:
		panic("can't have union type as concrete value instance")
	default:
		panic("impossible, type switch bug")
	}
}

// FormatFloat uses the shortest decimal representation that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (value Value) ToRawGoValue() interface{} {
	switch value.TypeID {
	case TypeIDNull:
		return nil
	case TypeIDInt:
		return value.Int
	case TypeIDFloat:
		return value.Float
	case TypeIDBoolean:
		return value.Boolean
	case TypeIDString:
		return value.Str
	case TypeIDTime:
		return value.Time
	case TypeIDList:
		out := make([]interface{}, len(value.List))
		for i := range value.List {
			out[i] = value.List[i].ToRawGoValue()
		}
		return out
	case TypeIDStruct:
		out := make([]interface{}, len(value.Struct))
		for i := range value.Struct {
			out[i] = value.Struct[i].ToRawGoValue()
		}
		return out
	default:
		panic("invalid octosql.Value to get Raw Go value for")
	}
}
