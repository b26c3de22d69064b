package parquet

import (
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/cube2222/octogeo/octosql"
)

// marshalNested encodes lists and structs as JSON arrays. Structs are positional.
func marshalNested(value octosql.Value) []byte {
	var arena fastjson.Arena
	return toJSON(&arena, value).MarshalTo(nil)
}

func toJSON(arena *fastjson.Arena, value octosql.Value) *fastjson.Value {
	switch value.TypeID {
	case octosql.TypeIDInt:
		return arena.NewNumberInt(value.Int)
	case octosql.TypeIDFloat:
		return arena.NewNumberString(strconv.FormatFloat(value.Float, 'g', -1, 64))
	case octosql.TypeIDBoolean:
		if value.Boolean {
			return arena.NewTrue()
		}
		return arena.NewFalse()
	case octosql.TypeIDString:
		return arena.NewString(value.Str)
	case octosql.TypeIDTime:
		return arena.NewString(value.Time.Format(time.RFC3339Nano))
	case octosql.TypeIDList, octosql.TypeIDStruct:
		items := value.List
		if value.TypeID == octosql.TypeIDStruct {
			items = value.Struct
		}
		arr := arena.NewArray()
		for i := range items {
			arr.SetArrayItem(i, toJSON(arena, items[i]))
		}
		return arr
	}
	return arena.NewNull()
}

func unmarshalNested(t octosql.Type, data []byte) (octosql.Value, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return octosql.ZeroValue, octosql.WrapParseError(err, "couldn't parse nested value")
	}
	return fromJSON(t, v)
}

func fromJSON(t octosql.Type, v *fastjson.Value) (octosql.Value, error) {
	if v.Type() == fastjson.TypeNull {
		return octosql.NewNull(), nil
	}
	t = octosql.WithoutNull(t)
	switch t.TypeID {
	case octosql.TypeIDInt:
		i, err := v.Int()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected an int")
		}
		return octosql.NewInt(i), nil
	case octosql.TypeIDFloat:
		f, err := v.Float64()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a float")
		}
		return octosql.NewFloat(f), nil
	case octosql.TypeIDBoolean:
		b, err := v.Bool()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a boolean")
		}
		return octosql.NewBoolean(b), nil
	case octosql.TypeIDString:
		s, err := v.StringBytes()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a string")
		}
		return octosql.NewString(string(s)), nil
	case octosql.TypeIDTime:
		s, err := v.StringBytes()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a time string")
		}
		parsed, err := time.Parse(time.RFC3339Nano, string(s))
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "invalid time")
		}
		return octosql.NewTime(parsed), nil
	case octosql.TypeIDList:
		arr, err := v.Array()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a list")
		}
		values := make([]octosql.Value, len(arr))
		for i := range arr {
			if values[i], err = fromJSON(*t.List.Element, arr[i]); err != nil {
				return octosql.ZeroValue, err
			}
		}
		return octosql.NewList(values), nil
	case octosql.TypeIDStruct:
		arr, err := v.Array()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "expected a struct")
		}
		if len(arr) != len(t.Struct.Fields) {
			return octosql.ZeroValue, octosql.ParseErrorf("expected %d struct fields, got %d", len(t.Struct.Fields), len(arr))
		}
		values := make([]octosql.Value, len(arr))
		for i := range arr {
			if values[i], err = fromJSON(t.Struct.Fields[i].Type, arr[i]); err != nil {
				return octosql.ZeroValue, err
			}
		}
		return octosql.NewStruct(values), nil
	}
	return inferJSON(v)
}

// inferJSON decodes values of union types by their JSON type.
func inferJSON(v *fastjson.Value) (octosql.Value, error) {
	switch v.Type() {
	case fastjson.TypeNumber:
		if i, err := v.Int(); err == nil {
			return octosql.NewInt(i), nil
		}
		return fromJSON(octosql.Float, v)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return fromJSON(octosql.Boolean, v)
	case fastjson.TypeString:
		return fromJSON(octosql.String, v)
	case fastjson.TypeArray:
		arr, _ := v.Array()
		values := make([]octosql.Value, len(arr))
		for i := range arr {
			value, err := inferJSON(arr[i])
			if err != nil {
				return octosql.ZeroValue, err
			}
			values[i] = value
		}
		return octosql.NewList(values), nil
	}
	return octosql.ZeroValue, octosql.ParseErrorf("unsupported nested JSON value of type %s", v.Type())
}
