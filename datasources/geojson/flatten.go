// Package geojson flattens feature collections into tables.
package geojson

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

const GeometryColumn = "geometry"

var (
	CoordinatesType = octosql.NewListType(octosql.NewListType(octosql.NewListType(octosql.Float)))
	GeometryType    = octosql.NewStructType(
		octosql.StructField{Name: "type", Type: octosql.String},
		octosql.StructField{Name: "coordinates", Type: CoordinatesType},
	)
)

// ReadFile reads and flattens a feature collection document.
func ReadFile(path string) (*execution.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, octosql.WrapIOError(err, "couldn't read geojson file")
	}
	return Flatten(data)
}

// Flatten turns each feature into a row. Properties become columns in first-seen order, missing ones are null.
// The geometry is the last column, a struct of its type and polygon rings.
func Flatten(data []byte) (*execution.Table, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, octosql.WrapParseError(err, "couldn't parse json")
	}
	if v.Type() != fastjson.TypeObject {
		return nil, octosql.ParseErrorf("expected a JSON object, got %s", v.Type())
	}
	featuresValue := v.Get("features")
	if featuresValue == nil || featuresValue.Type() != fastjson.TypeArray {
		return nil, octosql.ParseErrorf("expected a features array")
	}
	features, _ := featuresValue.Array()

	var columns []*columnBuilder
	columnIndex := make(map[string]int)
	geometries := make([]octosql.Value, len(features))
	geometryNullable := false

	for row, feature := range features {
		if feature.Type() != fastjson.TypeObject {
			return nil, octosql.ParseErrorf("feature %d isn't an object", row)
		}
		properties := feature.Get("properties")
		if properties == nil {
			return nil, octosql.ParseErrorf("feature %d has no properties", row)
		}
		switch properties.Type() {
		case fastjson.TypeObject:
			o, _ := properties.Object()
			var visitErr error
			o.Visit(func(key []byte, value *fastjson.Value) {
				if visitErr != nil {
					return
				}
				name := string(key)
				if name == GeometryColumn {
					visitErr = octosql.ParseErrorf("feature %d has a property named %s", row, GeometryColumn)
					return
				}
				index, ok := columnIndex[name]
				if !ok {
					index = len(columns)
					columnIndex[name] = index
					columns = append(columns, newColumnBuilder(name, row))
				}
				if err := columns[index].add(row, value); err != nil {
					visitErr = err
				}
			})
			if visitErr != nil {
				return nil, visitErr
			}
		case fastjson.TypeNull:
		default:
			return nil, octosql.ParseErrorf("feature %d properties isn't an object", row)
		}

		geometry := feature.Get("geometry")
		if geometry == nil {
			return nil, octosql.ParseErrorf("feature %d has no geometry", row)
		}
		value, err := getGeometry(geometry)
		if err != nil {
			return nil, octosql.WrapParseError(err, "invalid geometry of feature "+strconv.Itoa(row))
		}
		if value.IsNull() {
			geometryNullable = true
		}
		geometries[row] = value
	}

	out := make([]*execution.Column, 0, len(columns)+1)
	for _, column := range columns {
		out = append(out, column.build(len(features)))
	}
	geometryType := GeometryType
	if geometryNullable {
		geometryType = octosql.Nullable(geometryType)
	}
	out = append(out, execution.NewColumn(GeometryColumn, geometryType, geometries))

	return execution.NewTable(out...)
}

type columnBuilder struct {
	name     string
	t        octosql.TypeID
	nullable bool
	values   []octosql.Value
}

// newColumnBuilder creates a column first seen at the given row. All earlier rows are missing the property.
func newColumnBuilder(name string, row int) *columnBuilder {
	values := make([]octosql.Value, row)
	for i := range values {
		values[i] = octosql.NewNull()
	}
	return &columnBuilder{
		name:     name,
		t:        octosql.TypeIDNull,
		nullable: row > 0,
		values:   values,
	}
}

func (c *columnBuilder) add(row int, v *fastjson.Value) error {
	if len(c.values) > row {
		return octosql.ParseErrorf("duplicate property %s in feature %d", c.name, row)
	}
	c.pad(row)
	value, err := getScalar(v)
	if err != nil {
		return octosql.WrapParseError(err, "invalid value of property "+c.name)
	}

	switch {
	case value.TypeID == octosql.TypeIDNull:
		c.nullable = true
	case c.t == octosql.TypeIDNull || c.t == value.TypeID:
		c.t = value.TypeID
	case c.t == octosql.TypeIDFloat && value.TypeID == octosql.TypeIDInt:
		value = octosql.NewFloat(float64(value.Int))
	case c.t == octosql.TypeIDInt && value.TypeID == octosql.TypeIDFloat:
		c.t = octosql.TypeIDFloat
		for i := range c.values {
			if c.values[i].TypeID == octosql.TypeIDInt {
				c.values[i] = octosql.NewFloat(float64(c.values[i].Int))
			}
		}
	default:
		return octosql.ParseErrorf("property %s has values of both %s and %s type", c.name, c.t, value.TypeID)
	}
	c.values = append(c.values, value)
	return nil
}

// pad fills rows in which the property was missing.
func (c *columnBuilder) pad(rows int) {
	for len(c.values) < rows {
		c.values = append(c.values, octosql.NewNull())
		c.nullable = true
	}
}

func (c *columnBuilder) build(rows int) *execution.Column {
	c.pad(rows)
	t := octosql.Type{TypeID: c.t}
	if c.nullable && c.t != octosql.TypeIDNull {
		t = octosql.Nullable(t)
	}
	return execution.NewColumn(c.name, t, c.values)
}

func getScalar(v *fastjson.Value) (octosql.Value, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return octosql.NewNull(), nil
	case fastjson.TypeTrue:
		return octosql.NewBoolean(true), nil
	case fastjson.TypeFalse:
		return octosql.NewBoolean(false), nil
	case fastjson.TypeString:
		s, _ := v.StringBytes()
		return octosql.NewString(string(s)), nil
	case fastjson.TypeNumber:
		return getNumber(v)
	}
	return octosql.ZeroValue, octosql.ParseErrorf("expected a scalar, got %s", v.Type())
}

// getNumber keeps integral literals as ints.
func getNumber(v *fastjson.Value) (octosql.Value, error) {
	raw := v.String()
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.Atoi(raw); err == nil {
			return octosql.NewInt(i), nil
		}
	}
	f, err := v.Float64()
	if err != nil {
		return octosql.ZeroValue, octosql.WrapParseError(err, "invalid number")
	}
	return octosql.NewFloat(f), nil
}

func getGeometry(v *fastjson.Value) (octosql.Value, error) {
	if v.Type() == fastjson.TypeNull {
		return octosql.NewNull(), nil
	}
	if v.Type() != fastjson.TypeObject {
		return octosql.ZeroValue, octosql.ParseErrorf("expected an object, got %s", v.Type())
	}
	geometryType := v.Get("type")
	if geometryType == nil || geometryType.Type() != fastjson.TypeString {
		return octosql.ZeroValue, octosql.ParseErrorf("expected a type string")
	}
	typeName, _ := geometryType.StringBytes()

	coordinates := v.Get("coordinates")
	if coordinates == nil {
		return octosql.ZeroValue, octosql.ParseErrorf("expected coordinates")
	}
	rings, err := getNestedFloats(coordinates, 3)
	if err != nil {
		return octosql.ZeroValue, err
	}
	return octosql.NewStruct([]octosql.Value{octosql.NewString(string(typeName)), rings}), nil
}

// getNestedFloats reads arrays nested depth levels deep, with numbers at the bottom.
func getNestedFloats(v *fastjson.Value, depth int) (octosql.Value, error) {
	if depth == 0 {
		if v.Type() != fastjson.TypeNumber {
			return octosql.ZeroValue, octosql.ParseErrorf("expected a coordinate number, got %s", v.Type())
		}
		f, err := v.Float64()
		if err != nil {
			return octosql.ZeroValue, octosql.WrapParseError(err, "invalid coordinate")
		}
		return octosql.NewFloat(f), nil
	}
	if v.Type() != fastjson.TypeArray {
		return octosql.ZeroValue, octosql.ParseErrorf("expected coordinates nested %d arrays deeper, got %s", depth, v.Type())
	}
	arr, _ := v.Array()
	values := make([]octosql.Value, len(arr))
	for i := range arr {
		value, err := getNestedFloats(arr[i], depth-1)
		if err != nil {
			return octosql.ZeroValue, err
		}
		values[i] = value
	}
	return octosql.NewList(values), nil
}

type impl struct {
	path string
}

// NewDatasource flattens the file each time it's read.
func NewDatasource(path string) physical.DatasourceImplementation {
	return &impl{
		path: path,
	}
}

func (i *impl) Schema() (physical.Schema, error) {
	table, err := ReadFile(i.path)
	if err != nil {
		return physical.Schema{}, err
	}
	return physical.TableSchema(table), nil
}

func (i *impl) Materialize(ctx context.Context, env physical.Environment, columns []string) (execution.Node, error) {
	return nodes.NewScanSource(i, columns), nil
}

func (i *impl) Scan(ctx execution.Context, columns []string) (*execution.Table, error) {
	table, err := ReadFile(i.path)
	if err != nil {
		return nil, err
	}
	return nodes.NewTableSource(table, columns).Run(ctx)
}
