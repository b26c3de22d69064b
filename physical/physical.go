package physical

import (
	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
)

type Environment struct {
	Functions     map[string]FunctionDetails
	Aggregates    map[string]AggregateDetails
	UserFunctions map[string]UserFunctionDescriptor
	// Parallelism bounds the chunk workers of a single kernel. Zero means GOMAXPROCS.
	Parallelism int
}

type FunctionDetails struct {
	Description string
	Descriptors []FunctionDescriptor
}

type FunctionDescriptor struct {
	ArgumentTypes []octosql.Type
	OutputType    octosql.Type
	// TypeFn is used instead of ArgumentTypes when set, for variadic functions.
	TypeFn func([]octosql.Type) (octosql.Type, bool)
	// Strict functions return null if any argument is null, without being called.
	Strict   bool
	Function func([]octosql.Value) (octosql.Value, error)
}

type AggregateDetails struct {
	Description string
	Descriptors []AggregateDescriptor
}

type AggregateDescriptor struct {
	ArgumentType octosql.Type
	OutputType   octosql.Type
	Prototype    func() nodes.Aggregate
}

// UserFunctionDescriptor describes a whole-column transform.
// The output type isn't part of the descriptor, each call site declares it.
type UserFunctionDescriptor struct {
	Description    string
	ArgumentTypes  []octosql.Type
	ParameterTypes []octosql.Type
	Function       func(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error)
}

type Schema struct {
	Fields []SchemaField
}

func NewSchema(fields []SchemaField) Schema {
	return Schema{
		Fields: fields,
	}
}

type SchemaField struct {
	Name string
	Type octosql.Type
}

func (s Schema) FieldIndex(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i := range s.Fields {
		out[i] = s.Fields[i].Name
	}
	return out
}

func TableSchema(table *execution.Table) Schema {
	fields := make([]SchemaField, table.NumColumns())
	for i, column := range table.Columns() {
		fields[i] = SchemaField{
			Name: column.Name,
			Type: column.Type,
		}
	}
	return NewSchema(fields)
}

// MapSchema is the schema a Map node with the given output produces over source.
func MapSchema(source Schema, names []string, types []octosql.Type, keep bool) Schema {
	var fields []SchemaField
	if keep {
		fields = append(fields, source.Fields...)
	}
	for i := range names {
		field := SchemaField{Name: names[i], Type: types[i]}
		replaced := false
		if keep {
			for j := range fields {
				if fields[j].Name == names[i] {
					fields[j] = field
					replaced = true
					break
				}
			}
		}
		if !replaced {
			fields = append(fields, field)
		}
	}
	return NewSchema(fields)
}
