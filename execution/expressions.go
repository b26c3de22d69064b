package execution

import (
	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/octosql"
)

type ColumnReference struct {
	index int
}

func NewColumnReference(index int) *ColumnReference {
	return &ColumnReference{
		index: index,
	}
}

func (r *ColumnReference) Evaluate(ctx Context, table *Table) (*Column, error) {
	return table.ColumnAt(r.index), nil
}

type Constant struct {
	value octosql.Value
	t     octosql.Type
}

func NewConstant(value octosql.Value, t octosql.Type) *Constant {
	return &Constant{
		value: value,
		t:     t,
	}
}

func (c *Constant) Evaluate(ctx Context, table *Table) (*Column, error) {
	layout := table.Layout()
	chunks := make([][]octosql.Value, len(layout))
	for i, size := range layout {
		chunk := make([]octosql.Value, size)
		for j := range chunk {
			chunk[j] = c.value
		}
		chunks[i] = chunk
	}
	return NewChunkedColumn("literal", c.t, chunks), nil
}

// evaluateArguments evaluates all arguments and aligns them to the chunk layout of the first one.
func evaluateArguments(ctx Context, table *Table, args []Expression) ([]*Column, []int, error) {
	columns := make([]*Column, len(args))
	for i, arg := range args {
		column, err := arg.Evaluate(ctx, table)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "couldn't evaluate argument %d", i)
		}
		if column.Len() != table.NumRows() {
			return nil, nil, errors.Errorf("argument %d evaluated to %d rows, expected %d", i, column.Len(), table.NumRows())
		}
		columns[i] = column
	}
	layout := table.Layout()
	if len(columns) > 0 {
		layout = columns[0].Layout()
	}
	for i := range columns {
		columns[i] = columns[i].Rechunk(layout)
	}
	return columns, layout, nil
}

// mapChunks runs kernel once per chunk, in parallel. Each kernel invocation owns its output chunk.
func mapChunks(ctx Context, layout []int, kernel func(chunk int, out []octosql.Value) error) ([][]octosql.Value, error) {
	chunks := make([][]octosql.Value, len(layout))
	g := ctx.Group()
	for i := range layout {
		i := i
		g.Go(func() error {
			out := make([]octosql.Value, layout[i])
			if err := kernel(i, out); err != nil {
				return err
			}
			chunks[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

type FunctionCall struct {
	function         func([]octosql.Value) (octosql.Value, error)
	args             []Expression
	nullCheckIndices []int
	outputType       octosql.Type
}

// NewFunctionCall creates a row-wise function evaluated over whole chunks.
// If any argument at a null check index is null, the function isn't called and the result is null.
func NewFunctionCall(function func([]octosql.Value) (octosql.Value, error), args []Expression, nullCheckIndices []int, outputType octosql.Type) *FunctionCall {
	return &FunctionCall{
		function:         function,
		args:             args,
		nullCheckIndices: nullCheckIndices,
		outputType:       outputType,
	}
}

func (f *FunctionCall) Evaluate(ctx Context, table *Table) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, f.args)
	if err != nil {
		return nil, err
	}

	chunks, err := mapChunks(ctx, layout, func(chunk int, out []octosql.Value) error {
		argValues := make([]octosql.Value, len(args))
	rowLoop:
		for row := range out {
			for _, index := range f.nullCheckIndices {
				if args[index].Chunks[chunk][row].TypeID == octosql.TypeIDNull {
					out[row] = octosql.NewNull()
					continue rowLoop
				}
			}
			for i := range args {
				argValues[i] = args[i].Chunks[chunk][row]
			}
			value, err := f.function(argValues)
			if err != nil {
				return errors.Wrap(err, "couldn't evaluate function")
			}
			out[row] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewChunkedColumn(columnName(args), f.outputType, chunks), nil
}

func columnName(args []*Column) string {
	if len(args) == 0 {
		return "literal"
	}
	return args[0].Name
}

type And struct {
	args []Expression
}

func NewAnd(args []Expression) *And {
	return &And{
		args: args,
	}
}

// Evaluate uses three-valued logic: false wins over null, null wins over true.
func (c *And) Evaluate(ctx Context, table *Table) (*Column, error) {
	return evaluateLogic(ctx, table, c.args, false)
}

type Or struct {
	args []Expression
}

func NewOr(args []Expression) *Or {
	return &Or{
		args: args,
	}
}

// Evaluate uses three-valued logic: true wins over null, null wins over false.
func (c *Or) Evaluate(ctx Context, table *Table) (*Column, error) {
	return evaluateLogic(ctx, table, c.args, true)
}

func evaluateLogic(ctx Context, table *Table, exprs []Expression, dominant bool) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, exprs)
	if err != nil {
		return nil, err
	}
	chunks, err := mapChunks(ctx, layout, func(chunk int, out []octosql.Value) error {
		for row := range out {
			nullEncountered := false
			decided := false
			for i := range args {
				value := args[i].Chunks[chunk][row]
				if value.TypeID == octosql.TypeIDNull {
					nullEncountered = true
					continue
				}
				if value.Boolean == dominant {
					decided = true
					break
				}
			}
			switch {
			case decided:
				out[row] = octosql.NewBoolean(dominant)
			case nullEncountered:
				out[row] = octosql.NewNull()
			default:
				out[row] = octosql.NewBoolean(!dominant)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	outputType := octosql.Boolean
	for i := range args {
		if args[i].Type.MayBeNull() {
			outputType = octosql.Nullable(octosql.Boolean)
		}
	}
	return NewChunkedColumn(columnName(args), outputType, chunks), nil
}

type StructField struct {
	source     Expression
	index      int
	outputType octosql.Type
}

func NewStructField(source Expression, index int, outputType octosql.Type) *StructField {
	return &StructField{
		source:     source,
		index:      index,
		outputType: outputType,
	}
}

func (s *StructField) Evaluate(ctx Context, table *Table) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, []Expression{s.source})
	if err != nil {
		return nil, err
	}
	chunks, err := mapChunks(ctx, layout, func(chunk int, out []octosql.Value) error {
		for row, value := range args[0].Chunks[chunk] {
			if value.TypeID != octosql.TypeIDStruct || s.index >= len(value.Struct) {
				out[row] = octosql.NewNull()
				continue
			}
			out[row] = value.Struct[s.index]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewChunkedColumn(args[0].Name, s.outputType, chunks), nil
}

type ListElement struct {
	source     Expression
	index      int
	outputType octosql.Type
}

// NewListElement returns null for null lists and out of bounds indices.
// Negative indices count from the end.
func NewListElement(source Expression, index int, outputType octosql.Type) *ListElement {
	return &ListElement{
		source:     source,
		index:      index,
		outputType: outputType,
	}
}

func (l *ListElement) Evaluate(ctx Context, table *Table) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, []Expression{l.source})
	if err != nil {
		return nil, err
	}
	chunks, err := mapChunks(ctx, layout, func(chunk int, out []octosql.Value) error {
		for row, value := range args[0].Chunks[chunk] {
			if value.TypeID != octosql.TypeIDList {
				out[row] = octosql.NewNull()
				continue
			}
			index := l.index
			if index < 0 {
				index += len(value.List)
			}
			if index < 0 || index >= len(value.List) {
				out[row] = octosql.NewNull()
				continue
			}
			out[row] = value.List[index]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewChunkedColumn(args[0].Name, l.outputType, chunks), nil
}

// TimeParser parses a single string. A null result with a nil error is a row-local failure.
type TimeParser func(s string) (octosql.Value, error)

type ParseTime struct {
	source     Expression
	parse      TimeParser
	cache      bool
	outputType octosql.Type
}

func NewParseTime(source Expression, parse TimeParser, cache bool, outputType octosql.Type) *ParseTime {
	return &ParseTime{
		source:     source,
		parse:      parse,
		cache:      cache,
		outputType: outputType,
	}
}

// Evaluate parses all chunks in parallel. Columns of dates usually repeat a lot,
// so parsed values are memoized in a cache shared by the chunk workers of one evaluation.
func (p *ParseTime) Evaluate(ctx Context, table *Table) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, []Expression{p.source})
	if err != nil {
		return nil, err
	}

	parse := p.parse
	if p.cache {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e5,
			MaxCost:     1e4,
			BufferItems: 64,
		})
		if err != nil {
			return nil, errors.Wrap(err, "couldn't create parse cache")
		}
		defer cache.Close()

		parse = func(s string) (octosql.Value, error) {
			if cached, ok := cache.Get(s); ok {
				return cached.(octosql.Value), nil
			}
			value, err := p.parse(s)
			if err != nil {
				return octosql.ZeroValue, err
			}
			cache.Set(s, value, 1)
			return value, nil
		}
	}

	chunks, err := mapChunks(ctx, layout, func(chunk int, out []octosql.Value) error {
		for row, value := range args[0].Chunks[chunk] {
			if value.TypeID != octosql.TypeIDString {
				out[row] = octosql.NewNull()
				continue
			}
			parsed, err := parse(value.Str)
			if err != nil {
				return err
			}
			out[row] = parsed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewChunkedColumn(args[0].Name, p.outputType, chunks), nil
}

// UserFunction is a whole-column transform. The function is called exactly once per evaluation,
// with one full logical column per argument.
type UserFunction struct {
	name       string
	function   func(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error)
	params     []octosql.Value
	args       []Expression
	outputType octosql.Type
}

func NewUserFunction(name string, function func(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error), params []octosql.Value, args []Expression, outputType octosql.Type) *UserFunction {
	return &UserFunction{
		name:       name,
		function:   function,
		params:     params,
		args:       args,
		outputType: outputType,
	}
}

func (u *UserFunction) Evaluate(ctx Context, table *Table) (*Column, error) {
	args, layout, err := evaluateArguments(ctx, table, u.args)
	if err != nil {
		return nil, err
	}
	argValues := make([][]octosql.Value, len(args))
	for i := range args {
		argValues[i] = args[i].Values()
	}

	out, err := u.function(u.params, argValues)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't evaluate user function %s", u.name)
	}
	if len(out) != table.NumRows() {
		return nil, errors.Errorf("user function %s returned %d values for %d rows", u.name, len(out), table.NumRows())
	}

	return NewColumn(columnName(args), u.outputType, out).Rechunk(layout), nil
}
