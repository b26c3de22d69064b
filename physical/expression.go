package physical

import (
	"context"
	"fmt"

	"github.com/cube2222/octogeo/datetime"
	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

type Expression struct {
	Type octosql.Type

	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	Variable     *Variable
	Constant     *Constant
	FunctionCall *FunctionCall
	And          *And
	Or           *Or
	StructField  *StructField
	ListElement  *ListElement
	ParseTime    *ParseTime
	UserFunction *UserFunction
}

type ExpressionType int

const (
	ExpressionTypeVariable ExpressionType = iota
	ExpressionTypeConstant
	ExpressionTypeFunctionCall
	ExpressionTypeAnd
	ExpressionTypeOr
	ExpressionTypeStructField
	ExpressionTypeListElement
	ExpressionTypeParseTime
	ExpressionTypeUserFunction
)

type Variable struct {
	Name string
}

type Constant struct {
	Value octosql.Value
}

type FunctionCall struct {
	Name               string
	Arguments          []Expression
	FunctionDescriptor FunctionDescriptor
}

type And struct {
	Arguments []Expression
}

type Or struct {
	Arguments []Expression
}

type StructField struct {
	Source Expression
	Field  string
	Index  int
}

type ListElement struct {
	Source Expression
	Index  int
}

type ParseTime struct {
	Source  Expression
	Options datetime.Options
}

// UserFunction carries its parameters as plain values, so the plan stays inspectable.
type UserFunction struct {
	Name       string
	Parameters []octosql.Value
	Arguments  []Expression
	Descriptor UserFunctionDescriptor
}

func (expr *Expression) Materialize(ctx context.Context, env Environment, schema Schema) (execution.Expression, error) {
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		index := schema.FieldIndex(expr.Variable.Name)
		if index == -1 {
			return nil, fmt.Errorf("unknown variable %s at materialization", expr.Variable.Name)
		}
		return execution.NewColumnReference(index), nil

	case ExpressionTypeConstant:
		return execution.NewConstant(expr.Constant.Value, expr.Type), nil

	case ExpressionTypeFunctionCall:
		args, err := materializeAll(ctx, env, schema, expr.FunctionCall.Arguments)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize %s arguments: %w", expr.FunctionCall.Name, err)
		}
		var nullCheckIndices []int
		if expr.FunctionCall.FunctionDescriptor.Strict {
			for i := range expr.FunctionCall.Arguments {
				if expr.FunctionCall.Arguments[i].Type.MayBeNull() {
					nullCheckIndices = append(nullCheckIndices, i)
				}
			}
		}
		return execution.NewFunctionCall(expr.FunctionCall.FunctionDescriptor.Function, args, nullCheckIndices, expr.Type), nil

	case ExpressionTypeAnd:
		args, err := materializeAll(ctx, env, schema, expr.And.Arguments)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize 'and' arguments: %w", err)
		}
		return execution.NewAnd(args), nil

	case ExpressionTypeOr:
		args, err := materializeAll(ctx, env, schema, expr.Or.Arguments)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize 'or' arguments: %w", err)
		}
		return execution.NewOr(args), nil

	case ExpressionTypeStructField:
		source, err := expr.StructField.Source.Materialize(ctx, env, schema)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize struct field source: %w", err)
		}
		return execution.NewStructField(source, expr.StructField.Index, expr.Type), nil

	case ExpressionTypeListElement:
		source, err := expr.ListElement.Source.Materialize(ctx, env, schema)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize list element source: %w", err)
		}
		return execution.NewListElement(source, expr.ListElement.Index, expr.Type), nil

	case ExpressionTypeParseTime:
		source, err := expr.ParseTime.Source.Materialize(ctx, env, schema)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize parse time source: %w", err)
		}
		parser, err := datetime.NewParser(expr.ParseTime.Options)
		if err != nil {
			return nil, fmt.Errorf("couldn't create time parser: %w", err)
		}
		return execution.NewParseTime(source, parser, expr.ParseTime.Options.Cache, expr.Type), nil

	case ExpressionTypeUserFunction:
		args, err := materializeAll(ctx, env, schema, expr.UserFunction.Arguments)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize %s arguments: %w", expr.UserFunction.Name, err)
		}
		return execution.NewUserFunction(
			expr.UserFunction.Name,
			expr.UserFunction.Descriptor.Function,
			expr.UserFunction.Parameters,
			args,
			expr.Type,
		), nil
	}

	panic("unexhaustive expression type match")
}

func materializeAll(ctx context.Context, env Environment, schema Schema, exprs []Expression) ([]execution.Expression, error) {
	out := make([]execution.Expression, len(exprs))
	for i := range exprs {
		expr, err := exprs[i].Materialize(ctx, env, schema)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize expression with index %d: %w", i, err)
		}
		out[i] = expr
	}
	return out, nil
}

// VariablesUsed returns the names of all columns the expression reads.
func (expr Expression) VariablesUsed() []string {
	var out []string
	var walk func(expr Expression)
	walkAll := func(exprs []Expression) {
		for i := range exprs {
			walk(exprs[i])
		}
	}
	walk = func(expr Expression) {
		switch expr.ExpressionType {
		case ExpressionTypeVariable:
			out = append(out, expr.Variable.Name)
		case ExpressionTypeFunctionCall:
			walkAll(expr.FunctionCall.Arguments)
		case ExpressionTypeAnd:
			walkAll(expr.And.Arguments)
		case ExpressionTypeOr:
			walkAll(expr.Or.Arguments)
		case ExpressionTypeStructField:
			walk(expr.StructField.Source)
		case ExpressionTypeListElement:
			walk(expr.ListElement.Source)
		case ExpressionTypeParseTime:
			walk(expr.ParseTime.Source)
		case ExpressionTypeUserFunction:
			walkAll(expr.UserFunction.Arguments)
		}
	}
	walk(expr)
	return out
}
