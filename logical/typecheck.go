package logical

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/datetime"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

// Typecheck resolves the expression against the schema, choosing function overloads and computing output types.
// Aggregates are only valid inside a group by, see typecheckAggregate.
func (e Expression) Typecheck(ctx context.Context, env physical.Environment, schema physical.Schema) (physical.Expression, error) {
	switch e.ExpressionType {
	case ExpressionTypeVariable:
		index := schema.FieldIndex(e.Variable.Name)
		if index == -1 {
			return physical.Expression{}, octosql.SchemaErrorf("unknown column: %s", e.Variable.Name)
		}
		return physical.Expression{
			Type:           schema.Fields[index].Type,
			ExpressionType: physical.ExpressionTypeVariable,
			Variable:       &physical.Variable{Name: e.Variable.Name},
		}, nil

	case ExpressionTypeConstant:
		return physical.Expression{
			Type:           e.Constant.Value.Type(),
			ExpressionType: physical.ExpressionTypeConstant,
			Constant:       &physical.Constant{Value: e.Constant.Value},
		}, nil

	case ExpressionTypeFunctionCall:
		return typecheckFunctionCall(ctx, env, schema, e.FunctionCall)

	case ExpressionTypeAnd, ExpressionTypeOr:
		logic := e.AndExpr
		name := "and"
		if e.ExpressionType == ExpressionTypeOr {
			logic = e.OrExpr
			name = "or"
		}
		args, err := typecheckAll(ctx, env, schema, logic.Arguments)
		if err != nil {
			return physical.Expression{}, errors.Wrapf(err, "couldn't typecheck '%s' arguments", name)
		}
		outType := octosql.Boolean
		for i := range args {
			if octosql.WithoutNull(args[i].Type).Is(octosql.Boolean) != octosql.TypeRelationIs {
				return physical.Expression{}, octosql.SchemaErrorf("'%s' argument %d must be a Boolean, got %s", name, i, args[i].Type)
			}
			if args[i].Type.MayBeNull() {
				outType = octosql.Nullable(octosql.Boolean)
			}
		}
		out := physical.Expression{Type: outType}
		if e.ExpressionType == ExpressionTypeAnd {
			out.ExpressionType = physical.ExpressionTypeAnd
			out.And = &physical.And{Arguments: args}
		} else {
			out.ExpressionType = physical.ExpressionTypeOr
			out.Or = &physical.Or{Arguments: args}
		}
		return out, nil

	case ExpressionTypeStructField:
		source, err := e.StructField.Source.Typecheck(ctx, env, schema)
		if err != nil {
			return physical.Expression{}, errors.Wrap(err, "couldn't typecheck struct field source")
		}
		structType := octosql.WithoutNull(source.Type)
		if structType.TypeID != octosql.TypeIDStruct {
			return physical.Expression{}, octosql.SchemaErrorf("can't access field %s of non-struct type %s", e.StructField.Field, source.Type)
		}
		index := structType.FieldIndex(e.StructField.Field)
		if index == -1 {
			return physical.Expression{}, octosql.SchemaErrorf("struct type %s has no field %s", structType, e.StructField.Field)
		}
		fieldType := structType.Struct.Fields[index].Type
		if source.Type.MayBeNull() {
			fieldType = octosql.Nullable(fieldType)
		}
		return physical.Expression{
			Type:           fieldType,
			ExpressionType: physical.ExpressionTypeStructField,
			StructField: &physical.StructField{
				Source: source,
				Field:  e.StructField.Field,
				Index:  index,
			},
		}, nil

	case ExpressionTypeListElement:
		source, err := e.ListElement.Source.Typecheck(ctx, env, schema)
		if err != nil {
			return physical.Expression{}, errors.Wrap(err, "couldn't typecheck list element source")
		}
		listType := octosql.WithoutNull(source.Type)
		if listType.TypeID != octosql.TypeIDList {
			return physical.Expression{}, octosql.SchemaErrorf("can't index non-list type %s", source.Type)
		}
		return physical.Expression{
			// Out of bounds indices yield null.
			Type:           octosql.Nullable(*listType.List.Element),
			ExpressionType: physical.ExpressionTypeListElement,
			ListElement: &physical.ListElement{
				Source: source,
				Index:  e.ListElement.Index,
			},
		}, nil

	case ExpressionTypeParseTime:
		source, err := e.ParseTimeExpr.Source.Typecheck(ctx, env, schema)
		if err != nil {
			return physical.Expression{}, errors.Wrap(err, "couldn't typecheck parse time source")
		}
		if octosql.WithoutNull(source.Type).Is(octosql.String) != octosql.TypeRelationIs {
			return physical.Expression{}, octosql.SchemaErrorf("parse time source must be a String, got %s", source.Type)
		}
		options := e.ParseTimeExpr.Options
		if _, err := datetime.NewParser(options); err != nil {
			return physical.Expression{}, octosql.SchemaErrorf("invalid parse time options '%s': %s", options, err)
		}
		outType := octosql.Time
		if source.Type.MayBeNull() || !options.Strict || options.Ambiguous == datetime.AmbiguousNull {
			outType = octosql.Nullable(octosql.Time)
		}
		return physical.Expression{
			Type:           outType,
			ExpressionType: physical.ExpressionTypeParseTime,
			ParseTime: &physical.ParseTime{
				Source:  source,
				Options: options,
			},
		}, nil

	case ExpressionTypeUserFunction:
		return typecheckUserFunction(ctx, env, schema, e.UserFunction)

	case ExpressionTypeAggregate:
		return physical.Expression{}, octosql.SchemaErrorf("aggregate %s used outside of a group by", e.Aggregate.Name)

	case ExpressionTypeAlias:
		return e.AliasExpr.Source.Typecheck(ctx, env, schema)

	case ExpressionTypeInvalid:
		return physical.Expression{}, e.Invalid.Err
	}

	panic("unexhaustive expression type match")
}

func typecheckAll(ctx context.Context, env physical.Environment, schema physical.Schema, exprs []Expression) ([]physical.Expression, error) {
	out := make([]physical.Expression, len(exprs))
	for i := range exprs {
		expr, err := exprs[i].Typecheck(ctx, env, schema)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't typecheck argument %d", i)
		}
		out[i] = expr
	}
	return out, nil
}

func typecheckFunctionCall(ctx context.Context, env physical.Environment, schema physical.Schema, call *FunctionCall) (physical.Expression, error) {
	details, ok := env.Functions[call.Name]
	if !ok {
		return physical.Expression{}, octosql.SchemaErrorf("unknown function: %s", call.Name)
	}
	args, err := typecheckAll(ctx, env, schema, call.Arguments)
	if err != nil {
		return physical.Expression{}, errors.Wrapf(err, "couldn't typecheck %s arguments", call.Name)
	}
	types := make([]octosql.Type, len(args))
	for i := range args {
		types[i] = args[i].Type
	}

	descriptor, outType, ok := resolveFunction(details.Descriptors, types)
	if !ok {
		return physical.Expression{}, octosql.SchemaErrorf("no overload of %s matches argument types (%s)", call.Name, joinTypes(types))
	}
	return physical.Expression{
		Type:           outType,
		ExpressionType: physical.ExpressionTypeFunctionCall,
		FunctionCall: &physical.FunctionCall{
			Name:               call.Name,
			Arguments:          args,
			FunctionDescriptor: descriptor,
		},
	}, nil
}

// resolveFunction picks the first descriptor accepting the argument types.
// Strict descriptors are matched against the types with null stripped, and produce a nullable type if any argument may be null.
func resolveFunction(descriptors []physical.FunctionDescriptor, types []octosql.Type) (physical.FunctionDescriptor, octosql.Type, bool) {
	stripped := make([]octosql.Type, len(types))
	anyNullable := false
	for i := range types {
		stripped[i] = octosql.WithoutNull(types[i])
		if types[i].MayBeNull() {
			anyNullable = true
		}
	}

	for _, descriptor := range descriptors {
		candidate := types
		if descriptor.Strict {
			candidate = stripped
		}

		var outType octosql.Type
		if descriptor.TypeFn != nil {
			t, ok := descriptor.TypeFn(candidate)
			if !ok {
				continue
			}
			outType = t
		} else {
			if !argumentsMatch(descriptor.ArgumentTypes, candidate) {
				continue
			}
			outType = descriptor.OutputType
		}
		if descriptor.Strict && anyNullable {
			outType = octosql.Nullable(outType)
		}
		return descriptor, outType, true
	}
	return physical.FunctionDescriptor{}, octosql.Type{}, false
}

func argumentsMatch(declared, actual []octosql.Type) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i := range declared {
		// A bare null literal matches anything.
		if actual[i].TypeID == octosql.TypeIDNull {
			continue
		}
		if actual[i].Is(declared[i]) != octosql.TypeRelationIs {
			return false
		}
	}
	return true
}

func typecheckUserFunction(ctx context.Context, env physical.Environment, schema physical.Schema, call *UserFunction) (physical.Expression, error) {
	descriptor, ok := env.UserFunctions[call.Name]
	if !ok {
		return physical.Expression{}, octosql.SchemaErrorf("unknown user function: %s", call.Name)
	}
	args, err := typecheckAll(ctx, env, schema, call.Arguments)
	if err != nil {
		return physical.Expression{}, errors.Wrapf(err, "couldn't typecheck %s arguments", call.Name)
	}
	types := make([]octosql.Type, len(args))
	for i := range args {
		types[i] = octosql.WithoutNull(args[i].Type)
	}
	if !argumentsMatch(descriptor.ArgumentTypes, types) {
		return physical.Expression{}, octosql.SchemaErrorf("%s expects arguments (%s), got (%s)", call.Name, joinTypes(descriptor.ArgumentTypes), joinTypes(types))
	}
	paramTypes := make([]octosql.Type, len(call.Parameters))
	for i := range call.Parameters {
		paramTypes[i] = call.Parameters[i].Type()
	}
	if !argumentsMatch(descriptor.ParameterTypes, paramTypes) {
		return physical.Expression{}, octosql.SchemaErrorf("%s expects parameters (%s), got (%s)", call.Name, joinTypes(descriptor.ParameterTypes), joinTypes(paramTypes))
	}
	return physical.Expression{
		Type:           call.OutputType,
		ExpressionType: physical.ExpressionTypeUserFunction,
		UserFunction: &physical.UserFunction{
			Name:       call.Name,
			Parameters: call.Parameters,
			Arguments:  args,
			Descriptor: descriptor,
		},
	}, nil
}

// typecheckAggregate resolves an aggregate call, with an optional alias around it, inside a group by.
func typecheckAggregate(ctx context.Context, env physical.Environment, schema physical.Schema, e Expression) (physical.Aggregate, physical.Expression, error) {
	outputName := e.OutputName()
	for e.ExpressionType == ExpressionTypeAlias {
		e = e.AliasExpr.Source
	}
	if e.ExpressionType != ExpressionTypeAggregate {
		return physical.Aggregate{}, physical.Expression{}, octosql.SchemaErrorf("expected an aggregate, got %s", e)
	}
	details, ok := env.Aggregates[e.Aggregate.Name]
	if !ok {
		return physical.Aggregate{}, physical.Expression{}, octosql.SchemaErrorf("unknown aggregate: %s", e.Aggregate.Name)
	}
	arg, err := e.Aggregate.Argument.Typecheck(ctx, env, schema)
	if err != nil {
		return physical.Aggregate{}, physical.Expression{}, errors.Wrapf(err, "couldn't typecheck %s argument", e.Aggregate.Name)
	}
	// Aggregates only ever see non-null values.
	argType := octosql.WithoutNull(arg.Type)
	for _, descriptor := range details.Descriptors {
		if argType.TypeID != octosql.TypeIDNull && argType.Is(descriptor.ArgumentType) != octosql.TypeRelationIs {
			continue
		}
		return physical.Aggregate{
			Name:                e.Aggregate.Name,
			OutputName:          outputName,
			AggregateDescriptor: descriptor,
		}, arg, nil
	}
	return physical.Aggregate{}, physical.Expression{}, octosql.SchemaErrorf("no overload of %s matches argument type %s", e.Aggregate.Name, arg.Type)
}

func joinTypes(types []octosql.Type) string {
	out := ""
	for i := range types {
		if i > 0 {
			out += ", "
		}
		out += types[i].String()
	}
	return out
}
