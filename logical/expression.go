package logical

import (
	"fmt"
	"time"

	"github.com/cube2222/octogeo/datetime"
	"github.com/cube2222/octogeo/octosql"
)

// Expression is an immutable expression tree. Building one never touches data,
// it's resolved against a schema by Typecheck and evaluated only when a plan is collected.
type Expression struct {
	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	Variable      *Variable
	Constant      *Constant
	FunctionCall  *FunctionCall
	AndExpr       *Logic
	OrExpr        *Logic
	StructField   *StructField
	ListElement   *ListElement
	ParseTimeExpr *ParseTime
	UserFunction  *UserFunction
	Aggregate     *Aggregate
	AliasExpr     *Alias
	Invalid       *Invalid
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
	ExpressionTypeAggregate
	ExpressionTypeAlias
	ExpressionTypeInvalid
)

type Variable struct {
	Name string
}

type Constant struct {
	Value octosql.Value
}

type FunctionCall struct {
	Name      string
	Arguments []Expression
}

type Logic struct {
	Arguments []Expression
}

type StructField struct {
	Source Expression
	Field  string
}

type ListElement struct {
	Source Expression
	Index  int
}

type ParseTime struct {
	Source  Expression
	Options datetime.Options
}

// UserFunction references a registered whole-column function. Parameters are constants
// fixed at plan build time and OutputType is declared here, so the plan can be resolved without running it.
type UserFunction struct {
	Name       string
	Parameters []octosql.Value
	Arguments  []Expression
	OutputType octosql.Type
}

type Aggregate struct {
	Name     string
	Argument Expression
}

type Alias struct {
	Source Expression
	Name   string
}

// Invalid is an expression a builder couldn't construct. It fails Typecheck with Err.
type Invalid struct {
	Err error
}

func Col(name string) Expression {
	return Expression{
		ExpressionType: ExpressionTypeVariable,
		Variable:       &Variable{Name: name},
	}
}

// Lit creates a constant from a Go value or an octosql.Value. It panics on unsupported types.
func Lit(value interface{}) Expression {
	var v octosql.Value
	switch value := value.(type) {
	case nil:
		v = octosql.NewNull()
	case octosql.Value:
		v = value
	case int:
		v = octosql.NewInt(value)
	case int32:
		v = octosql.NewInt(int(value))
	case int64:
		v = octosql.NewInt(int(value))
	case float64:
		v = octosql.NewFloat(value)
	case float32:
		v = octosql.NewFloat(float64(value))
	case string:
		v = octosql.NewString(value)
	case bool:
		v = octosql.NewBoolean(value)
	case time.Time:
		v = octosql.NewTime(value)
	default:
		panic(fmt.Sprintf("unsupported literal type: %T", value))
	}
	return Expression{
		ExpressionType: ExpressionTypeConstant,
		Constant:       &Constant{Value: v},
	}
}

// Fail defers a builder error to Typecheck, so it's reported together with other plan errors.
func Fail(err error) Expression {
	return Expression{
		ExpressionType: ExpressionTypeInvalid,
		Invalid:        &Invalid{Err: err},
	}
}

func Function(name string, args ...Expression) Expression {
	return Expression{
		ExpressionType: ExpressionTypeFunctionCall,
		FunctionCall: &FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func And(args ...Expression) Expression {
	return Expression{
		ExpressionType: ExpressionTypeAnd,
		AndExpr:        &Logic{Arguments: args},
	}
}

func Or(args ...Expression) Expression {
	return Expression{
		ExpressionType: ExpressionTypeOr,
		OrExpr:         &Logic{Arguments: args},
	}
}

func Concat(args ...Expression) Expression {
	return Function("concat", args...)
}

func NewUserFunction(name string, outputType octosql.Type, parameters []octosql.Value, args ...Expression) Expression {
	return Expression{
		ExpressionType: ExpressionTypeUserFunction,
		UserFunction: &UserFunction{
			Name:       name,
			Parameters: parameters,
			Arguments:  args,
			OutputType: outputType,
		},
	}
}

func (e Expression) Add(other Expression) Expression   { return Function("+", e, other) }
func (e Expression) Sub(other Expression) Expression   { return Function("-", e, other) }
func (e Expression) Mul(other Expression) Expression   { return Function("*", e, other) }
func (e Expression) Div(other Expression) Expression   { return Function("/", e, other) }
func (e Expression) Eq(other Expression) Expression    { return Function("=", e, other) }
func (e Expression) NotEq(other Expression) Expression { return Function("!=", e, other) }
func (e Expression) Lt(other Expression) Expression    { return Function("<", e, other) }
func (e Expression) LtEq(other Expression) Expression  { return Function("<=", e, other) }
func (e Expression) Gt(other Expression) Expression    { return Function(">", e, other) }
func (e Expression) GtEq(other Expression) Expression  { return Function(">=", e, other) }
func (e Expression) And(other Expression) Expression   { return And(e, other) }
func (e Expression) Or(other Expression) Expression    { return Or(e, other) }

func (e Expression) Not() Expression       { return Function("not", e) }
func (e Expression) Neg() Expression       { return Function("-", e) }
func (e Expression) Floor() Expression     { return Function("floor", e) }
func (e Expression) Ceil() Expression      { return Function("ceil", e) }
func (e Expression) Abs() Expression       { return Function("abs", e) }
func (e Expression) IsNull() Expression    { return Function("is_null", e) }
func (e Expression) IsNotNull() Expression { return Function("is_not_null", e) }
func (e Expression) Upper() Expression     { return Function("upper", e) }
func (e Expression) Lower() Expression     { return Function("lower", e) }
func (e Expression) Year() Expression      { return Function("year", e) }
func (e Expression) Month() Expression     { return Function("month", e) }
func (e Expression) Day() Expression       { return Function("day", e) }

// Cast converts to Int, Float or String. It panics on other target types.
func (e Expression) Cast(t octosql.Type) Expression {
	switch t.TypeID {
	case octosql.TypeIDInt:
		return Function("int", e)
	case octosql.TypeIDFloat:
		return Function("float", e)
	case octosql.TypeIDString:
		return Function("string", e)
	}
	panic(fmt.Sprintf("unsupported cast target type: %s", t))
}

func (e Expression) ParseTime(options datetime.Options) Expression {
	return Expression{
		ExpressionType: ExpressionTypeParseTime,
		ParseTimeExpr:  &ParseTime{
			Source:  e,
			Options: options,
		},
	}
}

func (e Expression) Field(name string) Expression {
	return Expression{
		ExpressionType: ExpressionTypeStructField,
		StructField: &StructField{
			Source: e,
			Field:  name,
		},
	}
}

// Get returns the list element at index, null when out of bounds. Negative indices count from the end.
func (e Expression) Get(index int) Expression {
	return Expression{
		ExpressionType: ExpressionTypeListElement,
		ListElement: &ListElement{
			Source: e,
			Index:  index,
		},
	}
}

func (e Expression) Alias(name string) Expression {
	return Expression{
		ExpressionType: ExpressionTypeAlias,
		AliasExpr:      &Alias{
			Source: e,
			Name:   name,
		},
	}
}

func (e Expression) aggregate(name string) Expression {
	return Expression{
		ExpressionType: ExpressionTypeAggregate,
		Aggregate: &Aggregate{
			Name:     name,
			Argument: e,
		},
	}
}

func (e Expression) Count() Expression { return e.aggregate("count") }
func (e Expression) Mean() Expression  { return e.aggregate("mean") }
func (e Expression) Sum() Expression   { return e.aggregate("sum") }
func (e Expression) Min() Expression   { return e.aggregate("min") }
func (e Expression) Max() Expression   { return e.aggregate("max") }

// OutputName is the column name the expression produces: the alias, the referenced column,
// or the name of the first named argument.
func (e Expression) OutputName() string {
	switch e.ExpressionType {
	case ExpressionTypeVariable:
		return e.Variable.Name
	case ExpressionTypeAlias:
		return e.AliasExpr.Name
	case ExpressionTypeConstant:
		return "literal"
	case ExpressionTypeFunctionCall:
		return firstName(e.FunctionCall.Arguments, e.FunctionCall.Name)
	case ExpressionTypeAnd:
		return firstName(e.AndExpr.Arguments, "and")
	case ExpressionTypeOr:
		return firstName(e.OrExpr.Arguments, "or")
	case ExpressionTypeStructField:
		return e.StructField.Field
	case ExpressionTypeListElement:
		return e.ListElement.Source.OutputName()
	case ExpressionTypeParseTime:
		return e.ParseTimeExpr.Source.OutputName()
	case ExpressionTypeUserFunction:
		return firstName(e.UserFunction.Arguments, e.UserFunction.Name)
	case ExpressionTypeAggregate:
		return e.Aggregate.Argument.OutputName()
	case ExpressionTypeInvalid:
		return "invalid"
	}
	panic("unexhaustive expression type match")
}

func firstName(args []Expression, fallback string) string {
	for _, arg := range args {
		if name := arg.OutputName(); name != "literal" {
			return name
		}
	}
	if len(args) > 0 {
		return "literal"
	}
	return fallback
}

func (e Expression) String() string {
	switch e.ExpressionType {
	case ExpressionTypeVariable:
		return e.Variable.Name
	case ExpressionTypeConstant:
		return e.Constant.Value.String()
	case ExpressionTypeFunctionCall:
		return fmt.Sprintf("%s(%s)", e.FunctionCall.Name, joinExpressions(e.FunctionCall.Arguments))
	case ExpressionTypeAnd:
		return fmt.Sprintf("and(%s)", joinExpressions(e.AndExpr.Arguments))
	case ExpressionTypeOr:
		return fmt.Sprintf("or(%s)", joinExpressions(e.OrExpr.Arguments))
	case ExpressionTypeStructField:
		return fmt.Sprintf("%s.%s", e.StructField.Source, e.StructField.Field)
	case ExpressionTypeListElement:
		return fmt.Sprintf("%s[%d]", e.ListElement.Source, e.ListElement.Index)
	case ExpressionTypeParseTime:
		return fmt.Sprintf("parse_time(%s, %s)", e.ParseTimeExpr.Source, e.ParseTimeExpr.Options)
	case ExpressionTypeUserFunction:
		return fmt.Sprintf("%s(%s)", e.UserFunction.Name, joinExpressions(e.UserFunction.Arguments))
	case ExpressionTypeAggregate:
		return fmt.Sprintf("%s(%s)", e.Aggregate.Name, e.Aggregate.Argument)
	case ExpressionTypeAlias:
		return fmt.Sprintf("%s as %s", e.AliasExpr.Source, e.AliasExpr.Name)
	case ExpressionTypeInvalid:
		return fmt.Sprintf("invalid(%s)", e.Invalid.Err)
	}
	panic("unexhaustive expression type match")
}

func joinExpressions(exprs []Expression) string {
	out := ""
	for i := range exprs {
		if i > 0 {
			out += ", "
		}
		out += exprs[i].String()
	}
	return out
}
