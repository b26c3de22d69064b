package physical

import (
	"fmt"
	"strings"

	"github.com/cube2222/octogeo/graph"
)

func DescribeNode(node Node, withTypeInfo bool) *graph.Node {
	var out *graph.Node
	switch node.NodeType {
	case NodeTypeDatasource:
		out = graph.NewNode(node.Datasource.Name)
		if node.Datasource.Columns != nil {
			out.AddField("columns", strings.Join(node.Datasource.Columns, ", "))
		}

	case NodeTypeMap:
		if node.Map.Keep {
			out = graph.NewNode("with columns")
		} else {
			out = graph.NewNode("select")
		}
		for i := range node.Map.Expressions {
			out.AddChild(node.Map.Names[i], DescribeExpr(node.Map.Expressions[i], withTypeInfo))
		}
		out.AddChild("source", DescribeNode(node.Map.Source, withTypeInfo))

	case NodeTypeFilter:
		out = graph.NewNode("filter")
		out.AddChild("predicate", DescribeExpr(node.Filter.Predicate, withTypeInfo))
		out.AddChild("source", DescribeNode(node.Filter.Source, withTypeInfo))

	case NodeTypeGroupBy:
		out = graph.NewNode("group by")
		for i := range node.GroupBy.Key {
			out.AddChild("key_"+node.GroupBy.KeyNames[i], DescribeExpr(node.GroupBy.Key[i], withTypeInfo))
		}
		for i := range node.GroupBy.Aggregates {
			aggregate := graph.NewNode(node.GroupBy.Aggregates[i].Name)
			aggregate.AddChild("argument", DescribeExpr(node.GroupBy.AggregateExpressions[i], withTypeInfo))
			out.AddChild(node.GroupBy.Aggregates[i].OutputName, aggregate)
		}
		out.AddChild("source", DescribeNode(node.GroupBy.Source, withTypeInfo))

	case NodeTypeOrderBy:
		out = graph.NewNode("sort")
		for i := range node.OrderBy.Key {
			if node.OrderBy.DirectionMultipliers[i] == 1 {
				out.AddChild("asc", DescribeExpr(node.OrderBy.Key[i], withTypeInfo))
			} else {
				out.AddChild("desc", DescribeExpr(node.OrderBy.Key[i], withTypeInfo))
			}
		}
		if node.OrderBy.NullsLast {
			out.AddField("nulls", "last")
		}
		out.AddChild("source", DescribeNode(node.OrderBy.Source, withTypeInfo))

	case NodeTypeLimit:
		out = graph.NewNode("limit")
		out.AddField("limit", fmt.Sprint(node.Limit.Limit))
		out.AddChild("source", DescribeNode(node.Limit.Source, withTypeInfo))

	default:
		panic(fmt.Sprintf("unexhaustive node type match: %d", node.NodeType))
	}
	if withTypeInfo {
		for _, field := range node.Schema.Fields {
			out.AddField(field.Name, field.Type.String())
		}
	}
	return out
}

func DescribeExpr(expr Expression, withTypeInfo bool) *graph.Node {
	var out *graph.Node
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		out = graph.NewNode(expr.Variable.Name)
	case ExpressionTypeConstant:
		out = graph.NewNode(expr.Constant.Value.String())
	case ExpressionTypeFunctionCall:
		out = graph.NewNode(expr.FunctionCall.Name)
		for i, arg := range expr.FunctionCall.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), DescribeExpr(arg, withTypeInfo))
		}
	case ExpressionTypeAnd:
		out = graph.NewNode("and")
		for i, arg := range expr.And.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), DescribeExpr(arg, withTypeInfo))
		}
	case ExpressionTypeOr:
		out = graph.NewNode("or")
		for i, arg := range expr.Or.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), DescribeExpr(arg, withTypeInfo))
		}
	case ExpressionTypeStructField:
		out = graph.NewNode("field")
		out.AddField("name", expr.StructField.Field)
		out.AddChild("source", DescribeExpr(expr.StructField.Source, withTypeInfo))
	case ExpressionTypeListElement:
		out = graph.NewNode("element")
		out.AddField("index", fmt.Sprint(expr.ListElement.Index))
		out.AddChild("source", DescribeExpr(expr.ListElement.Source, withTypeInfo))
	case ExpressionTypeParseTime:
		out = graph.NewNode("parse_time")
		out.AddField("options", expr.ParseTime.Options.String())
		out.AddChild("source", DescribeExpr(expr.ParseTime.Source, withTypeInfo))
	case ExpressionTypeUserFunction:
		out = graph.NewNode(expr.UserFunction.Name)
		for i, param := range expr.UserFunction.Parameters {
			out.AddField(fmt.Sprintf("param_%d", i), param.String())
		}
		for i, arg := range expr.UserFunction.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), DescribeExpr(arg, withTypeInfo))
		}
	default:
		panic(fmt.Sprintf("unexhaustive expression type match: %d", expr.ExpressionType))
	}
	if withTypeInfo {
		out.AddField("type", expr.Type.String())
	}
	return out
}
