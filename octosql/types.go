package octosql

import (
	"fmt"
	"strings"
)

type TypeID int

const (
	TypeIDNull TypeID = iota
	TypeIDInt
	TypeIDFloat
	TypeIDBoolean
	TypeIDString
	TypeIDTime
	TypeIDList
	TypeIDStruct
	TypeIDUnion
	TypeIDAny
)

func (id TypeID) String() string {
	switch id {
	case TypeIDNull:
		return "Null"
	case TypeIDInt:
		return "Int"
	case TypeIDFloat:
		return "Float"
	case TypeIDBoolean:
		return "Boolean"
	case TypeIDString:
		return "String"
	case TypeIDTime:
		return "Time"
	case TypeIDList:
		return "List"
	case TypeIDStruct:
		return "Struct"
	case TypeIDUnion:
		return "Union"
	case TypeIDAny:
		return "Any"
	}
	return "Invalid"
}

type Type struct {
	TypeID TypeID
	List   struct {
		Element *Type
	}
	Struct struct {
		Fields []StructField
	}
	Union struct {
		Alternatives []Type
	}
}

type StructField struct {
	Name string
	Type Type
}

type TypeRelation int

const (
	TypeRelationIsnt TypeRelation = iota
	TypeRelationMaybe
	TypeRelationIs
)

// Is reports whether every value of t is also a value of other.
func (t Type) Is(other Type) TypeRelation {
	if other.TypeID == TypeIDAny {
		return TypeRelationIs
	}
	if t.TypeID == TypeIDUnion {
		anyFits := false
		allFit := true
		for _, alternative := range t.Union.Alternatives {
			rel := alternative.Is(other)
			if rel == TypeRelationIs {
				anyFits = true
			} else if rel == TypeRelationMaybe {
				anyFits = true
				allFit = false
			} else {
				allFit = false
			}
		}
		if allFit {
			return TypeRelationIs
		} else if anyFits {
			return TypeRelationMaybe
		} else {
			return TypeRelationIsnt
		}
	}
	if other.TypeID == TypeIDUnion {
		out := TypeRelationIsnt
		for _, alternative := range other.Union.Alternatives {
			rel := t.Is(alternative)
			if rel > out {
				out = rel
			}
		}
		return out
	}
	if t.TypeID == TypeIDList {
		if other.TypeID != TypeIDList {
			return TypeRelationIsnt
		}
		return t.List.Element.Is(*other.List.Element)
	}
	if t.TypeID == TypeIDStruct {
		if other.TypeID != TypeIDStruct {
			return TypeRelationIsnt
		}
		if len(t.Struct.Fields) != len(other.Struct.Fields) {
			return TypeRelationIsnt
		}
		out := TypeRelationIs
		for i := range t.Struct.Fields {
			if t.Struct.Fields[i].Name != other.Struct.Fields[i].Name {
				return TypeRelationIsnt
			}
			if rel := t.Struct.Fields[i].Type.Is(other.Struct.Fields[i].Type); rel < out {
				out = rel
			}
		}
		return out
	}
	if t.TypeID == other.TypeID {
		return TypeRelationIs
	}
	return TypeRelationIsnt
}

func (t Type) Equals(other Type) bool {
	return t.Is(other) == TypeRelationIs && other.Is(t) == TypeRelationIs
}

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDNull:
		return "NULL"
	case TypeIDInt:
		return "Int"
	case TypeIDFloat:
		return "Float"
	case TypeIDBoolean:
		return "Boolean"
	case TypeIDString:
		return "String"
	case TypeIDTime:
		return "Time"
	case TypeIDList:
		return fmt.Sprintf("[%s]", *t.List.Element)
	case TypeIDStruct:
		fieldStrings := make([]string, len(t.Struct.Fields))
		for i, field := range t.Struct.Fields {
			fieldStrings[i] = fmt.Sprintf("%s: %s", field.Name, field.Type)
		}

		return fmt.Sprintf("{%s}", strings.Join(fieldStrings, "; "))
	case TypeIDUnion:
		typeStrings := make([]string, len(t.Union.Alternatives))
		for i, alternative := range t.Union.Alternatives {
			typeStrings[i] = alternative.String()
		}

		return strings.Join(typeStrings, " | ")
	case TypeIDAny:
		return "Any"
	}
	panic("impossible, type switch bug")
}

var (
	Null    Type = Type{TypeID: TypeIDNull}
	Int     Type = Type{TypeID: TypeIDInt}
	Float   Type = Type{TypeID: TypeIDFloat}
	Boolean Type = Type{TypeID: TypeIDBoolean}
	String  Type = Type{TypeID: TypeIDString}
	Time    Type = Type{TypeID: TypeIDTime}
	Any     Type = Type{TypeID: TypeIDAny}
)

func NewListType(element Type) Type {
	out := Type{TypeID: TypeIDList}
	out.List.Element = &element
	return out
}

func NewStructType(fields ...StructField) Type {
	out := Type{TypeID: TypeIDStruct}
	out.Struct.Fields = fields
	return out
}

// Nullable returns t extended with Null.
func Nullable(t Type) Type {
	return TypeSum(t, Null)
}

// WithoutNull strips Null from the alternatives of t.
// A pure Null type is returned unchanged.
func WithoutNull(t Type) Type {
	if t.TypeID != TypeIDUnion {
		return t
	}
	var alternatives []Type
	for _, alternative := range t.Union.Alternatives {
		if alternative.TypeID != TypeIDNull {
			alternatives = append(alternatives, alternative)
		}
	}
	switch len(alternatives) {
	case 0:
		return Null
	case 1:
		return alternatives[0]
	}
	out := Type{TypeID: TypeIDUnion}
	out.Union.Alternatives = alternatives
	return out
}

// MayBeNull reports whether a value of type t can be null.
func (t Type) MayBeNull() bool {
	return Null.Is(t) > TypeRelationIsnt
}

// FieldIndex returns the position of the named field of a struct type, or -1.
func (t Type) FieldIndex(name string) int {
	for i := range t.Struct.Fields {
		if t.Struct.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func TypeSum(t1, t2 Type) Type {
	if t1.Is(t2) == TypeRelationIs {
		return t2
	}
	if t2.Is(t1) == TypeRelationIs {
		return t1
	}
	var alternatives []Type
	addType := func(t Type) {
		union := Type{TypeID: TypeIDUnion}
		union.Union.Alternatives = alternatives
		if t.Is(union) != TypeRelationIs {
			alternatives = append(alternatives, t)
		}
	}
	if t1.TypeID != TypeIDUnion {
		addType(t1)
	} else {
		for _, alternative := range t1.Union.Alternatives {
			addType(alternative)
		}
	}
	if t2.TypeID != TypeIDUnion {
		addType(t2)
	} else {
		for _, alternative := range t2.Union.Alternatives {
			addType(alternative)
		}
	}
	if len(alternatives) == 1 {
		return alternatives[0]
	}
	out := Type{TypeID: TypeIDUnion}
	out.Union.Alternatives = alternatives
	return out
}
