package types

import (
	"fmt"
	"strings"
)

// Kind identifies one of the static types a Sophia expression can have.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindList
	KindFptr
	KindClass
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindFptr:
		return "func"
	case KindClass:
		return "class"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Element is one positional slot of a structural list type.
type Element struct {
	Name string // empty for unnamed elements
	Type *Type
}

// Type is a resolved static type.
type Type struct {
	Kind Kind
	// KindClass:
	Name string
	// KindList:
	Elements []Element
	// KindFptr:
	Args   []*Type
	Return *Type
}

var (
	Int    = &Type{Kind: KindInt}
	Bool   = &Type{Kind: KindBool}
	String = &Type{Kind: KindString}
	// Null is the type of the null literal and the return type of
	// methods that return nothing.
	Null = &Type{Kind: KindNull}
)

func NewClass(name string) *Type {
	return &Type{Kind: KindClass, Name: name}
}

func NewList(elements ...Element) *Type {
	return &Type{Kind: KindList, Elements: elements}
}

// NewListOf returns a list type of n unnamed elements of type elem.
func NewListOf(n int, elem *Type) *Type {
	elements := make([]Element, n)
	for i := range elements {
		elements[i] = Element{Type: elem}
	}
	return NewList(elements...)
}

func NewFptr(args []*Type, ret *Type) *Type {
	return &Type{Kind: KindFptr, Args: args, Return: ret}
}

// IsPrimitive reports whether values of t live unboxed on the operand stack.
func (t *Type) IsPrimitive() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindBool)
}

// IsVoid reports whether t, used as a return type, means "returns nothing".
func (t *Type) IsVoid() bool {
	return t == nil || t.Kind == KindNull
}

// ElementIndex returns the position of the named element of a list type.
func (t *Type) ElementIndex(name string) (int, bool) {
	if t == nil || t.Kind != KindList {
		return 0, false
	}
	for i, e := range t.Elements {
		if e.Name != "" && e.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindClass:
		return t.Name
	case KindList:
		var parts []string
		for _, e := range t.Elements {
			if e.Name != "" {
				parts = append(parts, e.Name+":"+e.Type.String())
			} else {
				parts = append(parts, e.Type.String())
			}
		}
		return "list(" + strings.Join(parts, ", ") + ")"
	case KindFptr:
		var args []string
		for _, a := range t.Args {
			args = append(args, a.String())
		}
		ret := "void"
		if !t.Return.IsVoid() {
			ret = t.Return.String()
		}
		return "func<" + strings.Join(args, ", ") + " -> " + ret + ">"
	default:
		return t.Kind.String()
	}
}

// Equal compares two types. List types compare structurally: same arity
// and pairwise equal element types. Element names are ignored.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindClass:
		return a.Name == b.Name
	case KindList:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i].Type, b.Elements[i].Type) {
				return false
			}
		}
		return true
	case KindFptr:
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		if a.Return.IsVoid() || b.Return.IsVoid() {
			return a.Return.IsVoid() && b.Return.IsVoid()
		}
		return Equal(a.Return, b.Return)
	default:
		return true
	}
}

// Homogeneous reports whether every element of a list type has the same
// type, returning that type.
func (t *Type) Homogeneous() (*Type, bool) {
	if t == nil || t.Kind != KindList || len(t.Elements) == 0 {
		return nil, false
	}
	first := t.Elements[0].Type
	for _, e := range t.Elements[1:] {
		if !Equal(first, e.Type) {
			return nil, false
		}
	}
	return first, true
}
