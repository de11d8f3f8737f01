package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

const (
	integerValueOf = "(I)Ljava/lang/Integer;"
	booleanValueOf = "(Z)Ljava/lang/Boolean;"
)

// box converts the stack representation of a value of type t into the
// representation stored in slots, fields and lists.
func (m *methodGen) box(node ast.Node, t *types.Type) {
	if t == nil {
		fail(node, "cannot box a value without a type")
	}
	switch t.Kind {
	case types.KindInt:
		m.emit(jasmin.InvokeStatic(types.IntegerClass, "valueOf", integerValueOf))
	case types.KindBool:
		m.emit(jasmin.InvokeStatic(types.BooleanClass, "valueOf", booleanValueOf))
	case types.KindString, types.KindList, types.KindFptr, types.KindClass, types.KindNull:
		// References are stored as they are.
	default:
		fail(node, "cannot box a value of type %s", t)
	}
}

// unbox converts a boxed int or bool on the stack back to its stack
// representation. The box must already have its precise class.
func (m *methodGen) unbox(node ast.Node, t *types.Type) {
	switch {
	case types.Equal(t, types.Int):
		m.emit(jasmin.InvokeVirtual(types.IntegerClass, "intValue", "()I"))
	case types.Equal(t, types.Bool):
		m.emit(jasmin.InvokeVirtual(types.BooleanClass, "booleanValue", "()Z"))
	default:
		fail(node, "cannot unbox a value of type %s", t)
	}
}

// fromObject converts a java/lang/Object on the stack, as returned by
// List.getElement and Fptr.invoke, into the stack representation of t.
func (m *methodGen) fromObject(node ast.Node, t *types.Type) {
	if t.Kind == types.KindNull {
		return
	}
	m.emit(jasmin.Cast(internalName(node, t)))
	if t.IsPrimitive() {
		m.unbox(node, t)
	}
}

// pushDefault pushes the boxed initial value of a variable of type t:
// zero, false, the empty string, a list of defaults, or null.
func (m *methodGen) pushDefault(node ast.Node, t *types.Type) {
	switch t.Kind {
	case types.KindInt:
		m.emit(jasmin.Int(0))
		m.box(node, t)
	case types.KindBool:
		m.emit(jasmin.Int(0))
		m.box(node, t)
	case types.KindString:
		m.emit(jasmin.String(""))
	case types.KindList:
		m.newList(node, len(t.Elements), func(i int) {
			m.pushDefault(node, t.Elements[i].Type)
		})
	case types.KindFptr, types.KindClass:
		m.emit(jasmin.Null())
	default:
		fail(node, "no default value for type %s", t)
	}
}

// newList pushes a new List holding n elements. pushElem(i) must push
// the boxed value of element i.
func (m *methodGen) newList(node ast.Node, n int, pushElem func(i int)) {
	m.emit(
		jasmin.NewObject(types.ListClass),
		jasmin.Simple("dup"),
		jasmin.NewObject(types.ArrayListClass),
		jasmin.Simple("dup"),
		jasmin.InvokeSpecial(types.ArrayListClass, "<init>", "()V"),
	)
	for i := range n {
		m.emit(jasmin.Simple("dup"))
		pushElem(i)
		m.emit(
			jasmin.InvokeVirtual(types.ArrayListClass, "add", "(Ljava/lang/Object;)Z"),
			jasmin.Simple("pop"),
		)
	}
	m.emit(jasmin.InvokeSpecial(types.ListClass, "<init>", "(Ljava/util/ArrayList;)V"))
}
