package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

const (
	fptrInit   = "(Ljava/lang/Object;Ljava/lang/String;)V"
	fptrInvoke = "(Ljava/util/ArrayList;)Ljava/lang/Object;"
)

// member lowers a field read, a named list element read, or a bound
// method.
func (m *methodGen) member(e *ast.MemberAccess) {
	inst := typeOf(e.Instance)
	switch inst.Kind {
	case types.KindClass:
		if f, err := m.table().LookupField(inst.Name, e.Member); err == nil {
			m.value(e.Instance)
			m.emit(jasmin.GetField(f.Owner, f.Name, descriptor(e, f.Type)))
			if f.Type.IsPrimitive() {
				m.unbox(e, f.Type)
			}
			return
		}
		if _, err := m.table().LookupMethod(inst.Name, e.Member); err != nil {
			failErr(e, err, "%s is neither a field nor a method of %s", e.Member, inst)
		}
		m.emit(jasmin.NewObject(types.FptrClass), jasmin.Simple("dup"))
		m.value(e.Instance)
		m.emit(
			jasmin.String(e.Member),
			jasmin.InvokeSpecial(types.FptrClass, "<init>", fptrInit),
		)
	case types.KindList:
		idx, ok := inst.ElementIndex(e.Member)
		if !ok {
			fail(e, "%s has no element %s", inst, e.Member)
		}
		m.value(e.Instance)
		m.emit(
			jasmin.Int(int32(idx)),
			jasmin.InvokeVirtual(types.ListClass, "getElement", "(I)Ljava/lang/Object;"),
		)
		m.fromObject(e, typeOf(e))
	default:
		fail(e, "member %s of a value of type %s", e.Member, inst)
	}
}

// call invokes a bound method with its arguments packed into an
// ArrayList. Nothing is left on the stack when the method returns
// nothing.
func (m *methodGen) call(e *ast.MethodCall) {
	callee := typeOf(e.Instance)
	if callee.Kind != types.KindFptr {
		fail(e, "call of a value of type %s", callee)
	}
	m.value(e.Instance)
	m.emit(
		jasmin.NewObject(types.ArrayListClass),
		jasmin.Simple("dup"),
		jasmin.InvokeSpecial(types.ArrayListClass, "<init>", "()V"),
	)
	for _, arg := range e.Args {
		m.emit(jasmin.Simple("dup"))
		m.value(arg)
		m.box(arg, typeOf(arg))
		m.emit(
			jasmin.InvokeVirtual(types.ArrayListClass, "add", "(Ljava/lang/Object;)Z"),
			jasmin.Simple("pop"),
		)
	}
	m.emit(jasmin.InvokeVirtual(types.FptrClass, "invoke", fptrInvoke))
	ret := callee.Return
	if ret == nil || ret.IsVoid() {
		m.emit(jasmin.Simple("pop"))
		return
	}
	m.fromObject(e, ret)
}

// print lowers a print statement with the println overload matching the
// argument's type.
func (m *methodGen) print(s *ast.PrintStmt) {
	t := typeOf(s.Arg)
	var desc string
	switch t.Kind {
	case types.KindInt:
		desc = "(I)V"
	case types.KindBool:
		desc = "(Z)V"
	case types.KindString:
		desc = "(Ljava/lang/String;)V"
	case types.KindList, types.KindClass, types.KindFptr:
		desc = "(Ljava/lang/Object;)V"
	default:
		fail(s, "cannot print a value of type %s", t)
	}
	m.emit(jasmin.GetStatic("java/lang/System", "out", "Ljava/io/PrintStream;"))
	m.value(s.Arg)
	m.emit(jasmin.InvokeVirtual("java/io/PrintStream", "println", desc))
}
