package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// reusedTarget is a list element or field whose list or object (and index)
// have been evaluated into temporaries.
type reusedTarget struct {
	expr  ast.Expr
	key   string // ToSExpr of expr
	temps int

	owner int // slot holding the list or object
	index int // slot holding the boxed index, or -1
	elem  int // element index of a named list member when index is -1
	field *symtab.FieldSymbol
	t     *types.Type
}

// prepare evaluates the list or object of target, and its index if it
// has one, into fresh temporaries.
func (m *methodGen) prepare(target ast.Expr) *reusedTarget {
	r := &reusedTarget{expr: target, key: ast.ToSExpr(target), index: -1, t: typeOf(target)}
	switch target := target.(type) {
	case *ast.IndexExpr:
		r.owner, r.index, r.temps = m.temp(), m.temp(), 2
		m.value(target.Instance)
		m.emit(jasmin.AStore(r.owner))
		m.value(target.Index)
		m.box(target.Index, types.Int)
		m.emit(jasmin.AStore(r.index))
	case *ast.MemberAccess:
		inst := typeOf(target.Instance)
		switch inst.Kind {
		case types.KindClass:
			f, err := m.table().LookupField(inst.Name, target.Member)
			if err != nil {
				failErr(target, err, "%s is not a field of %s", target.Member, inst)
			}
			r.field = f
		case types.KindList:
			idx, ok := inst.ElementIndex(target.Member)
			if !ok {
				fail(target, "%s has no element %s", inst, target.Member)
			}
			r.elem = idx
		default:
			fail(target, "cannot assign to a member of %s", inst)
		}
		r.owner, r.temps = m.temp(), 1
		m.value(target.Instance)
		m.emit(jasmin.AStore(r.owner))
	default:
		fail(target, "cannot assign to %T", target)
	}
	return r
}

// pushRef pushes what the target's read or write consumes besides the
// value: the list and index, or the object.
func (m *methodGen) pushRef(r *reusedTarget) {
	m.emit(jasmin.ALoad(r.owner))
	switch {
	case r.field != nil:
	case r.index >= 0:
		m.emit(jasmin.ALoad(r.index))
		m.unbox(r.expr, types.Int)
	default:
		m.emit(jasmin.Int(int32(r.elem)))
	}
}

// load consumes the reference pushed by pushRef and pushes the target's
// current value.
func (m *methodGen) load(r *reusedTarget) {
	if r.field != nil {
		m.emit(jasmin.GetField(r.field.Owner, r.field.Name, descriptor(r.expr, r.field.Type)))
		if r.t.IsPrimitive() {
			m.unbox(r.expr, r.t)
		}
		return
	}
	m.emit(jasmin.InvokeVirtual(types.ListClass, "getElement", "(I)Ljava/lang/Object;"))
	m.fromObject(r.expr, r.t)
}

// store consumes the reference pushed by pushRef and the boxed value
// above it.
func (m *methodGen) store(r *reusedTarget) {
	if r.field != nil {
		m.emit(jasmin.PutField(r.field.Owner, r.field.Name, descriptor(r.expr, r.field.Type)))
		return
	}
	m.emit(jasmin.InvokeVirtual(types.ListClass, "setElement", "(ILjava/lang/Object;)V"))
}

// dupUnder copies the value on top of the stack below the reference
// pushed by pushRef.
func (m *methodGen) dupUnder(r *reusedTarget) {
	if r.field != nil {
		m.emit(jasmin.Simple("dup_x1"))
	} else {
		m.emit(jasmin.Simple("dup_x2"))
	}
}

// reused loads e from the temporaries of an enclosing assignment whose
// target is the same expression.
func (m *methodGen) reused(e ast.Expr) bool {
	if len(m.reuse) == 0 {
		return false
	}
	key := ast.ToSExpr(e)
	for i := len(m.reuse) - 1; i >= 0; i-- {
		r := &m.reuse[i]
		if r.key == key {
			m.pushRef(r)
			m.load(r)
			return true
		}
	}
	return false
}

// assign lowers lhs = rhs and leaves the assigned value on the stack.
// A list is copied on assignment, so the variable never aliases the
// right-hand side.
func (m *methodGen) assign(node ast.Node, lhs, rhs ast.Expr) {
	t := typeOf(lhs)
	if id, ok := lhs.(*ast.Identifier); ok {
		slot := m.slot(id, id.Name)
		m.assignedValue(rhs, t)
		m.emit(jasmin.Simple("dup"))
		m.box(id, t)
		m.emit(jasmin.AStore(slot))
		return
	}

	target := m.prepare(lhs)
	m.pushRef(target)
	if m.isPure(lhs) && m.isPure(rhs) {
		m.reuse = append(m.reuse, *target)
		m.assignedValue(rhs, t)
		m.reuse = m.reuse[:len(m.reuse)-1]
	} else {
		m.assignedValue(rhs, t)
	}
	m.dupUnder(target)
	m.box(lhs, t)
	m.store(target)
	m.release(node, target.temps)
}

func (m *methodGen) assignedValue(rhs ast.Expr, t *types.Type) {
	if t.Kind != types.KindList {
		m.value(rhs)
		return
	}
	m.emit(jasmin.NewObject(types.ListClass), jasmin.Simple("dup"))
	m.value(rhs)
	m.emit(jasmin.InvokeSpecial(types.ListClass, "<init>", "(LList;)V"))
}

// increment lowers ++ and -- on an int variable, element or field.
func (m *methodGen) increment(e *ast.UnaryExpr) {
	op := "iadd"
	if e.Op == ast.OpPreDec || e.Op == ast.OpPostDec {
		op = "isub"
	}
	post := e.Op == ast.OpPostInc || e.Op == ast.OpPostDec

	if id, ok := e.Operand.(*ast.Identifier); ok {
		slot := m.slot(id, id.Name)
		m.emit(jasmin.ALoad(slot))
		m.unbox(id, types.Int)
		if post {
			m.emit(jasmin.Simple("dup"))
		}
		m.emit(jasmin.Int(1), jasmin.Simple(op))
		if !post {
			m.emit(jasmin.Simple("dup"))
		}
		m.box(id, types.Int)
		m.emit(jasmin.AStore(slot))
		return
	}

	target := m.prepare(e.Operand)
	result := m.temp()
	m.pushRef(target)
	m.pushRef(target)
	m.load(target)
	if post {
		m.emit(jasmin.Simple("dup"))
		m.box(e, types.Int)
		m.emit(jasmin.AStore(result))
	}
	m.emit(jasmin.Int(1), jasmin.Simple(op))
	if !post {
		m.emit(jasmin.Simple("dup"))
		m.box(e, types.Int)
		m.emit(jasmin.AStore(result))
	}
	m.box(e, types.Int)
	m.store(target)
	m.emit(jasmin.ALoad(result))
	m.unbox(e, types.Int)
	m.release(e, target.temps+1)
}

// isPure reports whether evaluating e twice yields the same value and
// changes nothing.
func (m *methodGen) isPure(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.IntLit, *ast.BoolLit, *ast.StringLit, *ast.NullLit, *ast.This, *ast.Identifier:
		return true
	case *ast.BinaryExpr:
		return e.Op != ast.OpAssign && m.isPure(e.Left) && m.isPure(e.Right)
	case *ast.UnaryExpr:
		return (e.Op == ast.OpNeg || e.Op == ast.OpNot) && m.isPure(e.Operand)
	case *ast.IndexExpr:
		return m.isPure(e.Instance) && m.isPure(e.Index)
	case *ast.MemberAccess:
		t := e.Instance.Type()
		if t == nil || !m.isPure(e.Instance) {
			return false
		}
		switch t.Kind {
		case types.KindList:
			return true
		case types.KindClass:
			// A member naming a method creates a new bound method.
			_, err := m.table().LookupField(t.Name, e.Member)
			return err == nil
		}
	}
	return false
}
