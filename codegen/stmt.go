package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// body lowers the statements of a method or constructor. Falling off the
// end of a void method returns; a method with a result cannot get there
// once checked, but the code still has to end in a return.
func (m *methodGen) body(node ast.Node, stmts []ast.Statement, ret *types.Type) {
	for _, s := range stmts {
		next := m.labels.newLabel()
		m.push(next, "", "")
		m.stmt(s)
		m.pop(s)
		m.mark(next)
	}
	if ret == nil || ret.IsVoid() {
		m.emit(jasmin.VoidReturn())
		return
	}
	m.emit(jasmin.Null(), jasmin.AReturn())
}

// stmt lowers s under the current label frame. Unless s leaves by
// return, break or continue, its code ends with a jump to the frame's
// after label.
func (m *methodGen) stmt(s ast.Statement) {
	temps := m.slots.temps
	f := m.frame(s)

	switch s := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			next := m.labels.newLabel()
			m.push(next, f.brk, f.cont)
			m.stmt(inner)
			m.pop(inner)
			m.mark(next)
		}
		m.emit(jasmin.Goto(f.after))
	case *ast.ConditionalStmt:
		m.conditional(s, f)
	case *ast.ForStmt:
		m.forLoop(s, f)
	case *ast.ForeachStmt:
		m.foreach(s, f)
	case *ast.AssignStmt:
		m.assign(s, s.LValue, s.RValue)
		m.emit(jasmin.Simple("pop"), jasmin.Goto(f.after))
	case *ast.MethodCallStmt:
		m.discard(s.Call)
		m.emit(jasmin.Goto(f.after))
	case *ast.ExprStmt:
		m.discard(s.X)
		m.emit(jasmin.Goto(f.after))
	case *ast.PrintStmt:
		m.print(s)
		m.emit(jasmin.Goto(f.after))
	case *ast.ReturnStmt:
		m.ret(s)
	case *ast.BreakStmt:
		if f.brk == "" {
			fail(s, "break outside of a loop")
		}
		m.emit(jasmin.Goto(f.brk))
	case *ast.ContinueStmt:
		if f.cont == "" {
			fail(s, "continue outside of a loop")
		}
		m.emit(jasmin.Goto(f.cont))
	default:
		fail(s, "unsupported statement %T", s)
	}

	if m.slots.temps != temps {
		fail(s, "statement left %d temporaries reserved", m.slots.temps-temps)
	}
}

// discard lowers e for its side effects only.
func (m *methodGen) discard(e ast.Expr) {
	m.expr(e)
	if pushesValue(e) {
		m.emit(jasmin.Simple("pop"))
	}
}

func (m *methodGen) ret(s *ast.ReturnStmt) {
	want := types.Null
	if m.sym != nil {
		want = m.sym.Return
	}
	if s.Value == nil {
		if !want.IsVoid() {
			fail(s, "return without a value in a method returning %s", want)
		}
		m.emit(jasmin.VoidReturn())
		return
	}
	if want.IsVoid() {
		fail(s, "return with a value in a method returning nothing")
	}
	m.value(s.Value)
	m.box(s.Value, typeOf(s.Value))
	m.emit(jasmin.AReturn())
}

func (m *methodGen) conditional(s *ast.ConditionalStmt, f frame) {
	then := m.labels.newLabel()
	els := m.labels.newLabel()
	m.branch(s.Cond, then, els)

	m.mark(then)
	m.push(f.after, f.brk, f.cont)
	m.stmt(s.Then)
	m.pop(s)

	m.mark(els)
	if s.Else == nil {
		m.emit(jasmin.Goto(f.after))
		return
	}
	m.push(f.after, f.brk, f.cont)
	m.stmt(s.Else)
	m.pop(s)
}

// forLoop lowers init; cond; update around the body. Inside the body
// break leaves the loop and continue runs the update.
func (m *methodGen) forLoop(s *ast.ForStmt, f frame) {
	cond := m.labels.newLabel()
	body := m.labels.newLabel()
	update := m.labels.newLabel()

	if s.Init != nil {
		m.push(cond, f.brk, cond)
		m.stmt(s.Init)
		m.pop(s)
	}

	m.mark(cond)
	if s.Cond != nil {
		m.branch(s.Cond, body, f.after)
	} else {
		m.emit(jasmin.Goto(body))
	}

	m.mark(body)
	m.push(update, f.after, update)
	m.stmt(s.Body)
	m.pop(s)

	m.mark(update)
	if s.Update != nil {
		m.push(cond, f.after, update)
		m.stmt(s.Update)
		m.pop(s)
	} else {
		m.emit(jasmin.Goto(cond))
	}
}

// foreach walks the list by index. The list is evaluated once, and every
// element is cast to the loop variable's type before it is stored.
func (m *methodGen) foreach(s *ast.ForeachStmt, f frame) {
	cond := m.labels.newLabel()
	update := m.labels.newLabel()
	varSlot := m.slot(s.Var, s.Var.Name)
	varType := typeOf(s.Var)

	list := m.temp()
	index := m.temp()
	m.value(s.List)
	m.emit(jasmin.AStore(list))
	m.emit(jasmin.Int(0))
	m.box(s, types.Int)
	m.emit(jasmin.AStore(index))

	m.emit(
		jasmin.Mark(cond),
		jasmin.ALoad(index),
	)
	m.unbox(s, types.Int)
	m.emit(
		jasmin.ALoad(list),
		jasmin.InvokeVirtual(types.ListClass, "getSize", "()I"),
		jasmin.If("if_icmpge", f.after),
		jasmin.ALoad(list),
		jasmin.ALoad(index),
	)
	m.unbox(s, types.Int)
	m.emit(
		jasmin.InvokeVirtual(types.ListClass, "getElement", "(I)Ljava/lang/Object;"),
		jasmin.Cast(internalName(s.Var, varType)),
		jasmin.AStore(varSlot),
	)

	m.push(update, f.after, update)
	m.stmt(s.Body)
	m.pop(s)

	m.mark(update)
	m.emit(jasmin.ALoad(index))
	m.unbox(s, types.Int)
	m.emit(jasmin.Int(1), jasmin.Simple("iadd"))
	m.box(s, types.Int)
	m.emit(jasmin.AStore(index), jasmin.Goto(cond))
	m.release(s, 2)
}
