package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
)

// branch lowers the condition e as control flow: execution continues at
// onTrue or onFalse and nothing is left on the stack. The right operand
// of && and || is skipped once the left one decides the outcome.
func (m *methodGen) branch(e ast.Expr, onTrue, onFalse string) {
	switch e := e.(type) {
	case *ast.BoolLit:
		if e.Value {
			m.emit(jasmin.Goto(onTrue))
		} else {
			m.emit(jasmin.Goto(onFalse))
		}
		return
	case *ast.UnaryExpr:
		if e.Op == ast.OpNot {
			m.branch(e.Operand, onFalse, onTrue)
			return
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case ast.OpAnd:
			right := m.labels.newLabel()
			m.branch(e.Left, right, onFalse)
			m.mark(right)
			m.branch(e.Right, onTrue, onFalse)
			return
		case ast.OpOr:
			right := m.labels.newLabel()
			m.branch(e.Left, onTrue, right)
			m.mark(right)
			m.branch(e.Right, onTrue, onFalse)
			return
		}
	}
	m.value(e)
	m.emit(jasmin.If("ifeq", onFalse), jasmin.Goto(onTrue))
}

// branchValue lowers && or || where a value is needed.
func (m *methodGen) branchValue(e *ast.BinaryExpr) {
	onTrue := m.labels.newLabel()
	onFalse := m.labels.newLabel()
	end := m.labels.newLabel()
	m.branch(e, onTrue, onFalse)
	m.emit(
		jasmin.Mark(onTrue),
		jasmin.Int(1),
		jasmin.Goto(end),
		jasmin.Mark(onFalse),
		jasmin.Int(0),
		jasmin.Mark(end),
	)
}
