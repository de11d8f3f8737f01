package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// pushesValue reports whether lowering e leaves a value on the stack.
// Only calls of methods that return nothing do not.
func pushesValue(e ast.Expr) bool {
	call, ok := e.(*ast.MethodCall)
	return !ok || !typeOf(call).IsVoid()
}

// value lowers e where a value is required.
func (m *methodGen) value(e ast.Expr) {
	if !pushesValue(e) {
		fail(e, "call of a method returning nothing used as a value")
	}
	m.expr(e)
}

// expr lowers e, leaving its value in stack representation.
func (m *methodGen) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		m.emit(jasmin.Int(e.Value))
	case *ast.BoolLit:
		m.emit(jasmin.Int(boolInt(e.Value)))
	case *ast.StringLit:
		m.emit(jasmin.String(e.Value))
	case *ast.NullLit:
		m.emit(jasmin.Null())
	case *ast.This:
		m.emit(jasmin.ALoad(0))
	case *ast.Identifier:
		m.emit(jasmin.ALoad(m.slot(e, e.Name)))
		if t := typeOf(e); t.IsPrimitive() {
			m.unbox(e, t)
		}
	case *ast.ListLit:
		m.newList(e, len(e.Elems), func(i int) {
			m.value(e.Elems[i])
			m.box(e.Elems[i], typeOf(e.Elems[i]))
		})
	case *ast.BinaryExpr:
		m.binary(e)
	case *ast.UnaryExpr:
		m.unary(e)
	case *ast.IndexExpr:
		if m.reused(e) {
			return
		}
		m.value(e.Instance)
		m.value(e.Index)
		m.emit(jasmin.InvokeVirtual(types.ListClass, "getElement", "(I)Ljava/lang/Object;"))
		m.fromObject(e, typeOf(e))
	case *ast.MemberAccess:
		if m.reused(e) {
			return
		}
		m.member(e)
	case *ast.MethodCall:
		m.call(e)
	case *ast.NewInstance:
		m.newInstance(e)
	default:
		fail(e, "unsupported expression %T", e)
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// slot returns the slot of a parameter or local variable.
func (m *methodGen) slot(node ast.Node, name string) int {
	slot, ok := m.slots.lookup(name)
	if !ok {
		fail(node, "variable %s has no slot", name)
	}
	return slot
}

var arithmetic = map[ast.BinaryOp]string{
	ast.OpAdd: "iadd",
	ast.OpSub: "isub",
	ast.OpMul: "imul",
	ast.OpDiv: "idiv",
	ast.OpMod: "irem",
}

func (m *methodGen) binary(e *ast.BinaryExpr) {
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		m.value(e.Left)
		m.value(e.Right)
		m.emit(jasmin.Simple(arithmetic[e.Op]))
	case ast.OpGt:
		m.compare(e, "if_icmpgt")
	case ast.OpLt:
		m.compare(e, "if_icmplt")
	case ast.OpEq:
		m.equality(e, false)
	case ast.OpNeq:
		m.equality(e, true)
	case ast.OpAnd, ast.OpOr:
		m.branchValue(e)
	case ast.OpAssign:
		m.assign(e, e.Left, e.Right)
	default:
		fail(e, "unknown binary operator %s", e.Op)
	}
}

// compare lowers both operands and turns the outcome of a two-operand
// conditional jump into 0 or 1.
func (m *methodGen) compare(e *ast.BinaryExpr, jump string) {
	m.value(e.Left)
	m.value(e.Right)
	m.boolFromJump(jump)
}

// boolFromJump consumes the operands of the conditional jump and pushes
// 1 if it is taken and 0 otherwise.
func (m *methodGen) boolFromJump(jump string) {
	isTrue := m.labels.newLabel()
	end := m.labels.newLabel()
	m.emit(
		jasmin.If(jump, isTrue),
		jasmin.Int(0),
		jasmin.Goto(end),
		jasmin.Mark(isTrue),
		jasmin.Int(1),
		jasmin.Mark(end),
	)
}

// equality lowers == (or != when negate is set) according to the
// operand types: values for int and bool, contents for strings, shape
// for lists and identity for everything else.
func (m *methodGen) equality(e *ast.BinaryExpr, negate bool) {
	left, right := typeOf(e.Left), typeOf(e.Right)
	t := left
	if t.Kind == types.KindNull {
		t = right
	}
	switch {
	case t.IsPrimitive():
		m.value(e.Left)
		m.value(e.Right)
		m.boolFromJump(pick(negate, "if_icmpne", "if_icmpeq"))
	case t.Kind == types.KindString && right.Kind == types.KindString:
		m.value(e.Left)
		m.value(e.Right)
		m.emit(jasmin.InvokeVirtual(types.StringClass, "equals", "(Ljava/lang/Object;)Z"))
		if negate {
			m.not()
		}
	case t.Kind == types.KindList:
		// Lists compare by type: the operands run for their effects only.
		m.value(e.Left)
		m.emit(jasmin.Simple("pop"))
		m.value(e.Right)
		m.emit(jasmin.Simple("pop"))
		m.emit(jasmin.Int(boolInt(types.Equal(left, right) != negate)))
	default:
		m.value(e.Left)
		m.value(e.Right)
		m.boolFromJump(pick(negate, "if_acmpne", "if_acmpeq"))
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func (m *methodGen) not() {
	m.emit(jasmin.Int(1), jasmin.Simple("ixor"))
}

func (m *methodGen) unary(e *ast.UnaryExpr) {
	switch e.Op {
	case ast.OpNeg:
		m.value(e.Operand)
		m.emit(jasmin.Simple("ineg"))
	case ast.OpNot:
		m.value(e.Operand)
		m.not()
	case ast.OpPreInc, ast.OpPostInc, ast.OpPreDec, ast.OpPostDec:
		m.increment(e)
	default:
		fail(e, "unknown unary operator %s", e.Op)
	}
}

func (m *methodGen) newInstance(e *ast.NewInstance) {
	params, err := m.table().ConstructorParams(e.Class)
	if err != nil {
		failErr(e, err, "class %s not found", e.Class)
	}
	m.emit(jasmin.NewObject(e.Class), jasmin.Simple("dup"))
	for _, arg := range e.Args {
		m.value(arg)
		m.box(arg, typeOf(arg))
	}
	m.emit(jasmin.InvokeSpecial(e.Class, "<init>", methodDescriptor(e, params, types.Null)))
}
