package check

import (
	"errors"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// expr types e and its operands, stamps the result on e and returns it.
// A nil result means an error has already been reported.
func (c *checker) expr(e ast.Expr) *types.Type {
	t := c.typeOf(e)
	if t != nil {
		e.SetType(t)
	}
	return t
}

func (c *checker) typeOf(e ast.Expr) *types.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		return types.Int
	case *ast.BoolLit:
		return types.Bool
	case *ast.StringLit:
		return types.String
	case *ast.NullLit:
		return types.Null
	case *ast.This:
		return types.NewClass(c.class.Name)
	case *ast.Identifier:
		t, err := c.method.LocalType(e.Name)
		if err != nil {
			c.errorf(e, "undeclared variable %s", e.Name)
			return nil
		}
		return t
	case *ast.ListLit:
		elems := make([]types.Element, len(e.Elems))
		ok := true
		for i, el := range e.Elems {
			elems[i].Type = c.expr(el)
			if elems[i].Type == nil {
				ok = false
			} else if elems[i].Type.IsVoid() {
				c.errorf(el, "list element has no value")
				ok = false
			}
		}
		if !ok {
			return nil
		}
		return types.NewList(elems...)
	case *ast.BinaryExpr:
		return c.binary(e)
	case *ast.UnaryExpr:
		return c.unary(e)
	case *ast.IndexExpr:
		return c.index(e)
	case *ast.MemberAccess:
		return c.member(e)
	case *ast.MethodCall:
		return c.call(e)
	case *ast.NewInstance:
		return c.newInstance(e)
	}
	c.errorf(e, "unsupported expression %T", e)
	return nil
}

func (c *checker) binary(e *ast.BinaryExpr) *types.Type {
	if e.Op == ast.OpAssign {
		return c.assign(e, e.Left, e.Right)
	}
	left := c.expr(e.Left)
	right := c.expr(e.Right)
	if left == nil || right == nil {
		return nil
	}
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !types.Equal(left, types.Int) || !types.Equal(right, types.Int) {
			c.errorf(e, "operator %s needs int operands, got %s and %s", e.Op, left, right)
			return nil
		}
		return types.Int
	case ast.OpGt, ast.OpLt:
		if !types.Equal(left, types.Int) || !types.Equal(right, types.Int) {
			c.errorf(e, "operator %s needs int operands, got %s and %s", e.Op, left, right)
			return nil
		}
		return types.Bool
	case ast.OpAnd, ast.OpOr:
		if !types.Equal(left, types.Bool) || !types.Equal(right, types.Bool) {
			c.errorf(e, "operator %s needs bool operands, got %s and %s", e.Op, left, right)
			return nil
		}
		return types.Bool
	case ast.OpEq, ast.OpNeq:
		if !c.comparable(left, right) {
			c.errorf(e, "cannot compare %s with %s", left, right)
			return nil
		}
		return types.Bool
	}
	c.errorf(e, "unknown operator %s", e.Op)
	return nil
}

// comparable reports whether == may be applied. Lists of any shape may
// be compared; their equality is decided by their types.
func (c *checker) comparable(left, right *types.Type) bool {
	if left.Kind == types.KindList && right.Kind == types.KindList {
		return true
	}
	return c.assignable(left, right) || c.assignable(right, left)
}

func (c *checker) unary(e *ast.UnaryExpr) *types.Type {
	operand := c.expr(e.Operand)
	if operand == nil {
		return nil
	}
	switch e.Op {
	case ast.OpNeg:
		if !types.Equal(operand, types.Int) {
			c.errorf(e, "operator - needs an int operand, got %s", operand)
			return nil
		}
		return types.Int
	case ast.OpNot:
		if !types.Equal(operand, types.Bool) {
			c.errorf(e, "operator ! needs a bool operand, got %s", operand)
			return nil
		}
		return types.Bool
	case ast.OpPreInc, ast.OpPostInc, ast.OpPreDec, ast.OpPostDec:
		if !types.Equal(operand, types.Int) {
			c.errorf(e, "operator %s needs an int operand, got %s", e.Op, operand)
			return nil
		}
		if !c.isLValue(e.Operand) {
			c.errorf(e, "cannot apply %s to %s", e.Op, ast.ToSExpr(e.Operand))
			return nil
		}
		return types.Int
	}
	c.errorf(e, "unknown operator %s", e.Op)
	return nil
}

func (c *checker) index(e *ast.IndexExpr) *types.Type {
	list := c.expr(e.Instance)
	index := c.expr(e.Index)
	if list == nil || index == nil {
		return nil
	}
	if list.Kind != types.KindList {
		c.errorf(e, "cannot index %s", list)
		return nil
	}
	if !types.Equal(index, types.Int) {
		c.errorf(e.Index, "list index must be int, got %s", index)
		return nil
	}
	if lit, ok := e.Index.(*ast.IntLit); ok {
		if lit.Value < 0 || int(lit.Value) >= len(list.Elements) {
			c.errorf(e.Index, "index %d out of range for %s", lit.Value, list)
			return nil
		}
		return list.Elements[lit.Value].Type
	}
	elem, ok := list.Homogeneous()
	if !ok {
		c.errorf(e, "cannot index %s with a non-constant index", list)
		return nil
	}
	return elem
}

func (c *checker) member(e *ast.MemberAccess) *types.Type {
	inst := c.expr(e.Instance)
	if inst == nil {
		return nil
	}
	switch inst.Kind {
	case types.KindClass:
		f, err := c.table.LookupField(inst.Name, e.Member)
		if err == nil {
			return f.Type
		}
		m, err := c.table.LookupMethod(inst.Name, e.Member)
		if err == nil {
			c.boundMethods[e] = true
			return m.Type()
		}
		if errors.Is(err, symtab.ErrNotFound) {
			c.errorf(e, "class %s has no member %s", inst.Name, e.Member)
			return nil
		}
		c.errorf(e, "%v", err)
		return nil
	case types.KindList:
		i, ok := inst.ElementIndex(e.Member)
		if !ok {
			c.errorf(e, "%s has no element named %s", inst, e.Member)
			return nil
		}
		return inst.Elements[i].Type
	}
	c.errorf(e, "%s has no members", inst)
	return nil
}

func (c *checker) call(e *ast.MethodCall) *types.Type {
	callee := c.expr(e.Instance)
	args := c.exprs(e.Args)
	if callee == nil || args == nil {
		return nil
	}
	if callee.Kind != types.KindFptr {
		c.errorf(e, "cannot call %s", callee)
		return nil
	}
	if !c.argsMatch(e, callee.Args, args) {
		return nil
	}
	if callee.Return == nil || callee.Return.IsVoid() {
		if c.discarded != ast.Expr(e) {
			c.errorf(e, "value of %s used, but it returns nothing", ast.ToSExpr(e.Instance))
		}
		return types.Null
	}
	return callee.Return
}

func (c *checker) newInstance(e *ast.NewInstance) *types.Type {
	args := c.exprs(e.Args)
	params, err := c.table.ConstructorParams(e.Class)
	if err != nil {
		c.errorf(e, "unknown class %s", e.Class)
		return nil
	}
	if args == nil || !c.argsMatch(e, params, args) {
		return nil
	}
	return types.NewClass(e.Class)
}

// exprs types a list of expressions, returning nil if any failed.
func (c *checker) exprs(list []ast.Expr) []*types.Type {
	out := make([]*types.Type, len(list))
	ok := true
	for i, e := range list {
		out[i] = c.expr(e)
		if out[i] == nil {
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return out
}

func (c *checker) argsMatch(node ast.Node, params, args []*types.Type) bool {
	if len(params) != len(args) {
		c.errorf(node, "expected %d arguments, got %d", len(params), len(args))
		return false
	}
	for i := range params {
		if !c.assignable(params[i], args[i]) {
			c.errorf(node, "argument %d: cannot use %s as %s", i+1, args[i], params[i])
			return false
		}
	}
	return true
}
