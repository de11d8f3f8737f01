// Package check stamps a static type on every expression of a program
// and rejects programs the code generator cannot lower.
package check

import (
	"errors"
	"fmt"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// Annotate types every expression in prog. All problems found are
// returned joined; expressions that could not be typed are left nil.
func Annotate(prog *ast.Program, table *symtab.Table) error {
	c := &checker{table: table, boundMethods: make(map[*ast.MemberAccess]bool)}
	for _, class := range prog.Classes {
		c.class = class
		for _, f := range class.Fields {
			c.checkDeclared(f.Var)
		}
		if class.Constructor != nil {
			c.checkMethod(class.Constructor)
		}
		for _, m := range class.Methods {
			c.checkMethod(m)
		}
	}
	return errors.Join(c.errs...)
}

type checker struct {
	table  *symtab.Table
	class  *ast.ClassDecl
	method *symtab.MethodSymbol
	loops  int
	errs   []error

	// Member accesses that name a method rather than a field.
	boundMethods map[*ast.MemberAccess]bool
	// The call of the statement being checked, whose result is discarded.
	discarded ast.Expr
}

func (c *checker) errorf(node ast.Node, format string, args ...any) {
	pos := node.Pos()
	c.errs = append(c.errs, fmt.Errorf("%s: %s", pos.Location(), fmt.Sprintf(format, args...)))
}

// checkDeclared verifies that class types named by a declaration exist.
func (c *checker) checkDeclared(v *ast.VarDecl) {
	if name, ok := c.unknownClass(v.Type); ok {
		c.errorf(v, "%s has unknown type %s", v.Name, name)
	}
}

func (c *checker) unknownClass(t *types.Type) (string, bool) {
	switch t.Kind {
	case types.KindClass:
		if _, err := c.table.Class(t.Name); err != nil {
			return t.Name, true
		}
	case types.KindList:
		for _, e := range t.Elements {
			if name, ok := c.unknownClass(e.Type); ok {
				return name, true
			}
		}
	case types.KindFptr:
		for _, a := range t.Args {
			if name, ok := c.unknownClass(a); ok {
				return name, true
			}
		}
		if t.Return != nil {
			return c.unknownClass(t.Return)
		}
	}
	return "", false
}

func (c *checker) checkMethod(decl *ast.MethodDecl) {
	m, err := c.table.Method(c.class.Name, decl)
	if err != nil {
		c.errorf(decl, "%v", err)
		return
	}
	c.method = m
	c.loops = 0
	seen := make(map[string]bool)
	for _, v := range append(append([]*ast.VarDecl{}, decl.Params...), decl.Locals...) {
		if seen[v.Name] {
			c.errorf(v, "variable %s redeclared", v.Name)
		}
		seen[v.Name] = true
		c.checkDeclared(v)
	}
	for _, s := range decl.Body {
		c.stmt(s)
	}
}

func (c *checker) stmt(s ast.Statement) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		c.assign(s, s.LValue, s.RValue)
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			c.stmt(inner)
		}
	case *ast.ConditionalStmt:
		c.expect(s.Cond, types.Bool)
		c.stmt(s.Then)
		if s.Else != nil {
			c.stmt(s.Else)
		}
	case *ast.MethodCallStmt:
		c.discarded = s.Call
		c.expr(s.Call)
	case *ast.PrintStmt:
		t := c.expr(s.Arg)
		if t != nil && t.Kind == types.KindNull {
			c.errorf(s, "cannot print a value of type %s", t)
		}
	case *ast.ReturnStmt:
		c.returnStmt(s)
	case *ast.BreakStmt:
		if c.loops == 0 {
			c.errorf(s, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if c.loops == 0 {
			c.errorf(s, "continue outside of a loop")
		}
	case *ast.ForStmt:
		if s.Init != nil {
			c.stmt(s.Init)
		}
		if s.Cond != nil {
			c.expect(s.Cond, types.Bool)
		}
		if s.Update != nil {
			c.stmt(s.Update)
		}
		c.loops++
		c.stmt(s.Body)
		c.loops--
	case *ast.ForeachStmt:
		c.foreach(s)
	case *ast.ExprStmt:
		c.discarded = s.X
		c.expr(s.X)
	default:
		c.errorf(s, "unsupported statement %T", s)
	}
}

func (c *checker) returnStmt(s *ast.ReturnStmt) {
	want := c.method.Return
	if s.Value == nil {
		if !want.IsVoid() {
			c.errorf(s, "missing return value of type %s", want)
		}
		return
	}
	got := c.expr(s.Value)
	if want.IsVoid() {
		c.errorf(s, "%s returns no value", c.method.Name)
		return
	}
	if got != nil && !c.assignable(want, got) {
		c.errorf(s, "cannot return %s from %s returning %s", got, c.method.Name, want)
	}
}

func (c *checker) foreach(s *ast.ForeachStmt) {
	varType := c.expr(s.Var)
	listType := c.expr(s.List)
	if listType != nil {
		if listType.Kind != types.KindList {
			c.errorf(s.List, "cannot iterate over %s", listType)
		} else if len(listType.Elements) > 0 {
			elem, ok := listType.Homogeneous()
			if !ok {
				c.errorf(s.List, "cannot iterate over non-homogeneous %s", listType)
			} else if varType != nil && !c.assignable(varType, elem) {
				c.errorf(s.Var, "loop variable %s of type %s cannot hold %s", s.Var.Name, varType, elem)
			}
		}
	}
	c.loops++
	c.stmt(s.Body)
	c.loops--
}

func (c *checker) expect(e ast.Expr, want *types.Type) {
	got := c.expr(e)
	if got != nil && !types.Equal(got, want) {
		c.errorf(e, "expected %s, got %s", want, got)
	}
}

// assignable reports whether a value of type from can be stored where
// type to is declared.
func (c *checker) assignable(to, from *types.Type) bool {
	if types.Equal(to, from) {
		return true
	}
	if from.Kind == types.KindNull {
		return to.Kind == types.KindClass || to.Kind == types.KindFptr
	}
	if to.Kind == types.KindClass && from.Kind == types.KindClass {
		return c.table.IsSubclass(from.Name, to.Name)
	}
	return false
}

func (c *checker) isLValue(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Identifier, *ast.IndexExpr:
		return true
	case *ast.MemberAccess:
		return !c.boundMethods[e]
	}
	return false
}

func (c *checker) assign(node ast.Node, lhs, rhs ast.Expr) *types.Type {
	to := c.expr(lhs)
	from := c.expr(rhs)
	if to == nil || from == nil {
		return to
	}
	if !c.isLValue(lhs) {
		c.errorf(lhs, "cannot assign to %s", ast.ToSExpr(lhs))
		return to
	}
	if !c.assignable(to, from) {
		c.errorf(node, "cannot assign %s to %s", from, to)
	}
	return to
}
