package codegen

import (
	"errors"
	"fmt"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
)

// ErrInternal matches every error reported for a program the generator
// was given but could not lower: a symbol the checker should have
// resolved is missing, a temporary slot or label frame leaked, a value
// has the wrong representation, or the emitted code failed stack
// analysis.
var ErrInternal = errors.New("internal compiler error")

// Error is an internal compiler error located in the program.
type Error struct {
	Class  string
	Method string // empty for errors outside any method
	Node   string // the offending node as an s-expression, if known
	Pos    ast.Span
	Msg    string
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	where := e.Class
	if e.Method != "" {
		where += "." + e.Method
	}
	msg := fmt.Sprintf("%s: %s: %s", where, ErrInternal, e.Msg)
	if e.Pos != (ast.Span{}) {
		msg = fmt.Sprintf("%s: %s: %s: %s", e.Pos.Location(), where, ErrInternal, e.Msg)
	}
	if e.Node != "" {
		msg += " in " + e.Node
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == ErrInternal
}

func (e *Error) Unwrap() error {
	return e.Err
}

// failure is the panic value that carries an internal compiler error
// from deep in lowering up to the class boundary.
type failure struct {
	node ast.Node
	msg  string
	err  error
}

func fail(node ast.Node, format string, args ...any) {
	panic(failure{node: node, msg: fmt.Sprintf(format, args...)})
}

func failErr(node ast.Node, err error, format string, args ...any) {
	panic(failure{node: node, msg: fmt.Sprintf(format, args...), err: err})
}

// describe renders a node for diagnostics. Declarations are named rather
// than printed in full.
func describe(node ast.Node) string {
	switch n := node.(type) {
	case nil:
		return ""
	case *ast.ClassDecl:
		return "class " + n.Name
	case *ast.MethodDecl:
		return "method " + n.Name
	case *ast.Program:
		return "program"
	case *ast.VarDecl:
		return "variable " + n.Name
	}
	return ast.ToSExpr(node)
}
