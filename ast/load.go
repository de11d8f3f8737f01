package ast

import (
	"fmt"
	"strconv"

	"github.com/CajjadCodes/Sophia-Phase4/sexy"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// MaxListSize bounds N in a (list N TYPE) type.
const MaxListSize = 1 << 16

// Parse reads a program written in its s-expression form.
func Parse(src string) (*Program, error) {
	root, err := sexy.Parse(src)
	if err != nil {
		return nil, err
	}
	return Load(root)
}

// Load converts a parsed s-expression into a Program.
//
//	(program CLASS...)
//	(class NAME [(extends PARENT)] MEMBER...)
//	(field NAME TYPE)
//	(constructor (PARAM...) (LOCAL...) STMT...)
//	(method NAME RETURN (PARAM...) (LOCAL...) STMT...)
//
// Parameters and locals are (NAME TYPE) pairs.
func Load(root *sexy.Node) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(loadError)
			if !ok {
				panic(r)
			}
			prog, err = nil, le
		}
	}()

	if root.Head() != "program" {
		fail(root, "expected (program ...), got %s", root)
	}
	prog = &Program{Span: span(root)}
	for _, item := range root.Items[1:] {
		prog.Classes = append(prog.Classes, loadClass(item))
	}
	return prog, nil
}

type loadError struct {
	pos string
	msg string
}

func (e loadError) Error() string {
	return e.pos + ": " + e.msg
}

func fail(n *sexy.Node, format string, args ...any) {
	panic(loadError{pos: n.Pos(), msg: fmt.Sprintf(format, args...)})
}

func span(n *sexy.Node) Span {
	return Span{Line: n.Line, Column: n.Column}
}

func expectList(n *sexy.Node, head string, least int) {
	if n.Head() != head {
		fail(n, "expected (%s ...), got %s", head, n)
	}
	if len(n.Items) < least {
		fail(n, "%s needs at least %d operands", head, least-1)
	}
}

func symbol(n *sexy.Node, what string) string {
	if n.Type != sexy.NodeSymbol {
		fail(n, "expected %s name, got %s", what, n)
	}
	return n.Text
}

func loadClass(n *sexy.Node) *ClassDecl {
	expectList(n, "class", 2)
	class := &ClassDecl{Span: span(n), Name: symbol(n.Items[1], "class")}
	for _, item := range n.Items[2:] {
		switch item.Head() {
		case "extends":
			if len(item.Items) != 2 {
				fail(item, "extends takes exactly one parent")
			}
			class.Parent = symbol(item.Items[1], "parent class")
		case "field":
			if len(item.Items) != 3 {
				fail(item, "field takes a name and a type")
			}
			v := &VarDecl{Span: span(item), Name: symbol(item.Items[1], "field"), Type: loadType(item.Items[2])}
			class.Fields = append(class.Fields, &FieldDecl{Span: span(item), Var: v})
		case "constructor":
			if class.Constructor != nil {
				fail(item, "class %s declares more than one constructor", class.Name)
			}
			expectList(item, "constructor", 3)
			class.Constructor = &MethodDecl{
				Span:          span(item),
				Name:          class.Name,
				IsConstructor: true,
				Params:        loadVars(item.Items[1]),
				Locals:        loadVars(item.Items[2]),
				ReturnType:    types.Null,
				Body:          loadStatements(item.Items[3:]),
			}
		case "method":
			expectList(item, "method", 5)
			class.Methods = append(class.Methods, &MethodDecl{
				Span:       span(item),
				Name:       symbol(item.Items[1], "method"),
				ReturnType: loadType(item.Items[2]),
				Params:     loadVars(item.Items[3]),
				Locals:     loadVars(item.Items[4]),
				Body:       loadStatements(item.Items[5:]),
			})
		default:
			fail(item, "unknown class member %s", item)
		}
	}
	return class
}

func loadVars(n *sexy.Node) []*VarDecl {
	if n.Type != sexy.NodeList {
		fail(n, "expected a variable list, got %s", n)
	}
	var vars []*VarDecl
	for _, item := range n.Items {
		if item.Type != sexy.NodeList || len(item.Items) != 2 {
			fail(item, "expected (NAME TYPE), got %s", item)
		}
		vars = append(vars, &VarDecl{
			Span: span(item),
			Name: symbol(item.Items[0], "variable"),
			Type: loadType(item.Items[1]),
		})
	}
	return vars
}

// loadType reads a type:
//
//	int | bool | string | void | CLASS
//	(list ELEM...)       ELEM is TYPE or (NAME TYPE)
//	(list N TYPE)        N copies of TYPE
//	(func (ARG...) RETURN)
func loadType(n *sexy.Node) *types.Type {
	switch n.Type {
	case sexy.NodeSymbol:
		switch n.Text {
		case "int":
			return types.Int
		case "bool":
			return types.Bool
		case "string":
			return types.String
		case "void":
			return types.Null
		}
		return types.NewClass(n.Text)
	case sexy.NodeList:
		switch n.Head() {
		case "list":
			if len(n.Items) == 3 && n.Items[1].Type == sexy.NodeInteger {
				count, err := strconv.Atoi(n.Items[1].Text)
				if err != nil || count < 0 || count > MaxListSize {
					fail(n.Items[1], "invalid list size %s", n.Items[1])
				}
				return types.NewListOf(count, loadType(n.Items[2]))
			}
			var elems []types.Element
			for _, item := range n.Items[1:] {
				elems = append(elems, loadElement(item))
			}
			return types.NewList(elems...)
		case "func":
			if len(n.Items) != 3 || n.Items[1].Type != sexy.NodeList {
				fail(n, "expected (func (ARG...) RETURN), got %s", n)
			}
			var args []*types.Type
			for _, item := range n.Items[1].Items {
				args = append(args, loadType(item))
			}
			return types.NewFptr(args, loadType(n.Items[2]))
		}
	}
	fail(n, "invalid type %s", n)
	return nil
}

func loadElement(n *sexy.Node) types.Element {
	if n.Type == sexy.NodeList && n.Head() != "list" && n.Head() != "func" {
		if len(n.Items) != 2 {
			fail(n, "expected (NAME TYPE) list element, got %s", n)
		}
		return types.Element{Name: symbol(n.Items[0], "element"), Type: loadType(n.Items[1])}
	}
	return types.Element{Type: loadType(n)}
}

func loadStatements(items []*sexy.Node) []Statement {
	stmts := make([]Statement, 0, len(items))
	for _, item := range items {
		stmts = append(stmts, loadStatement(item))
	}
	return stmts
}

// Optional operands are written as ().
func isEmpty(n *sexy.Node) bool {
	return n.Type == sexy.NodeList && len(n.Items) == 0
}

func loadStatement(n *sexy.Node) Statement {
	sp := span(n)
	switch n.Head() {
	case "assign":
		arity(n, 2)
		return &AssignStmt{Span: sp, LValue: loadExpr(n.Items[1]), RValue: loadExpr(n.Items[2])}
	case "block":
		return &BlockStmt{Span: sp, Stmts: loadStatements(n.Items[1:])}
	case "if":
		if len(n.Items) != 3 && len(n.Items) != 4 {
			fail(n, "if takes a condition, a then branch and an optional else branch")
		}
		stmt := &ConditionalStmt{Span: sp, Cond: loadExpr(n.Items[1]), Then: loadStatement(n.Items[2])}
		if len(n.Items) == 4 {
			stmt.Else = loadStatement(n.Items[3])
		}
		return stmt
	case "call":
		return &MethodCallStmt{Span: sp, Call: loadExpr(n).(*MethodCall)}
	case "print":
		arity(n, 1)
		return &PrintStmt{Span: sp, Arg: loadExpr(n.Items[1])}
	case "return":
		switch len(n.Items) {
		case 1:
			return &ReturnStmt{Span: sp}
		case 2:
			return &ReturnStmt{Span: sp, Value: loadExpr(n.Items[1])}
		}
		fail(n, "return takes at most one value")
	case "break":
		arity(n, 0)
		return &BreakStmt{Span: sp}
	case "continue":
		arity(n, 0)
		return &ContinueStmt{Span: sp}
	case "for":
		arity(n, 4)
		stmt := &ForStmt{Span: sp, Body: loadStatement(n.Items[4])}
		if !isEmpty(n.Items[1]) {
			stmt.Init = loadStatement(n.Items[1])
		}
		if !isEmpty(n.Items[2]) {
			stmt.Cond = loadExpr(n.Items[2])
		}
		if !isEmpty(n.Items[3]) {
			stmt.Update = loadStatement(n.Items[3])
		}
		return stmt
	case "foreach":
		arity(n, 3)
		v := &Identifier{Span: span(n.Items[1]), Name: symbol(n.Items[1], "loop variable")}
		return &ForeachStmt{Span: sp, Var: v, List: loadExpr(n.Items[2]), Body: loadStatement(n.Items[3])}
	case "expr":
		arity(n, 1)
		return &ExprStmt{Span: sp, X: loadExpr(n.Items[1])}
	}
	fail(n, "unknown statement %s", n)
	return nil
}

func arity(n *sexy.Node, count int) {
	if len(n.Items)-1 != count {
		fail(n, "%s takes %d operands, got %d", n.Head(), count, len(n.Items)-1)
	}
}

var binaryOps = map[string]BinaryOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	">": OpGt, "<": OpLt, "==": OpEq, "!=": OpNeq,
	"&&": OpAnd, "||": OpOr, "=": OpAssign,
}

var unaryOps = map[string]UnaryOp{
	"-": OpNeg, "!": OpNot,
	"pre++": OpPreInc, "post++": OpPostInc,
	"pre--": OpPreDec, "post--": OpPostDec,
}

func loadExpr(n *sexy.Node) Expr {
	sp := span(n)
	switch n.Type {
	case sexy.NodeInteger:
		v, err := strconv.ParseInt(n.Text, 10, 32)
		if err != nil {
			fail(n, "integer literal %s out of range", n.Text)
		}
		return &IntLit{Span: sp, Value: int32(v)}
	case sexy.NodeString:
		return &StringLit{Span: sp, Value: n.Text}
	case sexy.NodeSymbol:
		switch n.Text {
		case "true":
			return &BoolLit{Span: sp, Value: true}
		case "false":
			return &BoolLit{Span: sp, Value: false}
		case "null":
			return &NullLit{Span: sp}
		case "this":
			return &This{Span: sp}
		}
		return &Identifier{Span: sp, Name: n.Text}
	}

	head := n.Head()
	if head == "" {
		fail(n, "expected an expression, got %s", n)
	}
	// (- x) is negation, (- x y) subtraction.
	if op, ok := unaryOps[head]; ok && len(n.Items) == 2 {
		return &UnaryExpr{Span: sp, Op: op, Operand: loadExpr(n.Items[1])}
	}
	if op, ok := binaryOps[head]; ok {
		arity(n, 2)
		return &BinaryExpr{Span: sp, Op: op, Left: loadExpr(n.Items[1]), Right: loadExpr(n.Items[2])}
	}

	switch head {
	case "index":
		arity(n, 2)
		return &IndexExpr{Span: sp, Instance: loadExpr(n.Items[1]), Index: loadExpr(n.Items[2])}
	case "member":
		arity(n, 2)
		return &MemberAccess{Span: sp, Instance: loadExpr(n.Items[1]), Member: symbol(n.Items[2], "member")}
	case "call":
		if len(n.Items) < 2 {
			fail(n, "call needs a callee")
		}
		return &MethodCall{Span: sp, Instance: loadExpr(n.Items[1]), Args: loadExprs(n.Items[2:])}
	case "new":
		if len(n.Items) < 2 {
			fail(n, "new needs a class name")
		}
		return &NewInstance{Span: sp, Class: symbol(n.Items[1], "class"), Args: loadExprs(n.Items[2:])}
	case "list":
		return &ListLit{Span: sp, Elems: loadExprs(n.Items[1:])}
	}
	fail(n, "unknown expression %s", n)
	return nil
}

func loadExprs(items []*sexy.Node) []Expr {
	exprs := make([]Expr, 0, len(items))
	for _, item := range items {
		exprs = append(exprs, loadExpr(item))
	}
	return exprs
}
