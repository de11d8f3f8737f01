package ast

import (
	"fmt"
	"strconv"

	"github.com/CajjadCodes/Sophia-Phase4/sexy"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// ToSExpr renders a node back into the s-expression form Load reads.
func ToSExpr(node Node) string {
	return toSexy(node).String()
}

func sym(name string) *sexy.Node { return sexy.NewSymbol(name) }

func list(head string, items ...*sexy.Node) *sexy.Node {
	return sexy.NewList(append([]*sexy.Node{sym(head)}, items...)...)
}

func toSexy(node Node) *sexy.Node {
	switch n := node.(type) {
	case *Program:
		var items []*sexy.Node
		for _, c := range n.Classes {
			items = append(items, toSexy(c))
		}
		return list("program", items...)
	case *ClassDecl:
		items := []*sexy.Node{sym(n.Name)}
		if n.Parent != "" {
			items = append(items, list("extends", sym(n.Parent)))
		}
		for _, f := range n.Fields {
			items = append(items, toSexy(f))
		}
		if n.Constructor != nil {
			items = append(items, toSexy(n.Constructor))
		}
		for _, m := range n.Methods {
			items = append(items, toSexy(m))
		}
		return list("class", items...)
	case *FieldDecl:
		return list("field", sym(n.Var.Name), TypeToSexy(n.Var.Type))
	case *MethodDecl:
		var items []*sexy.Node
		if !n.IsConstructor {
			items = append(items, sym(n.Name), TypeToSexy(n.ReturnType))
		}
		items = append(items, varsToSexy(n.Params), varsToSexy(n.Locals))
		for _, s := range n.Body {
			items = append(items, toSexy(s))
		}
		if n.IsConstructor {
			return list("constructor", items...)
		}
		return list("method", items...)

	case *AssignStmt:
		return list("assign", toSexy(n.LValue), toSexy(n.RValue))
	case *BlockStmt:
		return list("block", stmtsToSexy(n.Stmts)...)
	case *ConditionalStmt:
		items := []*sexy.Node{toSexy(n.Cond), toSexy(n.Then)}
		if n.Else != nil {
			items = append(items, toSexy(n.Else))
		}
		return list("if", items...)
	case *MethodCallStmt:
		return toSexy(n.Call)
	case *PrintStmt:
		return list("print", toSexy(n.Arg))
	case *ReturnStmt:
		if n.Value == nil {
			return list("return")
		}
		return list("return", toSexy(n.Value))
	case *BreakStmt:
		return list("break")
	case *ContinueStmt:
		return list("continue")
	case *ForStmt:
		return list("for", optional(n.Init), optional(n.Cond), optional(n.Update), toSexy(n.Body))
	case *ForeachStmt:
		return list("foreach", sym(n.Var.Name), toSexy(n.List), toSexy(n.Body))
	case *ExprStmt:
		return list("expr", toSexy(n.X))

	case *BinaryExpr:
		return list(string(n.Op), toSexy(n.Left), toSexy(n.Right))
	case *UnaryExpr:
		return list(string(n.Op), toSexy(n.Operand))
	case *MemberAccess:
		return list("member", toSexy(n.Instance), sym(n.Member))
	case *Identifier:
		return sym(n.Name)
	case *IndexExpr:
		return list("index", toSexy(n.Instance), toSexy(n.Index))
	case *MethodCall:
		return list("call", append([]*sexy.Node{toSexy(n.Instance)}, exprsToSexy(n.Args)...)...)
	case *NewInstance:
		return list("new", append([]*sexy.Node{sym(n.Class)}, exprsToSexy(n.Args)...)...)
	case *This:
		return sym("this")
	case *ListLit:
		return list("list", exprsToSexy(n.Elems)...)
	case *NullLit:
		return sym("null")
	case *IntLit:
		return sexy.NewInteger(strconv.FormatInt(int64(n.Value), 10))
	case *BoolLit:
		return sym(strconv.FormatBool(n.Value))
	case *StringLit:
		return sexy.NewString(n.Value)
	}
	panic(fmt.Sprintf("ast: cannot print %T", node))
}

// optional prints a nil operand as ().
func optional(node Node) *sexy.Node {
	if node == nil {
		return sexy.NewList()
	}
	return toSexy(node)
}

func stmtsToSexy(stmts []Statement) []*sexy.Node {
	items := make([]*sexy.Node, 0, len(stmts))
	for _, s := range stmts {
		items = append(items, toSexy(s))
	}
	return items
}

func exprsToSexy(exprs []Expr) []*sexy.Node {
	items := make([]*sexy.Node, 0, len(exprs))
	for _, e := range exprs {
		items = append(items, toSexy(e))
	}
	return items
}

func varsToSexy(vars []*VarDecl) *sexy.Node {
	items := make([]*sexy.Node, 0, len(vars))
	for _, v := range vars {
		items = append(items, sexy.NewList(sym(v.Name), TypeToSexy(v.Type)))
	}
	return sexy.NewList(items...)
}

// TypeToSexy renders a type in the form loadType reads.
func TypeToSexy(t *types.Type) *sexy.Node {
	switch t.Kind {
	case types.KindInt:
		return sym("int")
	case types.KindBool:
		return sym("bool")
	case types.KindString:
		return sym("string")
	case types.KindNull:
		return sym("void")
	case types.KindClass:
		return sym(t.Name)
	case types.KindList:
		items := make([]*sexy.Node, 0, len(t.Elements))
		for _, e := range t.Elements {
			if e.Name != "" {
				items = append(items, sexy.NewList(sym(e.Name), TypeToSexy(e.Type)))
			} else {
				items = append(items, TypeToSexy(e.Type))
			}
		}
		return list("list", items...)
	case types.KindFptr:
		args := make([]*sexy.Node, 0, len(t.Args))
		for _, a := range t.Args {
			args = append(args, TypeToSexy(a))
		}
		ret := t.Return
		if ret == nil {
			ret = types.Null
		}
		return list("func", sexy.NewList(args...), TypeToSexy(ret))
	}
	panic(fmt.Sprintf("ast: cannot print type %s", t))
}
