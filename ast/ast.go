// Package ast defines the typed syntax tree of a Sophia program as it is
// handed to the code generator.
//
// Statement and expression node sets are closed: the unexported marker
// methods keep other packages from adding variants, so a type switch over
// them in the generator can be checked for exhaustiveness by review.
package ast

import (
	"fmt"

	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// Span is the source position a node was read from (1-based). The zero
// Span means the node was built in code.
type Span struct {
	Line   int
	Column int
}

func (s Span) Pos() Span { return s }

// Location formats the span as "line:column".
func (s Span) Location() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Span
}

// Statement is implemented by every statement node.
type Statement interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node. Type returns the static
// type stamped on the node by the checker, or nil before checking.
type Expr interface {
	Node
	exprNode()
	Type() *types.Type
	SetType(*types.Type)
}

type typed struct {
	T *types.Type
}

func (t *typed) Type() *types.Type     { return t.T }
func (t *typed) SetType(ty *types.Type) { t.T = ty }

// Program is an ordered sequence of class declarations.
type Program struct {
	Span
	Classes []*ClassDecl
}

// ClassDecl is one class. Parent is empty for classes without a parent.
type ClassDecl struct {
	Span
	Name        string
	Parent      string
	Fields      []*FieldDecl
	Constructor *MethodDecl // nil when the class declares none
	Methods     []*MethodDecl
}

type FieldDecl struct {
	Span
	Var *VarDecl
}

// VarDecl declares a field, parameter, or local variable.
type VarDecl struct {
	Span
	Name string
	Type *types.Type
}

// MethodDecl is a method or, when IsConstructor is set, the class's
// constructor (whose Name is the class name and ReturnType is void).
type MethodDecl struct {
	Span
	Name          string
	IsConstructor bool
	Params        []*VarDecl
	Locals        []*VarDecl
	ReturnType    *types.Type
	Body          []Statement
}

// Statements

type AssignStmt struct {
	Span
	LValue Expr
	RValue Expr
}

type BlockStmt struct {
	Span
	Stmts []Statement
}

// ConditionalStmt is an if statement; Else may be nil.
type ConditionalStmt struct {
	Span
	Cond Expr
	Then Statement
	Else Statement
}

type MethodCallStmt struct {
	Span
	Call *MethodCall
}

type PrintStmt struct {
	Span
	Arg Expr
}

// ReturnStmt returns Value, or nothing when Value is nil.
type ReturnStmt struct {
	Span
	Value Expr
}

type BreakStmt struct {
	Span
}

type ContinueStmt struct {
	Span
}

// ForStmt is a C-style loop. Init, Cond and Update may each be nil.
type ForStmt struct {
	Span
	Init   Statement
	Cond   Expr
	Update Statement
	Body   Statement
}

// ForeachStmt iterates Var over the elements of List.
type ForeachStmt struct {
	Span
	Var  *Identifier
	List Expr
	Body Statement
}

// ExprStmt evaluates an expression for its side effects, such as an
// increment in a loop update.
type ExprStmt struct {
	Span
	X Expr
}

func (*AssignStmt) stmtNode()      {}
func (*BlockStmt) stmtNode()       {}
func (*ConditionalStmt) stmtNode() {}
func (*MethodCallStmt) stmtNode()  {}
func (*PrintStmt) stmtNode()       {}
func (*ReturnStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()       {}
func (*ContinueStmt) stmtNode()    {}
func (*ForStmt) stmtNode()         {}
func (*ForeachStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()        {}

// Expressions

type BinaryOp string

const (
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
	OpGt     BinaryOp = ">"
	OpLt     BinaryOp = "<"
	OpEq     BinaryOp = "=="
	OpNeq    BinaryOp = "!="
	OpAnd    BinaryOp = "&&"
	OpOr     BinaryOp = "||"
	OpAssign BinaryOp = "="
)

type UnaryOp string

const (
	OpNeg     UnaryOp = "-"
	OpNot     UnaryOp = "!"
	OpPreInc  UnaryOp = "pre++"
	OpPostInc UnaryOp = "post++"
	OpPreDec  UnaryOp = "pre--"
	OpPostDec UnaryOp = "post--"
)

type BinaryExpr struct {
	Span
	typed
	Op    BinaryOp
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Span
	typed
	Op      UnaryOp
	Operand Expr
}

// MemberAccess reads a field or a named list element, or binds a method.
type MemberAccess struct {
	Span
	typed
	Instance Expr
	Member   string
}

type Identifier struct {
	Span
	typed
	Name string
}

type IndexExpr struct {
	Span
	typed
	Instance Expr
	Index    Expr
}

// MethodCall invokes the bound method Instance evaluates to.
type MethodCall struct {
	Span
	typed
	Instance Expr
	Args     []Expr
}

type NewInstance struct {
	Span
	typed
	Class string
	Args  []Expr
}

type This struct {
	Span
	typed
}

type ListLit struct {
	Span
	typed
	Elems []Expr
}

type NullLit struct {
	Span
	typed
}

type IntLit struct {
	Span
	typed
	Value int32
}

type BoolLit struct {
	Span
	typed
	Value bool
}

type StringLit struct {
	Span
	typed
	Value string
}

func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*MemberAccess) exprNode() {}
func (*Identifier) exprNode()   {}
func (*IndexExpr) exprNode()    {}
func (*MethodCall) exprNode()   {}
func (*NewInstance) exprNode()  {}
func (*This) exprNode()         {}
func (*ListLit) exprNode()      {}
func (*NullLit) exprNode()      {}
func (*IntLit) exprNode()       {}
func (*BoolLit) exprNode()      {}
func (*StringLit) exprNode()    {}

// Class returns the class declaration with the given name, or nil.
func (p *Program) Class(name string) *ClassDecl {
	for _, c := range p.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Method returns the method with the given name, or nil.
func (c *ClassDecl) Method(name string) *MethodDecl {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
