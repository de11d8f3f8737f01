// Package symtab builds the class, field, method and local-variable
// symbol table of a program.
package symtab

import (
	"errors"
	"fmt"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

var ErrNotFound = errors.New("symbol not found")

// Table is read-only once Build returns and is safe for concurrent use.
type Table struct {
	classes map[string]*ClassSymbol
	order   []*ClassSymbol
}

type ClassSymbol struct {
	Name   string
	Parent string // "" when the class has no parent
	Decl   *ast.ClassDecl

	Fields      []*FieldSymbol
	Methods     []*MethodSymbol
	Constructor *MethodSymbol // nil when the class declares none

	fields  map[string]*FieldSymbol
	methods map[string]*MethodSymbol
}

type FieldSymbol struct {
	Name  string
	Type  *types.Type
	Owner string
}

type MethodSymbol struct {
	Name   string
	Owner  string
	Params []*ast.VarDecl
	Locals []*ast.VarDecl
	Return *types.Type
	Decl   *ast.MethodDecl
}

// ParamTypes returns the declared parameter types in order.
func (m *MethodSymbol) ParamTypes() []*types.Type {
	params := make([]*types.Type, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}
	return params
}

// Type returns the bound-method type of m.
func (m *MethodSymbol) Type() *types.Type {
	return types.NewFptr(m.ParamTypes(), m.Return)
}

// LocalType returns the declared type of a parameter or local variable.
func (m *MethodSymbol) LocalType(name string) (*types.Type, error) {
	for _, v := range m.Params {
		if v.Name == name {
			return v.Type, nil
		}
	}
	for _, v := range m.Locals {
		if v.Name == name {
			return v.Type, nil
		}
	}
	return nil, fmt.Errorf("%w: variable %s in %s.%s", ErrNotFound, name, m.Owner, m.Name)
}

// Build collects the declarations of prog. Every problem found is
// reported; the table is only returned when there are none.
func Build(prog *ast.Program) (*Table, error) {
	t := &Table{classes: make(map[string]*ClassSymbol)}
	var errs []error

	for _, decl := range prog.Classes {
		if _, dup := t.classes[decl.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: class %s redeclared", decl.Location(), decl.Name))
			continue
		}
		c, err := newClass(decl)
		if err != nil {
			errs = append(errs, err)
		}
		t.classes[decl.Name] = c
		t.order = append(t.order, c)
	}

	for _, c := range t.order {
		if c.Parent == "" {
			continue
		}
		if _, ok := t.classes[c.Parent]; !ok {
			errs = append(errs, fmt.Errorf("%s: class %s extends unknown class %s", c.Decl.Location(), c.Name, c.Parent))
			continue
		}
		if t.inheritsFromSelf(c) {
			errs = append(errs, fmt.Errorf("%s: class %s inherits from itself", c.Decl.Location(), c.Name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

func newClass(decl *ast.ClassDecl) (*ClassSymbol, error) {
	c := &ClassSymbol{
		Name:    decl.Name,
		Parent:  decl.Parent,
		Decl:    decl,
		fields:  make(map[string]*FieldSymbol),
		methods: make(map[string]*MethodSymbol),
	}
	var errs []error
	for _, f := range decl.Fields {
		if _, dup := c.fields[f.Var.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: field %s.%s redeclared", f.Location(), c.Name, f.Var.Name))
			continue
		}
		sym := &FieldSymbol{Name: f.Var.Name, Type: f.Var.Type, Owner: c.Name}
		c.fields[sym.Name] = sym
		c.Fields = append(c.Fields, sym)
	}
	for _, m := range decl.Methods {
		if _, dup := c.methods[m.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: method %s.%s redeclared", m.Location(), c.Name, m.Name))
			continue
		}
		if _, clash := c.fields[m.Name]; clash {
			errs = append(errs, fmt.Errorf("%s: method %s.%s has the name of a field", m.Location(), c.Name, m.Name))
			continue
		}
		sym := newMethod(c.Name, m)
		c.methods[sym.Name] = sym
		c.Methods = append(c.Methods, sym)
	}
	if decl.Constructor != nil {
		c.Constructor = newMethod(c.Name, decl.Constructor)
	}
	return c, errors.Join(errs...)
}

func newMethod(owner string, decl *ast.MethodDecl) *MethodSymbol {
	ret := decl.ReturnType
	if ret == nil {
		ret = types.Null
	}
	return &MethodSymbol{
		Name:   decl.Name,
		Owner:  owner,
		Params: decl.Params,
		Locals: decl.Locals,
		Return: ret,
		Decl:   decl,
	}
}

func (t *Table) inheritsFromSelf(c *ClassSymbol) bool {
	seen := map[string]bool{c.Name: true}
	for parent := c.Parent; parent != ""; {
		if seen[parent] {
			return parent == c.Name
		}
		seen[parent] = true
		p, ok := t.classes[parent]
		if !ok {
			return false
		}
		parent = p.Parent
	}
	return false
}

// Classes returns the classes in declaration order.
func (t *Table) Classes() []*ClassSymbol {
	return t.order
}

func (t *Table) Class(name string) (*ClassSymbol, error) {
	c, ok := t.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: class %s", ErrNotFound, name)
	}
	return c, nil
}

// Ancestors returns the class named name followed by its parents,
// nearest first.
func (t *Table) Ancestors(name string) ([]*ClassSymbol, error) {
	var chain []*ClassSymbol
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		c, err := t.Class(name)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		chain = append(chain, c)
		name = c.Parent
	}
	return chain, nil
}

// IsSubclass reports whether class child is parent or inherits from it.
func (t *Table) IsSubclass(child, parent string) bool {
	chain, err := t.Ancestors(child)
	if err != nil {
		return false
	}
	for _, c := range chain {
		if c.Name == parent {
			return true
		}
	}
	return false
}

// LookupField finds a field declared in class or one of its ancestors.
func (t *Table) LookupField(class, name string) (*FieldSymbol, error) {
	chain, err := t.Ancestors(class)
	if err != nil {
		return nil, err
	}
	for _, c := range chain {
		if f, ok := c.fields[name]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: field %s in class %s", ErrNotFound, name, class)
}

// LookupMethod finds a method declared in class or one of its
// ancestors. The nearest declaration wins.
func (t *Table) LookupMethod(class, name string) (*MethodSymbol, error) {
	chain, err := t.Ancestors(class)
	if err != nil {
		return nil, err
	}
	for _, c := range chain {
		if m, ok := c.methods[name]; ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: method %s in class %s", ErrNotFound, name, class)
}

// Method returns the method or constructor of class declared by decl.
func (t *Table) Method(class string, decl *ast.MethodDecl) (*MethodSymbol, error) {
	c, err := t.Class(class)
	if err != nil {
		return nil, err
	}
	if decl.IsConstructor {
		if c.Constructor == nil {
			return nil, fmt.Errorf("%w: constructor of class %s", ErrNotFound, class)
		}
		return c.Constructor, nil
	}
	if m, ok := c.methods[decl.Name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: method %s in class %s", ErrNotFound, decl.Name, class)
}

// ConstructorParams returns the parameter types of the constructor
// declared by class, or none when it declares no constructor.
func (t *Table) ConstructorParams(class string) ([]*types.Type, error) {
	c, err := t.Class(class)
	if err != nil {
		return nil, err
	}
	if c.Constructor == nil {
		return nil, nil
	}
	return c.Constructor.ParamTypes(), nil
}
