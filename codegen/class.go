package codegen

import (
	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

func (c *classGen) generate() *jasmin.ClassFile {
	class, err := c.table().Class(c.decl.Name)
	if err != nil {
		failErr(c.decl, err, "class %s is not in the symbol table", c.decl.Name)
	}
	c.class = class
	c.file = &jasmin.ClassFile{Name: class.Name, Super: class.Parent}
	if c.file.Super == "" {
		c.file.Super = types.ObjectClass
	}
	for _, f := range class.Fields {
		c.file.Fields = append(c.file.Fields, jasmin.FieldDecl{Name: f.Name, Desc: descriptor(c.decl, f.Type)})
	}

	c.constructors()
	for _, decl := range c.decl.Methods {
		c.methodBody(decl)
	}
	if c.decl.Name == c.gen.opts.EntryClass {
		c.entryPoint()
	}
	return c.file
}

// constructors emits <init>()V, which every class has so subclasses and
// the entry point can chain to it, and the declared constructor when it
// takes parameters.
func (c *classGen) constructors() {
	ctor := c.decl.Constructor
	if ctor != nil && len(ctor.Params) > 0 {
		c.constructor(ctor)
		c.constructor(nil)
		return
	}
	c.constructor(ctor)
}

// constructor emits a constructor for decl, or the synthesized one when
// decl is nil. It chains to the parent, gives every field of the class
// its default value, then runs the declared body.
func (c *classGen) constructor(decl *ast.MethodDecl) {
	var (
		sym    *symtab.MethodSymbol
		params []*types.Type
		node   ast.Node = c.decl
	)
	if decl != nil {
		s, err := c.table().Method(c.decl.Name, decl)
		if err != nil {
			failErr(decl, err, "constructor of %s is not in the symbol table", c.decl.Name)
		}
		sym, params, node = s, s.ParamTypes(), decl
	}

	m := c.newMethod("<init>", methodDescriptor(node, params, types.Null), sym)
	if sym != nil {
		m.declare(decl, sym)
	}
	m.emit(
		jasmin.ALoad(0),
		jasmin.InvokeSpecial(c.file.Super, "<init>", "()V"),
	)
	for _, f := range c.class.Fields {
		m.emit(jasmin.ALoad(0))
		m.pushDefault(node, f.Type)
		m.emit(jasmin.PutField(c.class.Name, f.Name, descriptor(node, f.Type)))
	}
	if decl == nil {
		m.emit(jasmin.VoidReturn())
	} else {
		m.initLocals(decl)
		m.body(decl, decl.Body, types.Null)
	}
	m.finish(node)
}

func (c *classGen) methodBody(decl *ast.MethodDecl) {
	sym, err := c.table().Method(c.decl.Name, decl)
	if err != nil {
		failErr(decl, err, "method %s.%s is not in the symbol table", c.decl.Name, decl.Name)
	}
	m := c.newMethod(decl.Name, methodDescriptor(decl, sym.ParamTypes(), sym.Return), sym)
	m.declare(decl, sym)
	m.initLocals(decl)
	m.body(decl, decl.Body, sym.Return)
	m.finish(decl)
}

// entryPoint emits the static main method that constructs one instance
// of the class.
func (c *classGen) entryPoint() {
	m := c.newMethod("main", "([Ljava/lang/String;)V", nil)
	m.out.Static = true
	m.emit(
		jasmin.NewObject(c.class.Name),
		jasmin.Simple("dup"),
		jasmin.InvokeSpecial(c.class.Name, "<init>", "()V"),
		jasmin.Simple("pop"),
		jasmin.VoidReturn(),
	)
	m.finish(c.decl)
}

// declare gives parameters and then locals their slots.
func (m *methodGen) declare(decl *ast.MethodDecl, sym *symtab.MethodSymbol) {
	for _, vars := range [][]*ast.VarDecl{sym.Params, sym.Locals} {
		for _, v := range vars {
			if _, err := m.slots.declare(v.Name); err != nil {
				failErr(v, err, "cannot give %s a slot in %s", v.Name, decl.Name)
			}
		}
	}
}

// initLocals stores the default value of its type in every local.
func (m *methodGen) initLocals(decl *ast.MethodDecl) {
	for _, v := range decl.Locals {
		m.pushDefault(v, v.Type)
		m.emit(jasmin.AStore(m.slot(v, v.Name)))
	}
}
