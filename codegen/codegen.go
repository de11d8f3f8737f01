// Package codegen lowers a type-annotated Sophia program into Jasmin
// assembly, one class file per class.
//
// Every class is lowered independently. Within a method, statements and
// expressions are lowered by recursive descent that appends instructions
// to the method's buffer; jumps name labels that are placed later, so no
// instruction is ever patched.
//
// Values of type int and bool travel unboxed on the operand stack. Every
// other place a value can live (local slots, fields, list elements,
// arguments and return values) holds the boxed java/lang/Integer or
// java/lang/Boolean, so a value is boxed whenever it leaves the stack and
// unboxed whenever it comes back.
package codegen

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
	"github.com/CajjadCodes/Sophia-Phase4/types"
)

// DefaultEntryClass is the class that gets a static main method when
// Options.EntryClass is empty.
const DefaultEntryClass = "Main"

type Options struct {
	// EntryClass names the class whose static main constructs one
	// instance of it.
	EntryClass string
	// Parallel lowers the classes of a program concurrently.
	Parallel bool
}

// Generator lowers classes against a symbol table. The table is only
// read, so a Generator may be shared between goroutines.
type Generator struct {
	table *symtab.Table
	opts  Options
}

func New(table *symtab.Table, opts Options) *Generator {
	if opts.EntryClass == "" {
		opts.EntryClass = DefaultEntryClass
	}
	return &Generator{table: table, opts: opts}
}

// GenerateProgram lowers every class of prog. Classes that fail are
// left out of the result and their errors are joined; the class files of
// the remaining classes are returned in program order.
func (g *Generator) GenerateProgram(prog *ast.Program) ([]*jasmin.ClassFile, error) {
	files := make([]*jasmin.ClassFile, len(prog.Classes))
	errs := make([]error, len(prog.Classes))

	if g.opts.Parallel {
		var wg sync.WaitGroup
		for i, decl := range prog.Classes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				files[i], errs[i] = g.GenerateClass(decl)
			}()
		}
		wg.Wait()
	} else {
		for i, decl := range prog.Classes {
			files[i], errs[i] = g.GenerateClass(decl)
		}
	}

	var out []*jasmin.ClassFile
	for _, f := range files {
		if f != nil {
			out = append(out, f)
		}
	}
	return out, errors.Join(errs...)
}

// GenerateClass lowers one class. On failure no class file is returned
// and the error is a *Error matching ErrInternal.
func (g *Generator) GenerateClass(decl *ast.ClassDecl) (file *jasmin.ClassFile, err error) {
	c := &classGen{gen: g, decl: decl}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(failure)
		if !ok {
			f = failure{msg: fmt.Sprintf("panic: %v", r)}
			if perr, isErr := r.(error); isErr {
				f = failure{msg: "panic", err: perr}
			}
		}
		e := &Error{Class: decl.Name, Method: c.method, Msg: f.msg, Err: f.err}
		if f.node != nil {
			e.Node = describe(f.node)
			e.Pos = f.node.Pos()
		}
		file, err = nil, e
	}()
	return c.generate(), nil
}

// classGen holds the state of lowering one class.
type classGen struct {
	gen    *Generator
	decl   *ast.ClassDecl
	class  *symtab.ClassSymbol
	file   *jasmin.ClassFile
	method string // method being lowered, for diagnostics
}

func (c *classGen) table() *symtab.Table {
	return c.gen.table
}

// methodGen holds the state of lowering one method body. Slots and labels
// start afresh for every method.
type methodGen struct {
	*classGen
	out    *jasmin.Method
	sym    *symtab.MethodSymbol // nil for synthesized methods
	slots  *slotTable
	labels *labelManager

	// Targets of the indexed or member assignments being lowered, whose
	// instance and index already sit in temporaries.
	reuse []reusedTarget
}

func (c *classGen) newMethod(name, desc string, sym *symtab.MethodSymbol) *methodGen {
	c.method = name
	return &methodGen{
		classGen: c,
		out:      &jasmin.Method{Name: name, Desc: desc},
		sym:      sym,
		slots:    newSlotTable(),
		labels:   &labelManager{},
	}
}

func (m *methodGen) emit(code ...jasmin.Instr) {
	m.out.Emit(code...)
}

func (m *methodGen) mark(label string) {
	m.emit(jasmin.Mark(label))
}

func (m *methodGen) temp() int {
	return m.slots.reserveTemp()
}

func (m *methodGen) release(node ast.Node, n int) {
	for range n {
		if err := m.slots.releaseTemp(); err != nil {
			failErr(node, err, "unbalanced temporaries")
		}
	}
}

func (m *methodGen) push(after, brk, cont string) {
	m.labels.push(after, brk, cont)
}

func (m *methodGen) pop(node ast.Node) {
	if err := m.labels.pop(); err != nil {
		failErr(node, err, "unbalanced label frames")
	}
}

func (m *methodGen) frame(node ast.Node) frame {
	f, ok := m.labels.top()
	if !ok {
		fail(node, "statement lowered outside of any label frame")
	}
	return f
}

// finish analyzes the method's code, fixes its limits and adds it to
// the class file.
func (m *methodGen) finish(node ast.Node) {
	if d := m.labels.depth(); d != 0 {
		fail(node, "%d label frames left open", d)
	}
	if m.slots.temps != 0 {
		fail(node, "%d temporaries left reserved", m.slots.temps)
	}
	m.out.MaxLocals = m.slots.maxLocals()
	if _, err := m.out.Finish(); err != nil {
		failErr(node, err, "generated code does not verify")
	}
	m.file.Methods = append(m.file.Methods, m.out)
	m.classGen.method = ""
}

// typeOf returns the static type the checker stamped on e.
func typeOf(e ast.Expr) *types.Type {
	t := e.Type()
	if t == nil {
		fail(e, "expression has no type")
	}
	return t
}

func descriptor(node ast.Node, t *types.Type) string {
	d, err := types.Descriptor(t)
	if err != nil {
		failErr(node, err, "no descriptor for %s", t)
	}
	return d
}

func internalName(node ast.Node, t *types.Type) string {
	n, err := types.InternalName(t)
	if err != nil {
		failErr(node, err, "no class for %s", t)
	}
	return n
}

func methodDescriptor(node ast.Node, params []*types.Type, ret *types.Type) string {
	d, err := types.MethodDescriptor(params, ret)
	if err != nil {
		failErr(node, err, "no descriptor for %s", types.NewFptr(params, ret))
	}
	return d
}
