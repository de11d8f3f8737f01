package jasmin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type FieldDecl struct {
	Name string
	Desc string
}

// Method is the body of one method. Code is append-only: instructions
// are added with Emit and never rewritten.
type Method struct {
	Name      string
	Desc      string
	Static    bool
	MaxLocals int
	MaxStack  int
	Code      []Instr
}

func (m *Method) Emit(code ...Instr) {
	m.Code = append(m.Code, code...)
}

// Finish analyzes the method's code and records its stack limit.
func (m *Method) Finish() (*Analysis, error) {
	a, err := Analyze(m.Code)
	if err != nil {
		return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Desc, err)
	}
	m.MaxStack = a.MaxStack
	return a, nil
}

// ClassFile is one output unit.
type ClassFile struct {
	Name    string
	Super   string
	Fields  []FieldDecl
	Methods []*Method
}

// Method returns the first method with the given name, or nil.
func (c *ClassFile) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// WriteTo renders the class as Jasmin source. Directives are not
// indented, labels are indented by one tab and instructions by two.
func (c *ClassFile) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, ".class public %s\n", c.Name)
	fmt.Fprintf(&sb, ".super %s\n", c.Super)
	sb.WriteString("\n")
	for _, f := range c.Fields {
		fmt.Fprintf(&sb, ".field public %s %s\n", f.Name, f.Desc)
	}
	if len(c.Fields) > 0 {
		sb.WriteString("\n")
	}
	for _, m := range c.Methods {
		m.render(&sb)
		sb.WriteString("\n")
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (m *Method) render(sb *strings.Builder) {
	access := "public"
	if m.Static {
		access = "public static"
	}
	fmt.Fprintf(sb, ".method %s %s%s\n", access, m.Name, m.Desc)
	fmt.Fprintf(sb, ".limit stack %d\n", m.MaxStack)
	fmt.Fprintf(sb, ".limit locals %d\n", m.MaxLocals)
	for _, in := range m.Code {
		if in.Kind == Label {
			sb.WriteString("\t")
		} else {
			sb.WriteString("\t\t")
		}
		sb.WriteString(in.String())
		sb.WriteString("\n")
	}
	sb.WriteString(".end method\n")
}

func (c *ClassFile) String() string {
	var sb strings.Builder
	c.WriteTo(&sb)
	return sb.String()
}

// WriteFile writes the class to dir/<Name>.j and returns the path.
func (c *ClassFile) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, c.Name+".j")
	return path, WriteFileAtomic(path, []byte(c.String()))
}

// WriteFileAtomic replaces path with data so that readers see either the
// old contents or the new, never a partial file.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
