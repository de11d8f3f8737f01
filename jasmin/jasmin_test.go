package jasmin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestInstrString(t *testing.T) {
	tests := []struct {
		in   Instr
		want string
	}{
		{Int(-1), "iconst_m1"},
		{Int(0), "iconst_0"},
		{Int(5), "iconst_5"},
		{Int(6), "bipush 6"},
		{Int(-128), "bipush -128"},
		{Int(200), "sipush 200"},
		{Int(-40000), "ldc -40000"},
		{String("say \"hi\"\n"), `ldc "say \"hi\"\n"`},
		{Null(), "aconst_null"},
		{ALoad(0), "aload_0"},
		{ALoad(4), "aload 4"},
		{AStore(3), "astore_3"},
		{AStore(12), "astore 12"},
		{Simple("iadd"), "iadd"},
		{Goto("Label_3"), "goto Label_3"},
		{If("if_icmplt", "Label_1"), "if_icmplt Label_1"},
		{Mark("Label_0"), "Label_0:"},
		{InvokeVirtual("java/lang/Integer", "intValue", "()I"), "invokevirtual java/lang/Integer/intValue()I"},
		{InvokeStatic("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;"), "invokestatic java/lang/Integer/valueOf(I)Ljava/lang/Integer;"},
		{GetField("Dog", "age", "Ljava/lang/Integer;"), "getfield Dog/age Ljava/lang/Integer;"},
		{GetStatic("java/lang/System", "out", "Ljava/io/PrintStream;"), "getstatic java/lang/System/out Ljava/io/PrintStream;"},
		{NewObject("List"), "new List"},
		{Cast("java/lang/String"), "checkcast java/lang/String"},
		{VoidReturn(), "return"},
		{AReturn(), "areturn"},
	}
	for _, test := range tests {
		be.Equal(t, test.in.String(), test.want)
	}
}

func TestEffect(t *testing.T) {
	tests := []struct {
		in     Instr
		pops   int
		pushes int
	}{
		{Int(1), 0, 1},
		{AStore(1), 1, 0},
		{Simple("dup_x2"), 3, 4},
		{Simple("swap"), 2, 2},
		{If("ifeq", "L"), 1, 0},
		{If("if_acmpne", "L"), 2, 0},
		{InvokeVirtual("List", "setElement", "(ILjava/lang/Object;)V"), 3, 0},
		{InvokeStatic("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;"), 1, 1},
		{InvokeSpecial("X", "<init>", "(JLjava/lang/String;[I)V"), 5, 0},
		{InvokeVirtual("X", "wide", "()D"), 1, 2},
		{PutField("Dog", "age", "Ljava/lang/Integer;"), 2, 0},
		{GetField("Dog", "age", "Ljava/lang/Integer;"), 1, 1},
		{GetStatic("java/lang/System", "out", "Ljava/io/PrintStream;"), 0, 1},
		{Cast("List"), 1, 1},
		{AReturn(), 1, 0},
		{Mark("L"), 0, 0},
	}
	for _, test := range tests {
		pops, pushes, err := Effect(test.in)
		be.Err(t, err, nil)
		be.Equal(t, pops, test.pops)
		be.Equal(t, pushes, test.pushes)
	}

	bad := []Instr{
		Simple("frobnicate"),
		If("ifmaybe", "L"),
		InvokeVirtual("X", "m", "I)V"),
		InvokeVirtual("X", "m", "(Q)V"),
		GetField("X", "f", "Ljava/lang/String"),
	}
	for _, in := range bad {
		_, _, err := Effect(in)
		be.True(t, errors.Is(err, ErrStack))
	}
}

func TestAnalyzeBranches(t *testing.T) {
	// if (x < 2) push 1 else push 0, then return it
	code := []Instr{
		ALoad(1),
		InvokeVirtual("java/lang/Integer", "intValue", "()I"),
		Int(2),
		If("if_icmplt", "Label_0"),
		Int(0),
		Goto("Label_1"),
		Mark("Label_0"),
		Int(1),
		Mark("Label_1"),
		InvokeStatic("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;"),
		AReturn(),
	}
	a, err := Analyze(code)
	be.Err(t, err, nil)
	be.Equal(t, a.MaxStack, 2)
	for i := range code {
		be.True(t, a.Reachable[i])
	}
	be.Equal(t, a.Depth[6], 0)
	be.Equal(t, a.Depth[8], 1)
}

func TestAnalyzeUnreachable(t *testing.T) {
	code := []Instr{
		Goto("Label_1"),
		Mark("Label_0"),
		Int(7),
		Simple("pop"),
		Mark("Label_1"),
		VoidReturn(),
	}
	a, err := Analyze(code)
	be.Err(t, err, nil)
	be.Equal(t, a.Reachable, []bool{true, false, false, false, true, true})
	be.Equal(t, a.Depth[2], -1)
	be.Equal(t, a.MaxStack, 0)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     []Instr
		contains string
	}{
		{"underflow", []Instr{Simple("pop"), VoidReturn()}, "stack underflow at pop"},
		{"undefined label", []Instr{Goto("Label_9")}, "undefined label Label_9"},
		{"undefined label in dead code", []Instr{VoidReturn(), Goto("Label_9")}, "undefined label Label_9"},
		{"duplicate label", []Instr{Mark("L"), Mark("L"), VoidReturn()}, "label L defined twice"},
		{"falls off", []Instr{Int(1), Simple("pop")}, "falls off the end"},
		{
			"inconsistent join",
			[]Instr{
				Int(1),
				If("ifeq", "Label_0"),
				Int(2),
				Mark("Label_0"),
				VoidReturn(),
			},
			"conflicts with depth",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Analyze(test.code)
			be.True(t, errors.Is(err, ErrStack))
			be.True(t, strings.Contains(err.Error(), test.contains))
		})
	}
}

func sampleClass() *ClassFile {
	ctor := &Method{Name: "<init>", Desc: "()V", MaxLocals: 1}
	ctor.Emit(
		ALoad(0),
		InvokeSpecial("java/lang/Object", "<init>", "()V"),
		Mark("Label_0"),
		VoidReturn(),
	)
	return &ClassFile{
		Name:    "Dog",
		Super:   "java/lang/Object",
		Fields:  []FieldDecl{{Name: "age", Desc: "Ljava/lang/Integer;"}},
		Methods: []*Method{ctor},
	}
}

func TestClassFileRender(t *testing.T) {
	c := sampleClass()
	_, err := c.Methods[0].Finish()
	be.Err(t, err, nil)

	want := ".class public Dog\n" +
		".super java/lang/Object\n" +
		"\n" +
		".field public age Ljava/lang/Integer;\n" +
		"\n" +
		".method public <init>()V\n" +
		".limit stack 1\n" +
		".limit locals 1\n" +
		"\t\taload_0\n" +
		"\t\tinvokespecial java/lang/Object/<init>()V\n" +
		"\tLabel_0:\n" +
		"\t\treturn\n" +
		".end method\n" +
		"\n"
	be.Equal(t, c.String(), want)
	be.Equal(t, c.Method("<init>"), c.Methods[0])
	be.True(t, c.Method("run") == nil)
}

func TestStaticMethodHeader(t *testing.T) {
	m := &Method{Name: "main", Desc: "([Ljava/lang/String;)V", Static: true, MaxLocals: 1}
	m.Emit(VoidReturn())
	c := &ClassFile{Name: "Main", Super: "java/lang/Object", Methods: []*Method{m}}
	be.True(t, strings.Contains(c.String(), ".method public static main([Ljava/lang/String;)V\n"))
}

func TestFinishReportsMethod(t *testing.T) {
	m := &Method{Name: "run", Desc: "()V"}
	m.Emit(Simple("pop"), VoidReturn())
	_, err := m.Finish()
	be.True(t, errors.Is(err, ErrStack))
	be.True(t, strings.Contains(err.Error(), "method run()V"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	c := sampleClass()
	path, err := c.WriteFile(dir)
	be.Err(t, err, nil)
	be.Equal(t, path, filepath.Join(dir, "Dog.j"))

	data, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, string(data), c.String())

	// Rewriting replaces the file and leaves no temp files behind.
	c.Fields = nil
	_, err = c.WriteFile(dir)
	be.Err(t, err, nil)
	entries, err := os.ReadDir(dir)
	be.Err(t, err, nil)
	be.Equal(t, len(entries), 1)
	data, _ = os.ReadFile(path)
	be.True(t, !strings.Contains(string(data), ".field"))
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "A.j"), []byte("x"))
	be.True(t, err != nil)
}
