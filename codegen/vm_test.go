package codegen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
)

// vm runs generated class files the way the JVM would, with just enough
// of java.lang, java.util and the List and Fptr runtime classes to
// execute Sophia programs. Values on the stack and in slots are:
//
//	int32        int and bool on the stack
//	boxedInt     java/lang/Integer
//	boxedBool    java/lang/Boolean
//	string       java/lang/String
//	*arrayList   java/util/ArrayList
//	*list        List
//	*fptr        Fptr
//	*object      instances of generated classes
//	nil          null
type vm struct {
	classes map[string]*jasmin.ClassFile
	out     strings.Builder
	steps   int
}

type (
	boxedInt  int32
	boxedBool bool
	arrayList struct{ elems []any }
	list      struct{ elems []any }
	fptr      struct {
		inst any
		name string
	}
	object struct {
		class  string
		fields map[string]any
	}
	printStream struct{}
)

const maxSteps = 1_000_000

var errVM = errors.New("vm")

type vmFault struct{ msg string }

func (v *vm) fault(format string, args ...any) {
	panic(vmFault{msg: fmt.Sprintf(format, args...)})
}

func newVM(files []*jasmin.ClassFile) *vm {
	v := &vm{classes: make(map[string]*jasmin.ClassFile)}
	for _, f := range files {
		v.classes[f.Name] = f
	}
	return v
}

// runMain calls the static main method of class and returns everything
// printed.
func (v *vm) runMain(class string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(vmFault)
			if !ok {
				panic(r)
			}
			out, err = v.out.String(), fmt.Errorf("%w: %s", errVM, f.msg)
		}
	}()
	c := v.classes[class]
	if c == nil {
		v.fault("no class %s", class)
	}
	var main *jasmin.Method
	for _, m := range c.Methods {
		if m.Name == "main" && m.Static {
			main = m
		}
	}
	if main == nil {
		v.fault("class %s has no static main", class)
	}
	v.invoke(main, []any{nil})
	return v.out.String(), nil
}

// findMethod looks up name and desc in class and its ancestors.
func (v *vm) findMethod(class, name, desc string) *jasmin.Method {
	for c := v.classes[class]; c != nil; c = v.classes[c.Super] {
		for _, m := range c.Methods {
			if m.Name == name && m.Desc == desc {
				return m
			}
		}
	}
	return nil
}

func (v *vm) isSubclass(class, of string) bool {
	if of == "java/lang/Object" {
		return true
	}
	for c := class; c != ""; {
		if c == of {
			return true
		}
		f := v.classes[c]
		if f == nil {
			return false
		}
		c = f.Super
	}
	return false
}

// invoke runs m with the given local slots already holding the receiver
// and arguments, and returns what it returns (nil for void).
func (v *vm) invoke(m *jasmin.Method, args []any) any {
	if len(args) > m.MaxLocals {
		v.fault("%s%s: %d arguments but .limit locals %d", m.Name, m.Desc, len(args), m.MaxLocals)
	}
	locals := make([]any, m.MaxLocals)
	copy(locals, args)
	labels := make(map[string]int)
	for i, in := range m.Code {
		if in.Kind == jasmin.Label {
			labels[in.Label] = i
		}
	}

	var stack []any
	push := func(x any) {
		stack = append(stack, x)
		if len(stack) > m.MaxStack {
			v.fault("%s%s: stack exceeds .limit stack %d", m.Name, m.Desc, m.MaxStack)
		}
	}
	pop := func() any {
		if len(stack) == 0 {
			v.fault("%s%s: stack underflow", m.Name, m.Desc)
		}
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return x
	}
	popInt := func() int32 {
		x, ok := pop().(int32)
		if !ok {
			v.fault("%s%s: expected an int on the stack", m.Name, m.Desc)
		}
		return x
	}

	for pc := 0; pc < len(m.Code); pc++ {
		v.steps++
		if v.steps > maxSteps {
			v.fault("step limit exceeded")
		}
		in := m.Code[pc]
		switch in.Kind {
		case jasmin.PushInt:
			push(in.Int)
		case jasmin.PushString:
			push(in.Text)
		case jasmin.PushNull:
			push(nil)
		case jasmin.Load:
			push(locals[in.Slot])
		case jasmin.Store:
			locals[in.Slot] = pop()
		case jasmin.Label:
		case jasmin.Jump:
			pc = labels[in.Label]
		case jasmin.CondJump:
			if v.condition(in.Opcode, pop, popInt) {
				pc = labels[in.Label]
			}
		case jasmin.Op:
			v.op(in.Opcode, push, pop, popInt)
		case jasmin.New:
			switch in.Text {
			case "java/util/ArrayList":
				push(&arrayList{})
			case "List":
				push(&list{})
			case "Fptr":
				push(&fptr{})
			default:
				if v.classes[in.Text] == nil {
					v.fault("new of unknown class %s", in.Text)
				}
				push(&object{class: in.Text, fields: make(map[string]any)})
			}
		case jasmin.CheckCast:
			x := pop()
			v.checkCast(x, in.Text)
			push(x)
		case jasmin.Field:
			v.field(in, push, pop)
		case jasmin.Invoke:
			n := paramCount(in.Ref.Desc)
			if in.Opcode != "invokestatic" {
				n++
			}
			if len(stack) < n {
				v.fault("%s: stack underflow", in)
			}
			args := append([]any(nil), stack[len(stack)-n:]...)
			stack = stack[:len(stack)-n]
			if ret, ok := v.call(in, args); ok {
				push(ret)
			}
		case jasmin.Return:
			if in.Opcode == "areturn" {
				return pop()
			}
			return nil
		default:
			v.fault("unknown instruction %s", in)
		}
	}
	v.fault("%s%s: ran off the end of the code", m.Name, m.Desc)
	return nil
}

func (v *vm) condition(op string, pop func() any, popInt func() int32) bool {
	switch op {
	case "ifeq":
		return popInt() == 0
	case "ifne":
		return popInt() != 0
	case "if_acmpeq", "if_acmpne":
		b, a := pop(), pop()
		return (a == b) == (op == "if_acmpeq")
	}
	b, a := popInt(), popInt()
	switch op {
	case "if_icmpeq":
		return a == b
	case "if_icmpne":
		return a != b
	case "if_icmplt":
		return a < b
	case "if_icmpge":
		return a >= b
	case "if_icmpgt":
		return a > b
	case "if_icmple":
		return a <= b
	}
	v.fault("unknown conditional jump %s", op)
	return false
}

func (v *vm) op(op string, push func(any), pop func() any, popInt func() int32) {
	switch op {
	case "iadd", "isub", "imul", "idiv", "irem", "ixor":
		b, a := popInt(), popInt()
		switch op {
		case "iadd":
			push(a + b)
		case "isub":
			push(a - b)
		case "imul":
			push(a * b)
		case "idiv", "irem":
			if b == 0 {
				v.fault("java.lang.ArithmeticException: / by zero")
			}
			if op == "idiv" {
				push(a / b)
			} else {
				push(a % b)
			}
		case "ixor":
			push(a ^ b)
		}
	case "ineg":
		push(-popInt())
	case "dup":
		x := pop()
		push(x)
		push(x)
	case "dup_x1":
		x, a := pop(), pop()
		push(x)
		push(a)
		push(x)
	case "dup_x2":
		x, b, a := pop(), pop(), pop()
		push(x)
		push(a)
		push(b)
		push(x)
	case "swap":
		b, a := pop(), pop()
		push(b)
		push(a)
	case "pop":
		pop()
	case "nop":
	default:
		v.fault("unknown opcode %s", op)
	}
}

func (v *vm) checkCast(x any, class string) {
	if x == nil {
		return
	}
	ok := false
	switch x := x.(type) {
	case boxedInt:
		ok = class == "java/lang/Integer"
	case boxedBool:
		ok = class == "java/lang/Boolean"
	case string:
		ok = class == "java/lang/String"
	case *list:
		ok = class == "List"
	case *fptr:
		ok = class == "Fptr"
	case *arrayList:
		ok = class == "java/util/ArrayList"
	case *object:
		ok = v.isSubclass(x.class, class)
	}
	if class == "java/lang/Object" {
		ok = true
	}
	if !ok {
		v.fault("java.lang.ClassCastException: %s cannot be cast to %s", describeValue(x), class)
	}
}

func (v *vm) field(in jasmin.Instr, push func(any), pop func() any) {
	switch in.Opcode {
	case "getstatic":
		if in.Ref.Owner != "java/lang/System" || in.Ref.Name != "out" {
			v.fault("unknown static field %s", in)
		}
		push(printStream{})
	case "getfield":
		obj := v.receiver(pop(), in)
		x, ok := obj.fields[in.Ref.Name]
		if !ok {
			v.fault("%s: field was never initialized", in)
		}
		push(x)
	case "putfield":
		x := pop()
		obj := v.receiver(pop(), in)
		obj.fields[in.Ref.Name] = x
	}
}

func (v *vm) receiver(x any, in jasmin.Instr) *object {
	obj, ok := x.(*object)
	if !ok || obj == nil {
		v.fault("java.lang.NullPointerException at %s", in)
	}
	if !v.isSubclass(obj.class, in.Ref.Owner) {
		v.fault("%s on an instance of %s", in, obj.class)
	}
	return obj
}

// call runs one invoke instruction. args holds the receiver, if any,
// followed by the arguments. The boolean is false for void methods.
func (v *vm) call(in jasmin.Instr, args []any) (any, bool) {
	ref := in.Ref
	void := strings.HasSuffix(ref.Desc, ")V")
	key := ref.Owner + "/" + ref.Name + ref.Desc

	switch key {
	case "java/lang/Integer/valueOf(I)Ljava/lang/Integer;":
		return boxedInt(args[0].(int32)), true
	case "java/lang/Boolean/valueOf(Z)Ljava/lang/Boolean;":
		return boxedBool(args[0].(int32) != 0), true
	case "java/lang/Integer/intValue()I":
		b, ok := args[0].(boxedInt)
		if !ok {
			v.fault("intValue on %s", describeValue(args[0]))
		}
		return int32(b), true
	case "java/lang/Boolean/booleanValue()Z":
		b, ok := args[0].(boxedBool)
		if !ok {
			v.fault("booleanValue on %s", describeValue(args[0]))
		}
		if b {
			return int32(1), true
		}
		return int32(0), true
	case "java/lang/String/equals(Ljava/lang/Object;)Z":
		s, ok := args[0].(string)
		if !ok {
			v.fault("java.lang.NullPointerException at %s", in)
		}
		if other, ok := args[1].(string); ok && other == s {
			return int32(1), true
		}
		return int32(0), true
	case "java/io/PrintStream/println(I)V":
		fmt.Fprintf(&v.out, "%d\n", args[1].(int32))
		return nil, false
	case "java/io/PrintStream/println(Z)V":
		fmt.Fprintf(&v.out, "%t\n", args[1].(int32) != 0)
		return nil, false
	case "java/io/PrintStream/println(Ljava/lang/String;)V",
		"java/io/PrintStream/println(Ljava/lang/Object;)V":
		fmt.Fprintf(&v.out, "%s\n", toString(args[1]))
		return nil, false
	case "java/util/ArrayList/<init>()V":
		return nil, false
	case "java/util/ArrayList/add(Ljava/lang/Object;)Z":
		a := args[0].(*arrayList)
		a.elems = append(a.elems, args[1])
		return int32(1), true
	case "List/<init>(Ljava/util/ArrayList;)V":
		args[0].(*list).elems = args[1].(*arrayList).elems
		return nil, false
	case "List/<init>(LList;)V":
		src, ok := args[1].(*list)
		if !ok || src == nil {
			v.fault("java.lang.NullPointerException at %s", in)
		}
		args[0].(*list).elems = copyElems(src.elems)
		return nil, false
	case "List/getElement(I)Ljava/lang/Object;":
		l, i := v.listIndex(args[0], args[1])
		return l.elems[i], true
	case "List/setElement(ILjava/lang/Object;)V":
		l, i := v.listIndex(args[0], args[1])
		l.elems[i] = args[2]
		return nil, false
	case "List/getSize()I":
		l, _ := args[0].(*list)
		if l == nil {
			v.fault("java.lang.NullPointerException at %s", in)
		}
		return int32(len(l.elems)), true
	case "Fptr/<init>(Ljava/lang/Object;Ljava/lang/String;)V":
		f := args[0].(*fptr)
		f.inst, f.name = args[1], args[2].(string)
		return nil, false
	case "Fptr/invoke(Ljava/util/ArrayList;)Ljava/lang/Object;":
		f, _ := args[0].(*fptr)
		if f == nil {
			v.fault("java.lang.NullPointerException at %s", in)
		}
		return v.invokeBound(f, args[1].(*arrayList).elems), true
	case "java/lang/Object/<init>()V":
		return nil, false
	}

	if in.Opcode != "invokespecial" || ref.Name != "<init>" {
		v.fault("unsupported call %s", in)
	}
	m := v.findMethod(ref.Owner, ref.Name, ref.Desc)
	if m == nil || v.classes[ref.Owner] == nil {
		v.fault("no method %s", key)
	}
	v.invoke(m, args)
	return nil, !void
}

func (v *vm) listIndex(l, i any) (*list, int) {
	ls, _ := l.(*list)
	if ls == nil {
		v.fault("java.lang.NullPointerException on a list")
	}
	idx := int(i.(int32))
	if idx < 0 || idx >= len(ls.elems) {
		v.fault("java.lang.IndexOutOfBoundsException: Index %d out of bounds for length %d", idx, len(ls.elems))
	}
	return ls, idx
}

// invokeBound calls the method a bound method names, as the Fptr runtime
// class does: by name and number of arguments, on the receiver's class.
func (v *vm) invokeBound(f *fptr, args []any) any {
	obj, ok := f.inst.(*object)
	if !ok || obj == nil {
		v.fault("java.lang.NullPointerException calling %s", f.name)
	}
	for c := v.classes[obj.class]; c != nil; c = v.classes[c.Super] {
		for _, m := range c.Methods {
			if m.Name == f.name && !m.Static && paramCount(m.Desc) == len(args) {
				return v.invoke(m, append([]any{obj}, args...))
			}
		}
	}
	v.fault("java.lang.NoSuchMethodException: %s.%s", obj.class, f.name)
	return nil
}

func copyElems(elems []any) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		if l, ok := e.(*list); ok && l != nil {
			out[i] = &list{elems: copyElems(l.elems)}
		} else {
			out[i] = e
		}
	}
	return out
}

// paramCount counts the parameters of a method descriptor.
func paramCount(desc string) int {
	n := 0
	for i := 1; i < len(desc) && desc[i] != ')'; i++ {
		for desc[i] == '[' {
			i++
		}
		if desc[i] == 'L' {
			i = strings.IndexByte(desc[i:], ';') + i
		}
		n++
	}
	return n
}

// toString renders x as String.valueOf would.
func toString(x any) string {
	switch x := x.(type) {
	case nil:
		return "null"
	case boxedInt:
		return strconv.Itoa(int(x))
	case boxedBool:
		return strconv.FormatBool(bool(x))
	case string:
		return x
	case *list:
		return toString(&arrayList{elems: x.elems})
	case *arrayList:
		parts := make([]string, len(x.elems))
		for i, e := range x.elems {
			parts[i] = toString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return describeValue(x)
}

func describeValue(x any) string {
	switch x := x.(type) {
	case nil:
		return "null"
	case boxedInt:
		return "java.lang.Integer"
	case boxedBool:
		return "java.lang.Boolean"
	case string:
		return "java.lang.String"
	case *list:
		return "List"
	case *fptr:
		return "Fptr"
	case *object:
		return x.class
	}
	return fmt.Sprintf("%T", x)
}
