// Package jasmin models Jasmin assembly: a closed instruction set,
// append-only method buffers, operand stack analysis and text rendering.
package jasmin

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	PushInt    Kind = iota // Int
	PushString             // Text
	PushNull
	Load  // Slot
	Store // Slot
	Op    // Opcode with no operands: arithmetic, dup family, pop, swap
	Jump  // Label
	CondJump
	Label
	Invoke // Opcode, Ref
	Field  // Opcode, Ref
	New    // Text is the class
	CheckCast
	Return // Opcode is return or areturn
)

// Ref names a method or field. Desc is a method descriptor such as
// "(I)V" for methods and a field descriptor such as "I" for fields.
type Ref struct {
	Owner string
	Name  string
	Desc  string
}

// Instr is one instruction or label of a method body. Which fields are
// meaningful depends on Kind.
type Instr struct {
	Kind   Kind
	Opcode string
	Int    int32
	Text   string
	Slot   int
	Label  string
	Ref    Ref
}

func Int(v int32) Instr { return Instr{Kind: PushInt, Int: v} }
func String(s string) Instr { return Instr{Kind: PushString, Text: s} }
func Null() Instr { return Instr{Kind: PushNull} }
func ALoad(slot int) Instr { return Instr{Kind: Load, Slot: slot} }
func AStore(slot int) Instr { return Instr{Kind: Store, Slot: slot} }
func Simple(opcode string) Instr { return Instr{Kind: Op, Opcode: opcode} }
func Goto(label string) Instr { return Instr{Kind: Jump, Label: label} }
func Mark(label string) Instr { return Instr{Kind: Label, Label: label} }
func NewObject(class string) Instr { return Instr{Kind: New, Text: class} }
func Cast(class string) Instr { return Instr{Kind: CheckCast, Text: class} }

// If is a conditional jump such as ifeq or if_icmplt.
func If(opcode, label string) Instr {
	return Instr{Kind: CondJump, Opcode: opcode, Label: label}
}

func InvokeVirtual(owner, name, desc string) Instr {
	return Instr{Kind: Invoke, Opcode: "invokevirtual", Ref: Ref{owner, name, desc}}
}

func InvokeSpecial(owner, name, desc string) Instr {
	return Instr{Kind: Invoke, Opcode: "invokespecial", Ref: Ref{owner, name, desc}}
}

func InvokeStatic(owner, name, desc string) Instr {
	return Instr{Kind: Invoke, Opcode: "invokestatic", Ref: Ref{owner, name, desc}}
}

func GetField(owner, name, desc string) Instr {
	return Instr{Kind: Field, Opcode: "getfield", Ref: Ref{owner, name, desc}}
}

func PutField(owner, name, desc string) Instr {
	return Instr{Kind: Field, Opcode: "putfield", Ref: Ref{owner, name, desc}}
}

func GetStatic(owner, name, desc string) Instr {
	return Instr{Kind: Field, Opcode: "getstatic", Ref: Ref{owner, name, desc}}
}

func VoidReturn() Instr { return Instr{Kind: Return, Opcode: "return"} }
func AReturn() Instr { return Instr{Kind: Return, Opcode: "areturn"} }

// String renders the instruction as Jasmin source without indentation.
func (in Instr) String() string {
	switch in.Kind {
	case PushInt:
		return pushInt(in.Int)
	case PushString:
		return "ldc " + Quote(in.Text)
	case PushNull:
		return "aconst_null"
	case Load:
		return slotOp("aload", in.Slot)
	case Store:
		return slotOp("astore", in.Slot)
	case Op, Return:
		return in.Opcode
	case Jump:
		return "goto " + in.Label
	case CondJump:
		return in.Opcode + " " + in.Label
	case Label:
		return in.Label + ":"
	case Invoke:
		return in.Opcode + " " + in.Ref.Owner + "/" + in.Ref.Name + in.Ref.Desc
	case Field:
		return in.Opcode + " " + in.Ref.Owner + "/" + in.Ref.Name + " " + in.Ref.Desc
	case New:
		return "new " + in.Text
	case CheckCast:
		return "checkcast " + in.Text
	}
	return fmt.Sprintf("; unknown instruction kind %d", in.Kind)
}

func pushInt(v int32) string {
	switch {
	case v == -1:
		return "iconst_m1"
	case v >= 0 && v <= 5:
		return "iconst_" + strconv.Itoa(int(v))
	case v >= -128 && v <= 127:
		return "bipush " + strconv.Itoa(int(v))
	case v >= -32768 && v <= 32767:
		return "sipush " + strconv.Itoa(int(v))
	}
	return "ldc " + strconv.Itoa(int(v))
}

func slotOp(op string, slot int) string {
	if slot >= 0 && slot <= 3 {
		return op + "_" + strconv.Itoa(slot)
	}
	return op + " " + strconv.Itoa(slot)
}

// Quote renders s as a Jasmin string constant.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
