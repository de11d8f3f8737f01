package jasmin

import (
	"errors"
	"fmt"
)

// ErrStack reports code whose operand stack cannot be verified.
var ErrStack = errors.New("invalid operand stack")

// Analysis is the result of Analyze.
type Analysis struct {
	MaxStack int
	// Reachable[i] reports whether code[i] can execute.
	Reachable []bool
	// Depth[i] is the stack depth before code[i], or -1 if unreachable.
	Depth []int
}

// opEffects lists the (pops, pushes) of every Op opcode.
var opEffects = map[string][2]int{
	"nop":    {0, 0},
	"iadd":   {2, 1},
	"isub":   {2, 1},
	"imul":   {2, 1},
	"idiv":   {2, 1},
	"irem":   {2, 1},
	"iand":   {2, 1},
	"ior":    {2, 1},
	"ixor":   {2, 1},
	"ineg":   {1, 1},
	"dup":    {1, 2},
	"dup_x1": {2, 3},
	"dup_x2": {3, 4},
	"dup2":   {2, 4},
	"pop":    {1, 0},
	"pop2":   {2, 0},
	"swap":   {2, 2},
}

var condPops = map[string]int{
	"ifeq": 1, "ifne": 1, "iflt": 1, "ifge": 1, "ifgt": 1, "ifle": 1,
	"ifnull": 1, "ifnonnull": 1,
	"if_icmpeq": 2, "if_icmpne": 2, "if_icmplt": 2, "if_icmpge": 2,
	"if_icmpgt": 2, "if_icmple": 2, "if_acmpeq": 2, "if_acmpne": 2,
}

// Effect returns how many stack words in executes pops and pushes.
func Effect(in Instr) (pops, pushes int, err error) {
	switch in.Kind {
	case PushInt, PushString, PushNull, Load, New:
		return 0, 1, nil
	case Store:
		return 1, 0, nil
	case Label, Jump:
		return 0, 0, nil
	case CheckCast:
		return 1, 1, nil
	case Op:
		e, ok := opEffects[in.Opcode]
		if !ok {
			return 0, 0, fmt.Errorf("unknown opcode %s: %w", in.Opcode, ErrStack)
		}
		return e[0], e[1], nil
	case CondJump:
		n, ok := condPops[in.Opcode]
		if !ok {
			return 0, 0, fmt.Errorf("unknown branch %s: %w", in.Opcode, ErrStack)
		}
		return n, 0, nil
	case Return:
		if in.Opcode == "return" {
			return 0, 0, nil
		}
		return 1, 0, nil
	case Invoke:
		args, ret, err := methodWords(in.Ref.Desc)
		if err != nil {
			return 0, 0, err
		}
		if in.Opcode != "invokestatic" {
			args++
		}
		return args, ret, nil
	case Field:
		size, err := fieldWords(in.Ref.Desc)
		if err != nil {
			return 0, 0, err
		}
		switch in.Opcode {
		case "getfield":
			return 1, size, nil
		case "putfield":
			return 1 + size, 0, nil
		case "getstatic":
			return 0, size, nil
		case "putstatic":
			return size, 0, nil
		}
		return 0, 0, fmt.Errorf("unknown field opcode %s: %w", in.Opcode, ErrStack)
	}
	return 0, 0, fmt.Errorf("unknown instruction kind %d: %w", in.Kind, ErrStack)
}

// methodWords counts the stack words of a method descriptor's arguments
// and return value.
func methodWords(desc string) (args, ret int, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return 0, 0, fmt.Errorf("malformed method descriptor %q: %w", desc, ErrStack)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		end, size, err := nextDescriptor(desc, i)
		if err != nil {
			return 0, 0, err
		}
		args += size
		i = end
	}
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("malformed method descriptor %q: %w", desc, ErrStack)
	}
	if desc[i+1:] == "V" {
		return args, 0, nil
	}
	ret, err = fieldWords(desc[i+1:])
	return args, ret, err
}

func fieldWords(desc string) (int, error) {
	end, size, err := nextDescriptor(desc, 0)
	if err != nil {
		return 0, err
	}
	if end != len(desc) {
		return 0, fmt.Errorf("malformed field descriptor %q: %w", desc, ErrStack)
	}
	return size, nil
}

// nextDescriptor scans one field descriptor starting at desc[i].
func nextDescriptor(desc string, i int) (end, size int, err error) {
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("malformed descriptor %q: %w", desc, ErrStack)
	}
	switch desc[i] {
	case 'B', 'C', 'F', 'I', 'S', 'Z':
		return i + 1, 1, nil
	case 'J', 'D':
		return i + 1, 2, nil
	case 'L':
		for j := i; j < len(desc); j++ {
			if desc[j] == ';' {
				return j + 1, 1, nil
			}
		}
	case '[':
		end, _, err := nextDescriptor(desc, i+1)
		return end, 1, err
	}
	return 0, 0, fmt.Errorf("malformed descriptor %q: %w", desc, ErrStack)
}

// Analyze follows every path through code from its first instruction,
// tracking the operand stack depth. It fails on underflow, on two paths
// reaching an instruction with different depths, on jumps to undefined
// labels, and on paths that run past the last instruction.
func Analyze(code []Instr) (*Analysis, error) {
	labels := make(map[string]int)
	for i, in := range code {
		if in.Kind != Label {
			continue
		}
		if _, dup := labels[in.Label]; dup {
			return nil, fmt.Errorf("label %s defined twice: %w", in.Label, ErrStack)
		}
		labels[in.Label] = i
	}
	for _, in := range code {
		if in.Kind == Jump || in.Kind == CondJump {
			if _, ok := labels[in.Label]; !ok {
				return nil, fmt.Errorf("jump to undefined label %s: %w", in.Label, ErrStack)
			}
		}
	}

	a := &Analysis{
		Reachable: make([]bool, len(code)),
		Depth:     make([]int, len(code)),
	}
	for i := range a.Depth {
		a.Depth[i] = -1
	}
	if len(code) == 0 {
		return a, nil
	}

	var worklist []int
	visit := func(from, to, depth int) error {
		if to >= len(code) {
			return fmt.Errorf("execution falls off the end of the code after %s: %w", code[from], ErrStack)
		}
		if a.Depth[to] == -1 {
			a.Depth[to] = depth
			a.Reachable[to] = true
			worklist = append(worklist, to)
			return nil
		}
		if a.Depth[to] != depth {
			return fmt.Errorf("stack depth %d at %s (instruction %d) conflicts with depth %d: %w",
				depth, code[to], to, a.Depth[to], ErrStack)
		}
		return nil
	}

	a.Depth[0] = 0
	a.Reachable[0] = true
	worklist = append(worklist, 0)
	for len(worklist) > 0 {
		i := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		in := code[i]

		pops, pushes, err := Effect(in)
		if err != nil {
			return nil, err
		}
		depth := a.Depth[i]
		if pops > depth {
			return nil, fmt.Errorf("stack underflow at %s (instruction %d): %w", in, i, ErrStack)
		}
		depth += pushes - pops
		a.MaxStack = max(a.MaxStack, depth, a.Depth[i])

		switch in.Kind {
		case Return:
			continue
		case Jump, CondJump:
			if err := visit(i, labels[in.Label], depth); err != nil {
				return nil, err
			}
			if in.Kind == Jump {
				continue
			}
		}
		if err := visit(i, i+1, depth); err != nil {
			return nil, err
		}
	}
	return a, nil
}
