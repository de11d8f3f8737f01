package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDescriptor is returned for types that have no JVM representation
// in the position they were asked for.
var ErrNoDescriptor = errors.New("type has no descriptor")

// Names of the runtime classes generated code relies on.
const (
	ObjectClass    = "java/lang/Object"
	IntegerClass   = "java/lang/Integer"
	BooleanClass   = "java/lang/Boolean"
	StringClass    = "java/lang/String"
	ArrayListClass = "java/util/ArrayList"
	ListClass      = "List"
	FptrClass      = "Fptr"
)

// InternalName returns the JVM internal class name that holds values of t
// when they are stored in a slot, field, or list element. Primitive types
// map to their box classes.
func InternalName(t *Type) (string, error) {
	if t == nil {
		return "", fmt.Errorf("<nil>: %w", ErrNoDescriptor)
	}
	switch t.Kind {
	case KindInt:
		return IntegerClass, nil
	case KindBool:
		return BooleanClass, nil
	case KindString:
		return StringClass, nil
	case KindList:
		return ListClass, nil
	case KindFptr:
		return FptrClass, nil
	case KindClass:
		if t.Name == "" {
			return "", fmt.Errorf("anonymous class: %w", ErrNoDescriptor)
		}
		return t.Name, nil
	default:
		return "", fmt.Errorf("%s: %w", t, ErrNoDescriptor)
	}
}

// Descriptor returns the field descriptor of the boxed representation of t.
func Descriptor(t *Type) (string, error) {
	name, err := InternalName(t)
	if err != nil {
		return "", err
	}
	return "L" + name + ";", nil
}

// ReturnDescriptor is Descriptor, except that a void type yields "V".
func ReturnDescriptor(t *Type) (string, error) {
	if t.IsVoid() {
		return "V", nil
	}
	return Descriptor(t)
}

// MethodDescriptor builds "(params)ret" with every parameter boxed.
func MethodDescriptor(params []*Type, ret *Type) (string, error) {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		d, err := Descriptor(p)
		if err != nil {
			return "", err
		}
		sb.WriteString(d)
	}
	sb.WriteByte(')')
	r, err := ReturnDescriptor(ret)
	if err != nil {
		return "", err
	}
	sb.WriteString(r)
	return sb.String(), nil
}
