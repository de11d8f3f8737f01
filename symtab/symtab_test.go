package symtab

import (
	"errors"
	"strings"
	"testing"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/types"
	"github.com/nalgeon/be"
)

const zoo = `(program
  (class Animal
    (field name string)
    (field legs int)
    (method speak string () () (return "..."))
    (method walk void ((steps int)) ((i int)) (return)))
  (class Dog (extends Animal)
    (field tricks (list 2 string))
    (constructor ((n string) (l int)) () (assign (member this name) n))
    (method speak string () () (return "woof")))
  (class Puppy (extends Dog))
  (class Main (constructor () () (print 1))))`

func buildTable(t *testing.T, src string) *Table {
	t.Helper()
	prog, err := ast.Parse(src)
	be.Err(t, err, nil)
	table, err := Build(prog)
	be.Err(t, err, nil)
	return table
}

func TestBuild(t *testing.T) {
	table := buildTable(t, zoo)

	var names []string
	for _, c := range table.Classes() {
		names = append(names, c.Name)
	}
	be.Equal(t, names, []string{"Animal", "Dog", "Puppy", "Main"})

	dog, err := table.Class("Dog")
	be.Err(t, err, nil)
	be.Equal(t, dog.Parent, "Animal")
	be.Equal(t, len(dog.Fields), 1)
	be.Equal(t, len(dog.Methods), 1)
	be.True(t, dog.Constructor != nil)

	_, err = table.Class("Cat")
	be.Err(t, err, ErrNotFound)
}

func TestLookupField(t *testing.T) {
	table := buildTable(t, zoo)

	f, err := table.LookupField("Puppy", "legs")
	be.Err(t, err, nil)
	be.Equal(t, f.Owner, "Animal")
	be.Equal(t, f.Type, types.Int)

	f, err = table.LookupField("Dog", "tricks")
	be.Err(t, err, nil)
	be.Equal(t, f.Owner, "Dog")

	_, err = table.LookupField("Animal", "tricks")
	be.Err(t, err, ErrNotFound)

	_, err = table.LookupField("Dog", "speak")
	be.Err(t, err, ErrNotFound)
}

func TestLookupMethod(t *testing.T) {
	table := buildTable(t, zoo)

	m, err := table.LookupMethod("Puppy", "speak")
	be.Err(t, err, nil)
	be.Equal(t, m.Owner, "Dog")

	m, err = table.LookupMethod("Puppy", "walk")
	be.Err(t, err, nil)
	be.Equal(t, m.Owner, "Animal")
	be.Equal(t, m.Type().String(), "func<int -> void>")
	be.True(t, m.Return.IsVoid())

	_, err = table.LookupMethod("Main", "walk")
	be.Err(t, err, ErrNotFound)
}

func TestLocalType(t *testing.T) {
	table := buildTable(t, zoo)
	walk, err := table.LookupMethod("Animal", "walk")
	be.Err(t, err, nil)

	typ, err := walk.LocalType("steps")
	be.Err(t, err, nil)
	be.Equal(t, typ, types.Int)

	typ, err = walk.LocalType("i")
	be.Err(t, err, nil)
	be.Equal(t, typ, types.Int)

	_, err = walk.LocalType("j")
	be.Err(t, err, ErrNotFound)
	be.True(t, strings.Contains(err.Error(), "variable j in Animal.walk"))
}

func TestAncestors(t *testing.T) {
	table := buildTable(t, zoo)

	chain, err := table.Ancestors("Puppy")
	be.Err(t, err, nil)
	be.Equal(t, len(chain), 3)
	be.Equal(t, chain[0].Name, "Puppy")
	be.Equal(t, chain[2].Name, "Animal")

	be.True(t, table.IsSubclass("Puppy", "Animal"))
	be.True(t, table.IsSubclass("Dog", "Dog"))
	be.True(t, !table.IsSubclass("Animal", "Dog"))
	be.True(t, !table.IsSubclass("Ghost", "Dog"))
}

func TestConstructorParams(t *testing.T) {
	table := buildTable(t, zoo)

	params, err := table.ConstructorParams("Dog")
	be.Err(t, err, nil)
	be.Equal(t, len(params), 2)
	be.Equal(t, params[0], types.String)

	params, err = table.ConstructorParams("Puppy")
	be.Err(t, err, nil)
	be.Equal(t, len(params), 0)

	dog, _ := table.Class("Dog")
	ctor, err := table.Method("Dog", dog.Decl.Constructor)
	be.Err(t, err, nil)
	be.Equal(t, ctor, dog.Constructor)

	_, err = table.ConstructorParams("Cat")
	be.Err(t, err, ErrNotFound)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
	}{
		{
			name:     "duplicate class",
			src:      "(program (class A) (class A))",
			contains: []string{"1:20: class A redeclared"},
		},
		{
			name:     "unknown parent",
			src:      "(program (class A (extends B)))",
			contains: []string{"class A extends unknown class B"},
		},
		{
			name:     "cycle",
			src:      "(program (class A (extends B)) (class B (extends A)))",
			contains: []string{"class A inherits from itself", "class B inherits from itself"},
		},
		{
			name:     "duplicate members",
			src:      "(program (class A (field x int) (field x bool) (method m void () ()) (method m void () ()) (method x void () ())))",
			contains: []string{"field A.x redeclared", "method A.m redeclared", "method A.x has the name of a field"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			prog, err := ast.Parse(test.src)
			be.Err(t, err, nil)
			_, err = Build(prog)
			be.True(t, err != nil)
			for _, want := range test.contains {
				be.True(t, strings.Contains(err.Error(), want))
			}
			be.True(t, !errors.Is(err, ErrNotFound))
		})
	}
}
