package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestSourceDefinesCalledMethods(t *testing.T) {
	tests := []struct {
		class  string
		header string
	}{
		{"List", ".method public <init>(Ljava/util/ArrayList;)V"},
		{"List", ".method public <init>(LList;)V"},
		{"List", ".method public getElement(I)Ljava/lang/Object;"},
		{"List", ".method public setElement(ILjava/lang/Object;)V"},
		{"List", ".method public getSize()I"},
		{"Fptr", ".method public <init>(Ljava/lang/Object;Ljava/lang/String;)V"},
		{"Fptr", ".method public invoke(Ljava/util/ArrayList;)Ljava/lang/Object;"},
	}
	for _, test := range tests {
		src, err := Source(test.class)
		be.Err(t, err, nil)
		be.True(t, strings.HasPrefix(string(src), ".class public "+test.class+"\n"))
		be.True(t, strings.Contains(string(src), test.header+"\n"))
	}
}

func TestSourceUnknown(t *testing.T) {
	_, err := Source("Map")
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "no runtime class Map"))
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir)
	be.Err(t, err, nil)
	be.Equal(t, paths, []string{filepath.Join(dir, "List.j"), filepath.Join(dir, "Fptr.j")})

	for i, class := range Classes {
		want, err := Source(class)
		be.Err(t, err, nil)
		got, err := os.ReadFile(paths[i])
		be.Err(t, err, nil)
		be.Equal(t, string(got), string(want))
	}
}
