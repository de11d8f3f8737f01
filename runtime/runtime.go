// Package runtime carries the Jasmin sources of the helper classes that
// generated code calls into: List, a list value over java.util.ArrayList,
// and Fptr, a method bound to its receiver.
package runtime

import (
	"embed"
	"fmt"
	"path/filepath"

	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
)

//go:embed List.j Fptr.j
var sources embed.FS

// Classes names the helper classes in the order WriteAll writes them.
var Classes = []string{"List", "Fptr"}

// Source returns the Jasmin source of a helper class.
func Source(class string) ([]byte, error) {
	data, err := sources.ReadFile(class + ".j")
	if err != nil {
		return nil, fmt.Errorf("no runtime class %s: %w", class, err)
	}
	return data, nil
}

// WriteAll writes every helper class into dir and returns the paths.
func WriteAll(dir string) ([]string, error) {
	var paths []string
	for _, class := range Classes {
		data, err := Source(class)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, class+".j")
		if err := jasmin.WriteFileAtomic(path, data); err != nil {
			return paths, fmt.Errorf("write runtime class %s: %w", class, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
