package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultConfigFile is read from the working directory when -config is
// not given. It is optional.
const defaultConfigFile = "sophiac.yaml"

// projectConfig is the optional project file. Flags given on the command
// line override it.
type projectConfig struct {
	Output   string `yaml:"output"`
	Entry    string `yaml:"entry"`
	Parallel bool   `yaml:"parallel"`
	Runtime  *bool  `yaml:"runtime"` // write List.j and Fptr.j; default true
}

// loadConfig reads a project file. A missing file is only an error when
// the path was given explicitly.
func loadConfig(path string, explicit bool) (projectConfig, error) {
	var cfg projectConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c projectConfig) writeRuntime() bool {
	return c.Runtime == nil || *c.Runtime
}
