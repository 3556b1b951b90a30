package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tierwalk/internal/config"
	"tierwalk/internal/lang"
	"tierwalk/internal/trace"
	"tierwalk/internal/unit"
)

// buildLibrary loads the runtime config from --config, wires a unit.Driver
// against whatever tracer setupTracing already attached to cmd's context,
// and registers every embedded demo program under its own name.
func buildLibrary(cmd *cobra.Command) (*lang.Library, config.Runtime, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, config.Runtime{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Runtime{}, err
	}

	tracer := trace.FromContext(cmd.Context())
	driver := unit.New(cfg, tracer)
	driver.Wire()

	lib := lang.New(driver)
	for name, build := range programs {
		lib.Define(name, build())
	}
	return lib, cfg, nil
}

// lookupProgram resolves a program name to its UserFunction, or an error
// listing the known names.
func lookupProgram(lib *lang.Library, name string) (*lang.UserFunction, error) {
	uf, ok := lib.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown program %q (known programs: %v)", name, programNames())
	}
	return uf, nil
}
