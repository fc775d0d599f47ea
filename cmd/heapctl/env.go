package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

const envPrefix = "HEAPCTL"

// envDefaults holds HEAPCTL_* overrides for flag defaults. A nil field means
// the variable is unset; flags given on the command line always win.
type envDefaults struct {
	Arena  *string
	File   *string
	Max    *int
	Chunk  *int
	Debug  *bool
	LogDir *string `split_words:"true"`
}

// applyEnv copies HEAPCTL_* values onto the flags of cmd that were not set
// explicitly.
func applyEnv(cmd *cobra.Command) error {
	var env envDefaults
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	set := func(name, value string) error {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			return nil
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("environment: --%s: %w", name, err)
		}
		return nil
	}

	var errs []error
	if env.Arena != nil {
		errs = append(errs, set("arena", *env.Arena))
	}
	if env.File != nil {
		errs = append(errs, set("file", *env.File))
	}
	if env.Max != nil {
		errs = append(errs, set("max", strconv.Itoa(*env.Max)))
	}
	if env.Chunk != nil {
		errs = append(errs, set("chunk", strconv.Itoa(*env.Chunk)))
	}
	if env.Debug != nil {
		errs = append(errs, set("debug", strconv.FormatBool(*env.Debug)))
	}
	if env.LogDir != nil {
		errs = append(errs, set("log-dir", *env.LogDir))
	}
	return errors.Join(errs...)
}
