// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/module"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

// cli holds the command tree and the exit status of the module it ran.
type cli struct {
	root     *cobra.Command
	exitCode int
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	c := &cli{}
	c.root = &cobra.Command{
		Use:           "azure-rm-modules",
		Short:         "Ansible modules for Azure Resource Manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.root.SetIn(stdin)
	c.root.SetOut(stdout)
	c.root.SetErr(stderr)

	runCmd := &cobra.Command{
		Use:   "run <module> [args-file]",
		Short: "Run a module with an Ansible arguments file, or arguments on stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !registry.HasModule(args[0]) {
				return fmt.Errorf("unknown module %q", args[0])
			}
			argsPath := ""
			if len(args) == 2 {
				argsPath = args[1]
			}
			c.exitCode = runModule(args[0], argsPath, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the available modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema <module>",
		Short: "Print the argument schema of a module as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSchema(cmd.OutOrStdout(), args[0])
		},
	}

	var force bool
	linkCmd := &cobra.Command{
		Use:   "link <dir>",
		Short: "Create one link per module to this binary, for use as an Ansible library directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			n, err := linkModules(exe, args[0], force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "linked %d modules into %s\n", n, args[0])
			return nil
		},
	}
	linkCmd.Flags().BoolVar(&force, "force", false, "replace existing files")

	c.root.AddCommand(runCmd, listCmd, schemaCmd, linkCmd)
	return c
}

// moduleSchema is the YAML document printed by the schema command.
type moduleSchema struct {
	Module            string       `yaml:"module"`
	Resource          string       `yaml:"resource"`
	Options           argspec.Spec `yaml:"options"`
	MutuallyExclusive [][]string   `yaml:"mutually_exclusive,omitempty"`
	RequiredTogether  [][]string   `yaml:"required_together,omitempty"`
	RequiredIf        []requiredIf `yaml:"required_if,omitempty"`
}

type requiredIf struct {
	Key      string   `yaml:"key"`
	Value    any      `yaml:"value"`
	Requires []string `yaml:"requires"`
}

func writeSchema(w io.Writer, name string) error {
	def, info, ok := registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown module %q", name)
	}

	doc := moduleSchema{Module: name, Resource: def.Resource}
	if info {
		doc.Options = module.InfoSpec(def)
	} else {
		doc.Options = module.Spec(def)
		doc.MutuallyExclusive = def.Constraints.MutuallyExclusive
		doc.RequiredTogether = def.Constraints.RequiredTogether
		for _, r := range def.Constraints.RequiredIf {
			doc.RequiredIf = append(doc.RequiredIf, requiredIf{Key: r.Key, Value: r.Value, Requires: r.Requires})
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

// linkModules links every module name in dir to target and returns how many
// links were made.
func linkModules(target, dir string, force bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	n := 0
	for _, name := range registry.Names() {
		path := filepath.Join(dir, name)
		if force {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return n, err
			}
		}
		if err := os.Symlink(target, path); err != nil {
			if errors.Is(err, os.ErrExist) {
				return n, fmt.Errorf("%s exists, use --force to replace it", path)
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// str returns a string argument, or "".
func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}
