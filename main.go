// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"

	// Import resources to trigger init() registration
	_ "github.com/platform-engineering-labs/azure-rm-modules/pkg/resources"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches on the program name first: a binary installed or linked as
// azure_rm_<x> runs that module with the arguments file Ansible passes.
// Any other name runs the command line interface.
func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	name := strings.TrimSuffix(filepath.Base(argv[0]), filepath.Ext(argv[0]))
	if registry.HasModule(name) {
		argsPath := ""
		if len(argv) > 1 {
			argsPath = argv[1]
		}
		return runModule(name, argsPath, stdin, stdout, stderr)
	}

	cli := newCLI(stdin, stdout, stderr)
	cli.root.SetArgs(argv[1:])
	if err := cli.root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	return cli.exitCode
}
