// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/ansible"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/module"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

// connect opens the Azure session of a run. Tests replace it.
var connect module.Connector = module.Connect

// runModule runs one module and prints its result. Arguments come from
// argsPath, or from stdin when argsPath is empty or "-".
func runModule(name, argsPath string, stdin io.Reader, stdout, stderr io.Writer) int {
	def, info, ok := registry.Lookup(name)
	if !ok {
		return fail(stdout, stderr, "unknown module %s", name)
	}

	var (
		args map[string]any
		inv  ansible.Invocation
		err  error
	)
	if argsPath == "" || argsPath == "-" {
		args, inv, err = ansible.ReadArgs(stdin)
	} else {
		args, inv, err = ansible.ReadArgsFile(argsPath)
	}
	if err != nil {
		return fail(stdout, stderr, "%s", err)
	}

	level := str(args, "log_level")
	if level == "" && inv.Debug {
		level = "debug"
	}
	logPath := str(args, "log_path")
	if inv.NoLog {
		logPath = ""
	}
	log, flush, err := logger.New(name, logger.Options{
		Level:     level,
		Verbosity: inv.Verbosity,
		Path:      logPath,
		Stderr:    stderr,
	})
	if err != nil {
		return fail(stdout, stderr, "failed to open log file: %s", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	result := module.Execute(ctx, def, info, args, inv, connect)
	if err := result.Write(stdout); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return result.ExitCode()
}

func fail(stdout, stderr io.Writer, format string, args ...any) int {
	result := (&ansible.Result{}).Fail(format, args...)
	if err := result.Write(stdout); err != nil {
		fmt.Fprintln(stderr, err)
	}
	return result.ExitCode()
}
