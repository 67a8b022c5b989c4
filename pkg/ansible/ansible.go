// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package ansible implements the binary module protocol: arguments arrive as
// a JSON file and the result is a single JSON object on stdout.
package ansible

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const argsWrapperKey = "ANSIBLE_MODULE_ARGS"

// Invocation holds the controller flags passed alongside module arguments.
type Invocation struct {
	CheckMode bool
	Diff      bool
	Verbosity int
	NoLog     bool
	Debug     bool
}

// ReadArgsFile loads module arguments from the file Ansible passes as the
// first argument of a binary module.
func ReadArgsFile(path string) (map[string]any, Invocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Invocation{}, fmt.Errorf("failed to read module arguments: %w", err)
	}
	return ParseArgs(data)
}

// ReadArgs loads module arguments from r.
func ReadArgs(r io.Reader) (map[string]any, Invocation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Invocation{}, fmt.Errorf("failed to read module arguments: %w", err)
	}
	return ParseArgs(data)
}

// ParseArgs decodes module arguments, unwrapping ANSIBLE_MODULE_ARGS when
// present. Internal _ansible_ keys are removed from the returned arguments.
func ParseArgs(data []byte) (map[string]any, Invocation, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Invocation{}, fmt.Errorf("module arguments are not valid JSON: %w", err)
	}
	if wrapped, ok := raw[argsWrapperKey].(map[string]any); ok {
		raw = wrapped
	}

	var inv Invocation
	args := make(map[string]any, len(raw))
	for k, v := range raw {
		if !strings.HasPrefix(k, "_ansible_") {
			args[k] = v
			continue
		}
		switch k {
		case "_ansible_check_mode":
			inv.CheckMode = truthy(v)
		case "_ansible_diff":
			inv.Diff = truthy(v)
		case "_ansible_no_log":
			inv.NoLog = truthy(v)
		case "_ansible_debug":
			inv.Debug = truthy(v)
		case "_ansible_verbosity":
			if f, ok := v.(float64); ok {
				inv.Verbosity = int(f)
			}
		}
	}
	return args, inv, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(t) {
		case "1", "true", "yes", "on":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}
