// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package ansible

import (
	"encoding/json"
	"fmt"
	"io"
)

// Diff is the before/after pair reported in diff mode.
type Diff struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}

// ModuleInvocation echoes the (masked) arguments a module ran with.
type ModuleInvocation struct {
	ModuleArgs map[string]any `json:"module_args"`
}

// Result is the JSON object a module prints on completion.
type Result struct {
	Changed    bool              `json:"changed"`
	Failed     bool              `json:"failed,omitempty"`
	Msg        string            `json:"msg,omitempty"`
	ID         string            `json:"id,omitempty"`
	State      map[string]any    `json:"state,omitempty"`
	Compare    []string          `json:"compare,omitempty"`
	Diff       *Diff             `json:"diff,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	ErrorCode  string            `json:"error_code,omitempty"`
	Invocation *ModuleInvocation `json:"invocation,omitempty"`

	// Facts are extra top-level keys, such as the item list of an info module.
	Facts map[string]any `json:"-"`
}

// Fail marks the result failed with a formatted message.
func (r *Result) Fail(format string, args ...any) *Result {
	r.Failed = true
	r.Msg = fmt.Sprintf(format, args...)
	return r
}

// Warn appends a warning.
func (r *Result) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// MarshalJSON flattens Facts into the top-level object.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	data, err := json.Marshal(plain(r))
	if err != nil || len(r.Facts) == 0 {
		return data, err
	}

	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Facts {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Write prints the result as the module output.
func (r *Result) Write(w io.Writer) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode module result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ExitCode is the process status Ansible expects for the result.
func (r *Result) ExitCode() int {
	if r.Failed {
		return 1
	}
	return 0
}
