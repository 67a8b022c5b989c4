// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package body turns validated module arguments into Azure request bodies,
// compares them with live resources and shapes SDK responses for output.
package body

import (
	"strings"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
)

// Scope carries the values that resource ID patterns can reference.
type Scope struct {
	SubscriptionID string
	ResourceGroup  string
}

// Inflate builds the request body from params. Only top-level options with
// a disposition starting with "/" are placed in the body.
func Inflate(spec argspec.Spec, params map[string]any, scope Scope) map[string]any {
	out := make(map[string]any)
	for _, name := range spec.Names() {
		opt := spec[name]
		value, ok := params[name]
		if !ok || value == nil || !strings.HasPrefix(opt.Disposition, "/") {
			continue
		}
		setPath(out, Path(name, opt), convert(opt, value, scope))
	}
	return out
}

// Path resolves the body path of an option from its disposition.
func Path(name string, opt *argspec.Option) []string {
	jsonName := opt.JSONName
	if jsonName == "" {
		jsonName = Camel(name)
	}

	disposition := strings.Trim(opt.Disposition, "/")
	if disposition == "" {
		return []string{jsonName}
	}

	segments := strings.Split(disposition, "/")
	for i, s := range segments {
		if s == "*" {
			segments[i] = jsonName
		}
	}
	return segments
}

func convert(opt *argspec.Option, value any, scope Scope) any {
	switch v := value.(type) {
	case map[string]any:
		if len(opt.Options) == 0 {
			return v
		}
		return inflateNested(opt.Options, v, scope)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = convert(opt, item, scope)
		}
		return items
	case string:
		if opt.Pattern != "" && !strings.HasPrefix(v, "/") {
			return expandPattern(opt.Pattern, v, scope)
		}
		return v
	default:
		return v
	}
}

func inflateNested(spec argspec.Spec, params map[string]any, scope Scope) map[string]any {
	out := make(map[string]any)
	for _, name := range spec.Names() {
		value, ok := params[name]
		if !ok || value == nil {
			continue
		}
		opt := spec[name]
		setPath(out, Path(name, opt), convert(opt, value, scope))
	}
	return out
}

func expandPattern(pattern, name string, scope Scope) string {
	return strings.NewReplacer(
		"{subscription_id}", scope.SubscriptionID,
		"{resource_group}", scope.ResourceGroup,
		"{name}", name,
	).Replace(pattern)
}

func setPath(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// Lookup returns the value at path, or nil.
func Lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		next, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = next[key]
	}
	return cur
}

// Set places value at path, creating intermediate objects.
func Set(m map[string]any, value any, path ...string) {
	setPath(m, path, value)
}
