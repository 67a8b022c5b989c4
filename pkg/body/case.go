// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package body

import (
	"strings"
	"unicode"
)

// verbatimKeys hold user-defined maps whose keys must not be renamed.
var verbatimKeys = map[string]bool{
	"tags":                   true,
	"nodeLabels":             true,
	"userAssignedIdentities": true,
	"customHeaders":          true,
	"labels":                 true,
}

// Camel converts snake_case to camelCase.
func Camel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// SnakeKey converts a camelCase key to snake_case. Runs of capitals are kept
// together, so "osDiskSizeGB" becomes "os_disk_size_gb".
func SnakeKey(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Snake returns a copy of v with every object key converted to snake_case.
func Snake(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if verbatimKeys[k] {
				out[SnakeKey(k)] = item
				continue
			}
			out[SnakeKey(k)] = Snake(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Snake(item)
		}
		return out
	default:
		return v
	}
}

// SnakeMap is Snake for a resource body.
func SnakeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Snake(m).(map[string]any)
}
