// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package body

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
)

// Modifier changes how the value at a body path is compared.
type Modifier struct {
	Comparison argspec.Comparison
	Updatable  bool
	Key        string
}

// Modifiers indexes the comparison settings of spec by body path, for
// example "/properties/agentPoolProfiles/*/count".
func Modifiers(spec argspec.Spec) map[string]Modifier {
	mods := make(map[string]Modifier)
	for name, opt := range spec {
		if !strings.HasPrefix(opt.Disposition, "/") {
			continue
		}
		collectModifiers(mods, "/"+strings.Join(Path(name, opt), "/"), opt)
	}
	return mods
}

func collectModifiers(mods map[string]Modifier, path string, opt *argspec.Option) {
	mods[path] = Modifier{
		Comparison: opt.Comparison,
		Updatable:  !opt.NotUpdatable,
		Key:        opt.Key,
	}
	if len(opt.Options) == 0 {
		return
	}
	if opt.Type == argspec.TypeList {
		path += "/*"
	}
	for name, sub := range opt.Options {
		collectModifiers(mods, path+"/"+strings.Join(Path(name, sub), "/"), sub)
	}
}

// Comparer walks a desired body against the live resource.
type Comparer struct {
	Modifiers map[string]Modifier
	// Changes lists every difference found, whether or not it counts as drift.
	Changes []string
	// Warnings lists differences on paths that cannot be updated.
	Warnings []string
}

// NewComparer returns a Comparer for spec.
func NewComparer(spec argspec.Spec) *Comparer {
	return &Comparer{Modifiers: Modifiers(spec)}
}

// Equal reports whether desired matches existing. Objects missing from
// desired are filled in from existing so that a following PUT keeps them.
func (c *Comparer) Equal(desired, existing map[string]any) bool {
	return c.compare(desired, existing, "")
}

func (c *Comparer) compare(desired, existing any, path string) bool {
	switch d := desired.(type) {
	case nil:
		return true
	case map[string]any:
		old, ok := existing.(map[string]any)
		if !ok {
			c.Changes = append(c.Changes, fmt.Sprintf("changed [%s] old dict is null", path))
			return false
		}
		equal := true
		for _, k := range unionKeys(d, old) {
			if d[k] == nil {
				if oldItem, ok := old[k].(map[string]any); ok {
					d[k] = oldItem
					c.Changes = append(c.Changes, fmt.Sprintf("new item was empty, using old [%s][ %s ]", path, k))
				}
				continue
			}
			if !c.compare(d[k], old[k], path+"/"+k) {
				equal = false
			}
		}
		return equal
	case []any:
		old, ok := existing.([]any)
		if !ok || len(d) != len(old) {
			c.Changes = append(c.Changes, fmt.Sprintf("changed [%s] length is different or old value is null", path))
			return false
		}
		key := c.Modifiers[path].Key
		if key == "" {
			key = "name"
		}
		newSorted := sortedList(d, key)
		oldSorted := sortedList(old, key)
		equal := true
		for i := range newSorted {
			if !c.compare(newSorted[i], oldSorted[i], path+"/*") {
				equal = false
			}
		}
		return equal
	default:
		return c.compareScalar(desired, existing, path)
	}
}

func (c *Comparer) compareScalar(desired, existing any, path string) bool {
	mod, ok := c.Modifiers[path]
	if !ok {
		mod = Modifier{Updatable: true}
	}

	newValue, oldValue := scalarString(desired), scalarString(existing)
	switch mod.Comparison {
	case argspec.CompareIgnore:
		return true
	case argspec.CompareLocation:
		newValue = NormalizeLocation(newValue)
		oldValue = NormalizeLocation(oldValue)
	case argspec.CompareSensitive:
	default:
		newValue = strings.ToLower(newValue)
		oldValue = strings.ToLower(oldValue)
	}

	if newValue == oldValue {
		return true
	}

	c.Changes = append(c.Changes, fmt.Sprintf("changed [%s] %s != %s", path, scalarString(desired), scalarString(existing)))
	if mod.Updatable {
		return false
	}
	c.Warnings = append(c.Warnings, fmt.Sprintf("property '%s' cannot be updated (%s->%s)",
		path, scalarString(existing), scalarString(desired)))
	return true
}

// NormalizeLocation folds Azure region spellings, so "West US" equals "westus".
func NormalizeLocation(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

func sortedList(items []any, key string) []any {
	out := make([]any, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i], key) < sortKey(out[j], key)
	})
	return out
}

func sortKey(v any, key string) string {
	if m, ok := v.(map[string]any); ok {
		return strings.ToLower(scalarString(m[Camel(key)]))
	}
	return strings.ToLower(scalarString(v))
}

// unionKeys returns the keys of both maps in sorted order.
func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []map[string]any{a, b} {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
