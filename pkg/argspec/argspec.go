// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package argspec

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/juju/schema"
)

// Type is an Ansible argument type.
type Type string

const (
	TypeStr   Type = "str"
	TypeBool  Type = "bool"
	TypeInt   Type = "int"
	TypeFloat Type = "float"
	TypeList  Type = "list"
	TypeDict  Type = "dict"
	TypeRaw   Type = "raw"
	TypePath  Type = "path"
)

// Comparison selects how a scalar is compared against the live resource.
type Comparison string

const (
	CompareDefault   Comparison = ""
	CompareSensitive Comparison = "sensitive"
	CompareLocation  Comparison = "location"
	CompareIgnore    Comparison = "ignore"
)

// NoLogValue replaces the value of no_log options wherever arguments are echoed back.
const NoLogValue = "VALUE_SPECIFIED_IN_NO_LOG_PARAMETER"

// Option describes a single module argument.
//
// Disposition is the path of the value inside the request body. At the top
// level only options whose disposition starts with "/" are sent to Azure; the
// rest are module-level arguments such as resource_group or state. A "*"
// segment stands for the option's JSON name, which is the camelCase form of
// the option name unless JSONName is set.
type Option struct {
	Type         Type       `yaml:"type"`
	Required     bool       `yaml:"required,omitempty"`
	Default      any        `yaml:"default,omitempty"`
	Choices      []string   `yaml:"choices,omitempty"`
	Elements     Type       `yaml:"elements,omitempty"`
	Options      Spec       `yaml:"options,omitempty"`
	Aliases      []string   `yaml:"aliases,omitempty"`
	NoLog        bool       `yaml:"no_log,omitempty"`
	Disposition  string     `yaml:"disposition,omitempty"`
	JSONName     string     `yaml:"json_name,omitempty"`
	Pattern      string     `yaml:"pattern,omitempty"`
	Comparison   Comparison `yaml:"comparison,omitempty"`
	NotUpdatable bool       `yaml:"not_updatable,omitempty"`

	// Key names the body field that identifies list elements when comparing.
	Key string `yaml:"key,omitempty"`
}

// Spec maps option names to their definitions.
type Spec map[string]*Option

// RequiredIf requires Requires when the option Key equals Value.
type RequiredIf struct {
	Key      string
	Value    any
	Requires []string
}

// Constraints are the cross-option rules of a module.
type Constraints struct {
	MutuallyExclusive [][]string
	RequiredTogether  [][]string
	RequiredIf        []RequiredIf
}

// Merge returns a new Spec holding the options of every given spec. Later
// specs win on name clashes.
func Merge(specs ...Spec) Spec {
	out := make(Spec)
	for _, s := range specs {
		for name, opt := range s {
			out[name] = opt
		}
	}
	return out
}

// Names returns the option names in sorted order.
func (s Spec) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks and coerces raw module arguments against the spec, fills
// in defaults and enforces the constraints. Arguments set to null are
// treated as not given.
func Validate(module string, spec Spec, constraints Constraints, args map[string]any) (map[string]any, error) {
	out, err := spec.coerce(args, nil)
	if err != nil {
		var unsupported *UnsupportedError
		if errors.As(err, &unsupported) && len(unsupported.Path) == 0 {
			return nil, fmt.Errorf("Unsupported parameters for (%s) module: %s. Supported parameters include: %s",
				module, strings.Join(unsupported.Keys, ", "), strings.Join(spec.Names(), ", "))
		}
		return nil, err
	}
	if err := constraints.check(out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnsupportedError reports arguments that are not part of the spec.
type UnsupportedError struct {
	Path []string
	Keys []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%sunsupported parameters: %s", pathPrefix(e.Path), strings.Join(e.Keys, ", "))
}

func (s Spec) coerce(args map[string]any, path []string) (map[string]any, error) {
	in := make(map[string]any, len(args))
	for k, v := range args {
		in[k] = v
	}

	for name, opt := range s {
		for _, alias := range opt.Aliases {
			if v, ok := in[alias]; ok {
				if _, set := in[name]; !set {
					in[name] = v
				}
				delete(in, alias)
			}
		}
	}

	var unknown []string
	for k, v := range in {
		if _, ok := s[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		if v == nil {
			delete(in, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnsupportedError{Path: path, Keys: unknown}
	}

	var missing []string
	for _, name := range s.Names() {
		if _, ok := in[name]; !ok && s[name].Required {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%smissing required arguments: %s", pathPrefix(path), strings.Join(missing, ", "))
	}

	fields := make(schema.Fields, len(s))
	defaults := make(schema.Defaults, len(s))
	for name, opt := range s {
		fields[name] = opt.checker()
		if opt.Default != nil {
			defaults[name] = opt.Default
		} else {
			defaults[name] = schema.Omit
		}
	}

	coerced, err := schema.StrictFieldMap(fields, defaults).Coerce(in, path)
	if err != nil {
		return nil, err
	}
	out := coerced.(map[string]any)

	for _, name := range s.Names() {
		if err := s[name].checkChoices(name, out[name], path); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (o *Option) checkChoices(name string, value any, path []string) error {
	if len(o.Choices) == 0 || value == nil {
		return nil
	}
	values := []any{value}
	if list, ok := value.([]any); ok {
		values = list
	}
	for _, v := range values {
		found := false
		for _, c := range o.Choices {
			if fmt.Sprint(v) == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%svalue of %s must be one of: %s, got: %v",
				pathPrefix(path), name, strings.Join(o.Choices, ", "), v)
		}
	}
	return nil
}

func (c Constraints) check(params map[string]any) error {
	isSet := func(k string) bool {
		_, ok := params[k]
		return ok
	}

	for _, group := range c.MutuallyExclusive {
		var set []string
		for _, k := range group {
			if isSet(k) {
				set = append(set, k)
			}
		}
		if len(set) > 1 {
			return fmt.Errorf("parameters are mutually exclusive: %s", strings.Join(group, "|"))
		}
	}

	for _, group := range c.RequiredTogether {
		var set int
		for _, k := range group {
			if isSet(k) {
				set++
			}
		}
		if set > 0 && set < len(group) {
			return fmt.Errorf("parameters are required together: %s", strings.Join(group, ", "))
		}
	}

	for _, rule := range c.RequiredIf {
		if !isSet(rule.Key) || fmt.Sprint(params[rule.Key]) != fmt.Sprint(rule.Value) {
			continue
		}
		var missing []string
		for _, k := range rule.Requires {
			if !isSet(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s is %v but all of the following are missing: %s",
				rule.Key, rule.Value, strings.Join(missing, ", "))
		}
	}
	return nil
}

// Mask returns a copy of params where every no_log value, at any depth, is
// replaced by NoLogValue.
func Mask(spec Spec, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		opt, ok := spec[k]
		switch {
		case !ok:
			out[k] = v
		case opt.NoLog && v != nil:
			out[k] = NoLogValue
		case len(opt.Options) > 0:
			out[k] = maskValue(opt.Options, v)
		default:
			out[k] = v
		}
	}
	return out
}

func maskValue(spec Spec, v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Mask(spec, t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = maskValue(spec, item)
		}
		return items
	default:
		return v
	}
}

func pathPrefix(path []string) string {
	s := strings.TrimPrefix(strings.Join(path, ""), ".")
	if s == "" {
		return ""
	}
	return s + ": "
}
