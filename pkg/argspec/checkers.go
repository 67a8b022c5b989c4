// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package argspec

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/schema"
)

func (o *Option) checker() schema.Checker {
	switch o.Type {
	case TypeBool:
		return boolC{}
	case TypeInt:
		return intC{}
	case TypeFloat:
		return floatC{}
	case TypeList:
		return listC{elem: elementChecker(o.Elements, o.Options)}
	case TypeDict:
		if len(o.Options) > 0 {
			return optionsC{spec: o.Options}
		}
		return mapC{}
	case TypeRaw:
		return schema.Any()
	case TypePath:
		return pathC{}
	default:
		return stringC{}
	}
}

func elementChecker(t Type, options Spec) schema.Checker {
	if t == TypeDict && len(options) > 0 {
		return optionsC{spec: options}
	}
	if t == "" {
		return schema.Any()
	}
	return (&Option{Type: t}).checker()
}

// stringC accepts strings and converts scalars the way Ansible does.
type stringC struct{}

func (stringC) Coerce(v any, path []string) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int, int64:
		return fmt.Sprint(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return schema.String().Coerce(v, path)
}

type pathC struct{}

func (pathC) Coerce(v any, path []string) (any, error) {
	s, err := schema.String().Coerce(v, path)
	if err != nil {
		return nil, err
	}
	p := os.ExpandEnv(s.(string))
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p, nil
}

// boolC accepts the boolean spellings Ansible accepts.
type boolC struct{}

var (
	trueValues  = map[string]bool{"y": true, "yes": true, "on": true, "1": true, "true": true, "t": true}
	falseValues = map[string]bool{"n": true, "no": true, "off": true, "0": true, "false": true, "f": true}
)

func (boolC) Coerce(v any, path []string) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if trueValues[s] {
			return true, nil
		}
		if falseValues[s] {
			return false, nil
		}
	case float64:
		if t == 1 {
			return true, nil
		}
		if t == 0 {
			return false, nil
		}
	case int:
		if t == 1 {
			return true, nil
		}
		if t == 0 {
			return false, nil
		}
	}
	return nil, fmt.Errorf("%sexpected bool, got %T(%#v)", pathPrefix(path), v, v)
}

// floatC accepts JSON numbers and numeric strings.
type floatC struct{}

func (floatC) Coerce(v any, path []string) (any, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil {
			return f, nil
		}
	}
	return schema.Float().Coerce(v, path)
}

// intC accepts integers, and floats or numeric strings with no fractional part.
type intC struct{}

func (intC) Coerce(v any, path []string) (any, error) {
	f, ok := v.(float64)
	if s, isString := v.(string); isString {
		if _, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64); err != nil {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			f, ok = parsed, err == nil
		}
	}
	if ok && f != math.Trunc(f) {
		return nil, fmt.Errorf("%sexpected int, got %T(%#v)", pathPrefix(path), v, v)
	}
	return schema.ForceInt().Coerce(v, path)
}

// listC accepts lists, and splits comma separated strings into lists.
type listC struct {
	elem schema.Checker
}

func (c listC) Coerce(v any, path []string) (any, error) {
	if s, ok := v.(string); ok {
		parts := strings.Split(s, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		v = items
	}
	return schema.List(c.elem).Coerce(v, path)
}

// mapC accepts free-form dicts.
type mapC struct{}

func (mapC) Coerce(v any, path []string) (any, error) {
	return schema.StringMap(schema.Any()).Coerce(v, path)
}

// optionsC validates a dict against nested suboptions.
type optionsC struct {
	spec Spec
}

func (c optionsC) Coerce(v any, path []string) (any, error) {
	m, err := schema.StringMap(schema.Any()).Coerce(v, path)
	if err != nil {
		return nil, err
	}
	return c.spec.coerce(m.(map[string]any), append([]string(nil), path...))
}
