// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package argspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() Spec {
	return Spec{
		"name":           {Type: TypeStr, Required: true},
		"resource_group": {Type: TypeStr, Required: true, Aliases: []string{"resource_group_name"}},
		"count":          {Type: TypeInt, Default: 1},
		"enabled":        {Type: TypeBool},
		"ratio":          {Type: TypeFloat},
		"zones":          {Type: TypeList, Elements: TypeStr},
		"secret":         {Type: TypeStr, NoLog: true},
		"state":          {Type: TypeStr, Default: "present", Choices: []string{"present", "absent"}},
		"sku": {
			Type: TypeDict,
			Options: Spec{
				"name": {Type: TypeStr, Required: true, Choices: []string{"Basic", "Standard"}},
				"tier": {Type: TypeStr},
			},
		},
		"receivers": {
			Type:     TypeList,
			Elements: TypeDict,
			Options: Spec{
				"name":     {Type: TypeStr, Required: true},
				"password": {Type: TypeStr, NoLog: true},
			},
		},
	}
}

func TestValidate_FillsDefaultsAndCoerces(t *testing.T) {
	out, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"enabled":        "yes",
		"ratio":          float64(2),
		"zones":          "1, 2,3",
		"sku":            map[string]any{"name": "Basic", "tier": nil},
	})
	require.NoError(t, err)

	assert.Equal(t, "foo", out["name"])
	assert.Equal(t, 1, out["count"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, 2.0, out["ratio"])
	assert.Equal(t, []any{"1", "2", "3"}, out["zones"])
	assert.Equal(t, "present", out["state"])
	assert.Equal(t, map[string]any{"name": "Basic"}, out["sku"])
	assert.NotContains(t, out, "secret")
}

func TestValidate_NullMeansNotGiven(t *testing.T) {
	out, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"enabled":        nil,
		"state":          nil,
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "enabled")
	assert.Equal(t, "present", out["state"])
}

func TestValidate_Aliases(t *testing.T) {
	out, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":                "foo",
		"resource_group_name": "rg",
	})
	require.NoError(t, err)
	assert.Equal(t, "rg", out["resource_group"])
	assert.NotContains(t, out, "resource_group_name")
}

func TestValidate_MissingRequired(t *testing.T) {
	_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{"enabled": true})
	require.Error(t, err)
	assert.Equal(t, "missing required arguments: name, resource_group", err.Error())
}

func TestValidate_UnsupportedParameters(t *testing.T) {
	_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"bogus":          1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported parameters for (azure_rm_test) module: bogus")
}

func TestValidate_Choices(t *testing.T) {
	_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"state":          "gone",
	})
	require.Error(t, err)
	assert.Equal(t, "value of state must be one of: present, absent, got: gone", err.Error())
}

func TestValidate_NestedOptions(t *testing.T) {
	_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"sku":            map[string]any{"tier": "Basic"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required arguments: name")

	_, err = Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"sku":            map[string]any{"name": "Premium"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value of name must be one of: Basic, Standard, got: Premium")

	_, err = Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"receivers":      []any{map[string]any{"name": "a", "extra": true}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported parameters: extra")
}

func TestValidate_BadBool(t *testing.T) {
	_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
		"name":           "foo",
		"resource_group": "rg",
		"enabled":        "maybe",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected bool")
}

func TestValidate_Int(t *testing.T) {
	for _, v := range []any{float64(4), "4", "4.0"} {
		out, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
			"name":           "foo",
			"resource_group": "rg",
			"count":          v,
		})
		require.NoError(t, err, "%#v", v)
		assert.Equal(t, 4, out["count"])
	}

	for _, v := range []any{1.5, "1.5", "many"} {
		_, err := Validate("azure_rm_test", testSpec(), Constraints{}, map[string]any{
			"name":           "foo",
			"resource_group": "rg",
			"count":          v,
		})
		assert.Error(t, err, "%#v", v)
	}
}

func TestValidate_Constraints(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{"name": "foo", "resource_group": "rg"}
	}

	tests := []struct {
		name        string
		constraints Constraints
		args        map[string]any
		wantErr     string
	}{
		{
			name:        "mutually exclusive",
			constraints: Constraints{MutuallyExclusive: [][]string{{"enabled", "ratio"}}},
			args:        map[string]any{"enabled": true, "ratio": 1.5},
			wantErr:     "parameters are mutually exclusive: enabled|ratio",
		},
		{
			name:        "required together",
			constraints: Constraints{RequiredTogether: [][]string{{"enabled", "ratio"}}},
			args:        map[string]any{"enabled": true},
			wantErr:     "parameters are required together: enabled, ratio",
		},
		{
			name:        "required if",
			constraints: Constraints{RequiredIf: []RequiredIf{{Key: "state", Value: "present", Requires: []string{"sku"}}}},
			args:        map[string]any{},
			wantErr:     "state is present but all of the following are missing: sku",
		},
		{
			name:        "required if not triggered",
			constraints: Constraints{RequiredIf: []RequiredIf{{Key: "state", Value: "absent", Requires: []string{"sku"}}}},
			args:        map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := base()
			for k, v := range tt.args {
				args[k] = v
			}
			_, err := Validate("azure_rm_test", testSpec(), tt.constraints, args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestMask(t *testing.T) {
	masked := Mask(testSpec(), map[string]any{
		"name":   "foo",
		"secret": "hunter2",
		"receivers": []any{
			map[string]any{"name": "a", "password": "p"},
		},
	})

	assert.Equal(t, "foo", masked["name"])
	assert.Equal(t, NoLogValue, masked["secret"])
	assert.Equal(t, []any{map[string]any{"name": "a", "password": NoLogValue}}, masked["receivers"])
}

func TestMerge(t *testing.T) {
	merged := Merge(AuthOptions(), ResourceOptions(), Spec{"state": {Type: TypeStr}})
	assert.Contains(t, merged, "subscription_id")
	assert.Contains(t, merged, "append_tags")
	assert.Empty(t, merged["state"].Choices)
}
