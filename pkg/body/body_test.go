// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package body

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
)

func agentPoolSpec() argspec.Spec {
	return argspec.Spec{
		"resource_group":  {Type: argspec.TypeStr},
		"name":            {Type: argspec.TypeStr},
		"location":        {Type: argspec.TypeStr, Disposition: "/", Comparison: argspec.CompareLocation},
		"count":           {Type: argspec.TypeInt, Disposition: "/properties/*"},
		"os_disk_size_gb": {Type: argspec.TypeInt, Disposition: "/properties/*", JSONName: "osDiskSizeGB"},
		"os_type":         {Type: argspec.TypeStr, Disposition: "/properties/*", NotUpdatable: true},
		"dns_prefix":      {Type: argspec.TypeStr, Disposition: "/properties/*", Comparison: argspec.CompareIgnore},
		"vnet_subnet_id": {
			Type:        argspec.TypeStr,
			Disposition: "/properties/vnetSubnetID",
			Pattern:     "/subscriptions/{subscription_id}/resourceGroups/{resource_group}/providers/Microsoft.Network/virtualNetworks/vnet/subnets/{name}",
		},
		"sku": {
			Type:        argspec.TypeDict,
			Disposition: "/sku",
			Options: argspec.Spec{
				"name": {Type: argspec.TypeStr},
				"tier": {Type: argspec.TypeStr, Comparison: argspec.CompareSensitive},
			},
		},
		"profiles": {
			Type:        argspec.TypeList,
			Elements:    argspec.TypeDict,
			Disposition: "/properties/agentPoolProfiles",
			Key:         "pool_name",
			Options: argspec.Spec{
				"pool_name": {Type: argspec.TypeStr, Disposition: "poolName"},
				"vm_size":   {Type: argspec.TypeStr},
			},
		},
	}
}

func TestInflate(t *testing.T) {
	params := map[string]any{
		"resource_group":  "rg",
		"name":            "pool1",
		"location":        "West US",
		"count":           3,
		"os_disk_size_gb": 128,
		"vnet_subnet_id":  "default",
		"sku":             map[string]any{"name": "Standard"},
		"profiles": []any{
			map[string]any{"pool_name": "a", "vm_size": "Standard_D2"},
		},
	}

	got := Inflate(agentPoolSpec(), params, Scope{SubscriptionID: "sub", ResourceGroup: "rg"})

	want := map[string]any{
		"location": "West US",
		"sku":      map[string]any{"name": "Standard"},
		"properties": map[string]any{
			"count":        3,
			"osDiskSizeGB": 128,
			"vnetSubnetID": "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/default",
			"agentPoolProfiles": []any{
				map[string]any{"poolName": "a", "vmSize": "Standard_D2"},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Inflate() mismatch (-want +got):\n%s", diff)
	}
}

func TestInflate_PatternKeepsFullIDs(t *testing.T) {
	id := "/subscriptions/other/resourceGroups/x/providers/Microsoft.Network/virtualNetworks/v/subnets/s"
	got := Inflate(agentPoolSpec(), map[string]any{"vnet_subnet_id": id}, Scope{SubscriptionID: "sub", ResourceGroup: "rg"})
	assert.Equal(t, id, Lookup(got, "properties", "vnetSubnetID"))
}

func TestComparer(t *testing.T) {
	existing := func() map[string]any {
		return map[string]any{
			"id":       "/subscriptions/sub/resourceGroups/rg/providers/x/pool1",
			"location": "westus",
			"sku":      map[string]any{"name": "standard", "tier": "Free"},
			"properties": map[string]any{
				"count":             float64(3),
				"osDiskSizeGB":      float64(128),
				"osType":            "Linux",
				"dnsPrefix":         "abc",
				"provisioningState": "Succeeded",
				"agentPoolProfiles": []any{
					map[string]any{"poolName": "b", "vmSize": "Standard_D4"},
					map[string]any{"poolName": "a", "vmSize": "Standard_D2"},
				},
			},
		}
	}

	tests := []struct {
		name         string
		desired      map[string]any
		wantEqual    bool
		wantWarnings int
	}{
		{
			name: "no drift with different casing and ordering",
			desired: map[string]any{
				"location": "West US",
				"sku":      map[string]any{"name": "Standard"},
				"properties": map[string]any{
					"count":        3,
					"osDiskSizeGB": 128,
					"agentPoolProfiles": []any{
						map[string]any{"poolName": "A", "vmSize": "standard_d2"},
						map[string]any{"poolName": "b", "vmSize": "Standard_D4"},
					},
				},
			},
			wantEqual: true,
		},
		{
			name:      "scalar drift",
			desired:   map[string]any{"properties": map[string]any{"count": 5}},
			wantEqual: false,
		},
		{
			name:      "sensitive comparison",
			desired:   map[string]any{"sku": map[string]any{"tier": "free"}},
			wantEqual: false,
		},
		{
			name:      "ignored field",
			desired:   map[string]any{"properties": map[string]any{"dnsPrefix": "other"}},
			wantEqual: true,
		},
		{
			name:         "not updatable field warns",
			desired:      map[string]any{"properties": map[string]any{"osType": "Windows"}},
			wantEqual:    true,
			wantWarnings: 1,
		},
		{
			name: "list length differs",
			desired: map[string]any{"properties": map[string]any{"agentPoolProfiles": []any{
				map[string]any{"poolName": "a"},
			}}},
			wantEqual: false,
		},
		{
			name:      "new dict on missing old",
			desired:   map[string]any{"identity": map[string]any{"type": "SystemAssigned"}},
			wantEqual: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComparer(agentPoolSpec())
			assert.Equal(t, tt.wantEqual, c.Equal(tt.desired, existing()))
			assert.Len(t, c.Warnings, tt.wantWarnings)
			if !tt.wantEqual {
				assert.NotEmpty(t, c.Changes)
			}
		})
	}
}

func TestComparer_FillsMissingObjectsFromExisting(t *testing.T) {
	desired := Inflate(agentPoolSpec(), map[string]any{"count": 3, "location": "westus"}, Scope{})
	existing := map[string]any{
		"location": "westus",
		"sku":      map[string]any{"name": "Basic"},
		"tags":     map[string]any{"env": "prod"},
		"properties": map[string]any{
			"count":          float64(3),
			"networkProfile": map[string]any{"networkPlugin": "azure"},
			"osType":         "Linux",
		},
	}

	c := NewComparer(agentPoolSpec())
	require.True(t, c.Equal(desired, existing))
	assert.Equal(t, map[string]any{"name": "Basic"}, desired["sku"])
	assert.Equal(t, map[string]any{"env": "prod"}, desired["tags"])

	props := desired["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"networkPlugin": "azure"}, props["networkProfile"])
	assert.NotContains(t, props, "osType")
}

func TestModifiers(t *testing.T) {
	mods := Modifiers(agentPoolSpec())

	assert.Equal(t, argspec.CompareLocation, mods["/location"].Comparison)
	assert.False(t, mods["/properties/osType"].Updatable)
	assert.True(t, mods["/properties/count"].Updatable)
	assert.Equal(t, "pool_name", mods["/properties/agentPoolProfiles"].Key)
	assert.Contains(t, mods, "/properties/agentPoolProfiles/*/vmSize")
	assert.Equal(t, argspec.CompareSensitive, mods["/sku/tier"].Comparison)
}

func TestSnake(t *testing.T) {
	in := map[string]any{
		"id":   "x",
		"tags": map[string]any{"costCenter": "a"},
		"properties": map[string]any{
			"osDiskSizeGB":      float64(30),
			"provisioningState": "Succeeded",
			"nodeLabels":        map[string]any{"appTier": "web"},
			"ipConfigurations": []any{
				map[string]any{"privateIPAddress": "10.0.0.4"},
			},
		},
	}

	want := map[string]any{
		"id":   "x",
		"tags": map[string]any{"costCenter": "a"},
		"properties": map[string]any{
			"os_disk_size_gb":    float64(30),
			"provisioning_state": "Succeeded",
			"node_labels":        map[string]any{"appTier": "web"},
			"ip_configurations": []any{
				map[string]any{"private_ip_address": "10.0.0.4"},
			},
		},
	}
	if diff := cmp.Diff(want, SnakeMap(in)); diff != "" {
		t.Errorf("SnakeMap() mismatch (-want +got):\n%s", diff)
	}
}

func TestCamel(t *testing.T) {
	assert.Equal(t, "groupShortName", Camel("group_short_name"))
	assert.Equal(t, "name", Camel("name"))
	assert.Equal(t, "location", NormalizeLocation("Location"))
	assert.Equal(t, "eastus2", NormalizeLocation("East US 2"))
}
