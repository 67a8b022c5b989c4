// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build integration

package resources

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/ansible"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/module"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const testLocation = "eastus"

func getTestSubscriptionID(t *testing.T) string {
	subID := os.Getenv("AZURE_SUBSCRIPTION_ID")
	if subID == "" {
		t.Skip("AZURE_SUBSCRIPTION_ID environment variable not set")
	}
	return subID
}

// execute runs a module against the live subscription.
func execute(t *testing.T, name string, args map[string]any) *ansible.Result {
	t.Helper()
	def, info, ok := registry.Lookup(name)
	require.True(t, ok, "unknown module %s", name)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()
	ctx = logger.WithLogger(ctx, zaptest.NewLogger(t))

	withSub := map[string]any{"subscription_id": getTestSubscriptionID(t)}
	for k, v := range args {
		withSub[k] = v
	}
	result := module.Execute(ctx, def, info, withSub, ansible.Invocation{}, module.Connect)
	require.False(t, result.Failed, "%s failed: %s", name, result.Msg)
	return result
}

// testResourceGroup creates a resource group removed with everything in it
// when the test ends.
func testResourceGroup(t *testing.T, prefix string) string {
	name := fmt.Sprintf("azure-rm-%s-%d", prefix, time.Now().Unix())
	execute(t, ModuleResourceGroup, map[string]any{
		"name":     name,
		"location": testLocation,
		"tags":     map[string]any{"purpose": "integration-test"},
	})
	t.Cleanup(func() {
		execute(t, ModuleResourceGroup, map[string]any{
			"name":                  name,
			"state":                 "absent",
			"force_delete_nonempty": true,
		})
	})
	return name
}

func TestResourceGroup_Lifecycle(t *testing.T) {
	getTestSubscriptionID(t)
	name := fmt.Sprintf("azure-rm-rg-%d", time.Now().Unix())
	args := map[string]any{"name": name, "location": testLocation}

	created := execute(t, ModuleResourceGroup, args)
	assert.True(t, created.Changed)
	assert.NotEmpty(t, created.ID)

	again := execute(t, ModuleResourceGroup, args)
	assert.False(t, again.Changed)

	tagged := execute(t, ModuleResourceGroup, map[string]any{
		"name":     name,
		"location": testLocation,
		"tags":     map[string]any{"env": "test"},
	})
	assert.True(t, tagged.Changed)

	info := execute(t, ModuleResourceGroup+registry.InfoSuffix, map[string]any{"name": name})
	items, ok := info.Facts["resourcegroups"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]any{"env": "test"}, items[0].(map[string]any)["tags"])

	deleted := execute(t, ModuleResourceGroup, map[string]any{"name": name, "state": "absent"})
	assert.True(t, deleted.Changed)

	gone := execute(t, ModuleResourceGroup, map[string]any{"name": name, "state": "absent"})
	assert.False(t, gone.Changed)
}

func TestVirtualNetwork_KeepsSubnets(t *testing.T) {
	getTestSubscriptionID(t)
	rg := testResourceGroup(t, "vnet")

	vnet := map[string]any{
		"resource_group":        rg,
		"name":                  "vnet1",
		"address_prefixes_cidr": []any{"10.10.0.0/16"},
	}
	assert.True(t, execute(t, ModuleVirtualNetwork, vnet).Changed)

	nsg := execute(t, ModuleSecurityGroup, map[string]any{
		"resource_group": rg,
		"name":           "nsg1",
		"rules": []any{
			map[string]any{"name": "ssh", "protocol": "Tcp", "destination_port_range": "22", "priority": 100},
		},
	})
	assert.True(t, nsg.Changed)

	subnet := map[string]any{
		"resource_group":       rg,
		"virtual_network_name": "vnet1",
		"name":                 "default",
		"address_prefix_cidr":  "10.10.1.0/24",
		"security_group":       "nsg1",
	}
	assert.True(t, execute(t, ModuleSubnet, subnet).Changed)
	assert.False(t, execute(t, ModuleSubnet, subnet).Changed)

	vnet["dns_servers"] = []any{"10.10.0.4"}
	assert.True(t, execute(t, ModuleVirtualNetwork, vnet).Changed)

	info := execute(t, ModuleSubnet+registry.InfoSuffix, map[string]any{
		"resource_group":       rg,
		"virtual_network_name": "vnet1",
	})
	assert.Len(t, info.Facts["subnets"], 1)
}

func TestUserAssignedIdentity_CheckMode(t *testing.T) {
	getTestSubscriptionID(t)
	rg := testResourceGroup(t, "msi")

	def, _, _ := registry.Lookup(ModuleUserAssignedIdentity)
	args := map[string]any{
		"subscription_id": getTestSubscriptionID(t),
		"resource_group":  rg,
		"name":            "id1",
	}
	checked := module.Execute(context.Background(), def, false, args, ansible.Invocation{CheckMode: true}, module.Connect)
	require.False(t, checked.Failed, checked.Msg)
	assert.True(t, checked.Changed)

	info := execute(t, ModuleUserAssignedIdentity+registry.InfoSuffix, map[string]any{"resource_group": rg, "name": "id1"})
	assert.Empty(t, info.Facts["user_assigned_identities"])

	created := execute(t, ModuleUserAssignedIdentity, map[string]any{"resource_group": rg, "name": "id1"})
	assert.True(t, created.Changed)
	assert.NotEmpty(t, created.State["properties"].(map[string]any)["principal_id"])
}
