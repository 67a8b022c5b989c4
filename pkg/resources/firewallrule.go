// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers/v4"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleFirewallRule = "azure_rm_postgresqlflexiblefirewallrule"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleFirewallRule,
		Resource: "PostgreSQL Flexible Firewall Rule",
		InfoKey:  "firewall_rules",
		Parent:   "server_name",
		Spec: argspec.Spec{
			"resource_group":   resourceGroupOption(),
			"server_name":      {Type: argspec.TypeStr, Required: true},
			"name":             nameOption(),
			"start_ip_address": {Type: argspec.TypeStr, Disposition: "/properties/*"},
			"end_ip_address":   {Type: argspec.TypeStr, Disposition: "/properties/*"},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"start_ip_address", "end_ip_address"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &FirewallRule{newBase(c, cfg)}
		},
	})
}

// FirewallRule manages firewall rules of a PostgreSQL flexible server.
type FirewallRule struct {
	base
}

func (f *FirewallRule) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := f.Client.FirewallRulesClient.Get(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get firewall rule: %w", err)
	}
	return prov.Encode(&resp.FirewallRule)
}

func (f *FirewallRule) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armpostgresqlflexibleservers.FirewallRule](body)
	if err != nil {
		return nil, err
	}
	poller, err := f.Client.FirewallRulesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Parent, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start firewall rule create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, f.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("firewall rule create or update failed: %w", err)
	}
	return prov.Encode(&resp.FirewallRule)
}

func (f *FirewallRule) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := f.Client.FirewallRulesClient.BeginDelete(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, f.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete firewall rule: %w", err)
	}
	return nil
}

func (f *FirewallRule) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := f.Client.FirewallRulesClient.NewListByServerPager(id.ResourceGroup, id.Parent, nil)
	return prov.Collect(ctx, pager, func(page armpostgresqlflexibleservers.FirewallRulesClientListByServerResponse) []*armpostgresqlflexibleservers.FirewallRule {
		return page.Value
	})
}
