// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v2"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleCosmosDBAccount = "azure_rm_cosmosdbaccount"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleCosmosDBAccount,
		Resource: "Database Account",
		InfoKey:  "accounts",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"kind": {
				Type:         argspec.TypeStr,
				Disposition:  "/",
				Choices:      []string{"GlobalDocumentDB", "MongoDB", "Parse"},
				NotUpdatable: true,
			},
			"database_account_offer_type": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Default:     "Standard",
				Choices:     []string{"Standard"},
			},
			"consistency_policy": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"default_consistency_level": {
						Type:     argspec.TypeStr,
						Required: true,
						Choices:  []string{"Eventual", "Session", "BoundedStaleness", "Strong", "ConsistentPrefix"},
					},
					"max_staleness_prefix":    {Type: argspec.TypeInt},
					"max_interval_in_seconds": {Type: argspec.TypeInt},
				},
			},
			"geo_rep_locations": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				JSONName:    "locations",
				Key:         "locationName",
				Options: argspec.Spec{
					"name": {
						Type:       argspec.TypeStr,
						Required:   true,
						JSONName:   "locationName",
						Comparison: argspec.CompareLocation,
					},
					"failover_priority": {Type: argspec.TypeInt, Required: true},
					"is_zone_redundant": {Type: argspec.TypeBool},
				},
			},
			"enable_automatic_failover":       {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enable_multiple_write_locations": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enable_free_tier": {
				Type:         argspec.TypeBool,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"ip_rules": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "ipAddressOrRange",
				Options: argspec.Spec{
					"ip_address_or_range": {Type: argspec.TypeStr, Required: true},
				},
			},
			"is_virtual_network_filter_enabled": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"virtual_network_rules": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "id",
				Options: argspec.Spec{
					"subnet": {Type: argspec.TypeStr, Required: true, JSONName: "id"},
					"ignore_missing_v_net_service_endpoint": {
						Type:     argspec.TypeBool,
						JSONName: "ignoreMissingVNetServiceEndpoint",
					},
				},
			},
			"public_network_access": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"geo_rep_locations", "consistency_policy"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &CosmosDBAccount{newBase(c, cfg)}
		},
	})
}

// CosmosDBAccount manages Cosmos DB database accounts.
type CosmosDBAccount struct {
	base
}

func (a *CosmosDBAccount) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := a.Client.DatabaseAccountsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get database account: %w", err)
	}
	return prov.Encode(&resp.DatabaseAccountGetResults)
}

func (a *CosmosDBAccount) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armcosmos.DatabaseAccountCreateUpdateParameters](body)
	if err != nil {
		return nil, err
	}
	poller, err := a.Client.DatabaseAccountsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database account create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, a.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("database account create or update failed: %w", err)
	}
	return prov.Encode(&resp.DatabaseAccountGetResults)
}

func (a *CosmosDBAccount) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := a.Client.DatabaseAccountsClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, a.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete database account: %w", err)
	}
	return nil
}

func (a *CosmosDBAccount) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := a.Client.DatabaseAccountsClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armcosmos.DatabaseAccountsClientListByResourceGroupResponse) []*armcosmos.DatabaseAccountGetResults {
		return page.Value
	})
}
