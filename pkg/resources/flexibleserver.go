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

const ModuleFlexibleServer = "azure_rm_postgresqlflexibleserver"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleFlexibleServer,
		Resource: "PostgreSQL Flexible Server",
		InfoKey:  "servers",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"sku": {
				Type:        argspec.TypeDict,
				Disposition: "/",
				Options: argspec.Spec{
					"name": {Type: argspec.TypeStr, Required: true},
					"tier": {
						Type:     argspec.TypeStr,
						Required: true,
						Choices:  []string{"Burstable", "GeneralPurpose", "MemoryOptimized"},
					},
				},
			},
			"version": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"11", "12", "13", "14", "15", "16"},
			},
			"administrator_login": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"administrator_login_password": {
				Type:        argspec.TypeStr,
				NoLog:       true,
				Disposition: "/properties/*",
				Comparison:  argspec.CompareIgnore,
			},
			"storage": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"storage_size_gb": {Type: argspec.TypeInt, JSONName: "storageSizeGB"},
					"auto_grow":       {Type: argspec.TypeStr, Choices: []string{"Enabled", "Disabled"}},
				},
			},
			"backup": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"backup_retention_days": {Type: argspec.TypeInt},
					"geo_redundant_backup": {
						Type:         argspec.TypeStr,
						Choices:      []string{"Enabled", "Disabled"},
						NotUpdatable: true,
					},
				},
			},
			"high_availability": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"mode":                      {Type: argspec.TypeStr, Choices: []string{"Disabled", "ZoneRedundant", "SameZone"}},
					"standby_availability_zone": {Type: argspec.TypeStr},
				},
			},
			"network": {
				Type:         argspec.TypeDict,
				Disposition:  "/properties/*",
				NotUpdatable: true,
				Options: argspec.Spec{
					"delegated_subnet_resource_id":     {Type: argspec.TypeStr},
					"private_dns_zone_arm_resource_id": {Type: argspec.TypeStr},
					"public_network_access":            {Type: argspec.TypeStr, Choices: []string{"Enabled", "Disabled"}},
				},
			},
			"availability_zone": {Type: argspec.TypeStr, Disposition: "/properties/*"},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"sku", "administrator_login"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &FlexibleServer{newBase(c, cfg)}
		},
	})
}

// FlexibleServer manages PostgreSQL flexible servers. New servers are created
// with a PUT; existing ones are changed with a PATCH, which accepts only the
// updatable subset of the properties.
type FlexibleServer struct {
	base
}

func (f *FlexibleServer) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := f.Client.FlexibleServersClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get flexible server: %w", err)
	}
	return prov.Encode(&resp.Server)
}

func (f *FlexibleServer) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	if _, err := f.Client.FlexibleServersClient.Get(ctx, id.ResourceGroup, id.Name, nil); err == nil {
		return f.update(ctx, id, body)
	}

	params, err := prov.Decode[armpostgresqlflexibleservers.Server](body)
	if err != nil {
		return nil, err
	}
	poller, err := f.Client.FlexibleServersClient.BeginCreate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start flexible server create: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, f.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("flexible server create failed: %w", err)
	}
	return prov.Encode(&resp.Server)
}

func (f *FlexibleServer) update(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armpostgresqlflexibleservers.ServerForUpdate](body)
	if err != nil {
		return nil, err
	}
	poller, err := f.Client.FlexibleServersClient.BeginUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start flexible server update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, f.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("flexible server update failed: %w", err)
	}
	return prov.Encode(&resp.Server)
}

func (f *FlexibleServer) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := f.Client.FlexibleServersClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, f.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete flexible server: %w", err)
	}
	return nil
}

func (f *FlexibleServer) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := f.Client.FlexibleServersClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armpostgresqlflexibleservers.ServersClientListByResourceGroupResponse) []*armpostgresqlflexibleservers.Server {
		return page.Value
	})
}
