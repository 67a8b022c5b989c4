// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleContainerRegistry = "azure_rm_containerregistry"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleContainerRegistry,
		Resource: "ContainerRegistry",
		InfoKey:  "registries",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"sku": {
				Type:        argspec.TypeStr,
				Default:     "Standard",
				Choices:     []string{"Basic", "Standard", "Premium"},
				Disposition: "/sku/name",
			},
			"admin_user_enabled": {
				Type:        argspec.TypeBool,
				Default:     false,
				Disposition: "/properties/*",
			},
			"public_network_access": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
			"zone_redundancy": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				Choices:      []string{"Enabled", "Disabled"},
				NotUpdatable: true,
			},
			"anonymous_pull_enabled": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"data_endpoint_enabled":  {Type: argspec.TypeBool, Disposition: "/properties/*"},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &ContainerRegistry{newBase(c, cfg)}
		},
	})
}

// ContainerRegistry manages container registries. The registry PUT both
// creates and updates.
type ContainerRegistry struct {
	base
}

func (r *ContainerRegistry) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := r.Client.RegistriesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get container registry: %w", err)
	}
	return prov.Encode(&resp.Registry)
}

func (r *ContainerRegistry) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armcontainerregistry.Registry](body)
	if err != nil {
		return nil, err
	}
	poller, err := r.Client.RegistriesClient.BeginCreate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start container registry create: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, r.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("container registry create failed: %w", err)
	}
	return prov.Encode(&resp.Registry)
}

func (r *ContainerRegistry) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := r.Client.RegistriesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, r.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete container registry: %w", err)
	}
	return nil
}

func (r *ContainerRegistry) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := r.Client.RegistriesClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armcontainerregistry.RegistriesClientListByResourceGroupResponse) []*armcontainerregistry.Registry {
		return page.Value
	})
}
