// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleAvailabilitySet = "azure_rm_availabilityset"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleAvailabilitySet,
		Resource: "AvailabilitySet",
		InfoKey:  "availabilitysets",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"platform_fault_domain_count": {
				Type:         argspec.TypeInt,
				Default:      3,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"platform_update_domain_count": {
				Type:         argspec.TypeInt,
				Default:      5,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"sku": {
				Type:        argspec.TypeStr,
				Default:     "Classic",
				Disposition: "/sku/name",
				Choices:     []string{"Classic", "Aligned"},
			},
			"proximity_placement_group": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/proximityPlacementGroup/id",
				Pattern:     idPattern("Microsoft.Compute/proximityPlacementGroups"),
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &AvailabilitySet{newBase(c, cfg)}
		},
	})
}

type AvailabilitySet struct {
	base
}

func (a *AvailabilitySet) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := a.Client.AvailabilitySetsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability set: %w", err)
	}
	return prov.Encode(&resp.AvailabilitySet)
}

func (a *AvailabilitySet) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armcompute.AvailabilitySet](body)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.AvailabilitySetsClient.CreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update availability set: %w", err)
	}
	return prov.Encode(&resp.AvailabilitySet)
}

func (a *AvailabilitySet) Delete(ctx context.Context, id prov.Identity) error {
	_, err := a.Client.AvailabilitySetsClient.Delete(ctx, id.ResourceGroup, id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete availability set: %w", err)
	}
	return nil
}

func (a *AvailabilitySet) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := a.Client.AvailabilitySetsClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armcompute.AvailabilitySetsClientListResponse) []*armcompute.AvailabilitySet {
		return page.Value
	})
}
