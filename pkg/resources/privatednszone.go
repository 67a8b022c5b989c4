// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/privatedns/armprivatedns"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModulePrivateDNSZone = "azure_rm_privatednszone"

func init() {
	registry.Register(&registry.Definition{
		Name:            ModulePrivateDNSZone,
		Resource:        "PrivateDNSZone",
		InfoKey:         "privatednszones",
		Location:        registry.LocationDefault,
		DefaultLocation: "global",
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &PrivateDNSZone{newBase(c, cfg)}
		},
	})
}

// PrivateDNSZone manages private DNS zones. Zones are global resources whose
// only settable state is their tags.
type PrivateDNSZone struct {
	base
}

func (p *PrivateDNSZone) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := p.Client.PrivateZonesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get private DNS zone: %w", err)
	}
	return prov.Encode(&resp.PrivateZone)
}

func (p *PrivateDNSZone) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armprivatedns.PrivateZone](body)
	if err != nil {
		return nil, err
	}
	poller, err := p.Client.PrivateZonesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start private DNS zone create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, p.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("private DNS zone create or update failed: %w", err)
	}
	return prov.Encode(&resp.PrivateZone)
}

func (p *PrivateDNSZone) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := p.Client.PrivateZonesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, p.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete private DNS zone: %w", err)
	}
	return nil
}

func (p *PrivateDNSZone) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := p.Client.PrivateZonesClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armprivatedns.PrivateZonesClientListByResourceGroupResponse) []*armprivatedns.PrivateZone {
		return page.Value
	})
}
