// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleVirtualNetwork = "azure_rm_virtualnetwork"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleVirtualNetwork,
		Resource: "VirtualNetwork",
		InfoKey:  "virtualnetworks",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"address_prefixes_cidr": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeStr,
				Aliases:     []string{"address_prefixes"},
				Disposition: "/properties/addressSpace/addressPrefixes",
			},
			"dns_servers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeStr,
				Disposition: "/properties/dhcpOptions/dnsServers",
			},
			"flow_timeout_in_minutes": {Type: argspec.TypeInt, Disposition: "/properties/*"},
			"enable_ddos_protection":  {Type: argspec.TypeBool, Disposition: "/properties/*"},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"address_prefixes_cidr"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &VirtualNetwork{newBase(c, cfg)}
		},
	})
}

// VirtualNetwork manages virtual networks. Subnets are managed by their own
// module and are carried over on update.
type VirtualNetwork struct {
	base
}

func (v *VirtualNetwork) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := v.Client.VirtualNetworksClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual network: %w", err)
	}
	return prov.Encode(&resp.VirtualNetwork)
}

func (v *VirtualNetwork) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.VirtualNetwork](body)
	if err != nil {
		return nil, err
	}

	// A PUT without subnets deletes every subnet of the network.
	existing, err := v.Client.VirtualNetworksClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil && existing.Properties != nil && len(existing.Properties.Subnets) > 0 {
		if params.Properties == nil {
			params.Properties = &armnetwork.VirtualNetworkPropertiesFormat{}
		}
		params.Properties.Subnets = existing.Properties.Subnets
		logger.FromContext(ctx).Debugw("keeping existing subnets", "name", id.Name, "count", len(existing.Properties.Subnets))
	}

	poller, err := v.Client.VirtualNetworksClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start virtual network create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("virtual network create or update failed: %w", err)
	}
	return prov.Encode(&resp.VirtualNetwork)
}

func (v *VirtualNetwork) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := v.Client.VirtualNetworksClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete virtual network: %w", err)
	}
	return nil
}

func (v *VirtualNetwork) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := v.Client.VirtualNetworksClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.VirtualNetworksClientListResponse) []*armnetwork.VirtualNetwork {
		return page.Value
	})
}
