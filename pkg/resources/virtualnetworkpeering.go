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
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleVirtualNetworkPeering = "azure_rm_virtualnetworkpeering"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleVirtualNetworkPeering,
		Resource: "VirtualNetworkPeering",
		InfoKey:  "vnetpeerings",
		Parent:   "virtual_network",
		Spec: argspec.Spec{
			"resource_group":  resourceGroupOption(),
			"virtual_network": {Type: argspec.TypeStr, Required: true},
			"name":            nameOption(),
			"remote_virtual_network": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/remoteVirtualNetwork/id",
				Pattern:      idPattern("Microsoft.Network/virtualNetworks"),
				NotUpdatable: true,
			},
			"allow_virtual_network_access": {
				Type:        argspec.TypeBool,
				Default:     false,
				Disposition: "/properties/*",
			},
			"allow_forwarded_traffic": {
				Type:        argspec.TypeBool,
				Default:     false,
				Disposition: "/properties/*",
			},
			"allow_gateway_transit": {
				Type:        argspec.TypeBool,
				Default:     false,
				Disposition: "/properties/*",
			},
			"use_remote_gateways": {
				Type:        argspec.TypeBool,
				Default:     false,
				Disposition: "/properties/*",
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"remote_virtual_network"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &VirtualNetworkPeering{newBase(c, cfg)}
		},
	})
}

// VirtualNetworkPeering manages peerings of a virtual network.
type VirtualNetworkPeering struct {
	base
}

func (v *VirtualNetworkPeering) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := v.Client.VirtualNetworkPeeringsClient.Get(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual network peering: %w", err)
	}
	return prov.Encode(&resp.VirtualNetworkPeering)
}

func (v *VirtualNetworkPeering) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.VirtualNetworkPeering](body)
	if err != nil {
		return nil, err
	}
	poller, err := v.Client.VirtualNetworkPeeringsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Parent, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start virtual network peering create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("virtual network peering create or update failed: %w", err)
	}
	return prov.Encode(&resp.VirtualNetworkPeering)
}

func (v *VirtualNetworkPeering) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := v.Client.VirtualNetworkPeeringsClient.BeginDelete(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete virtual network peering: %w", err)
	}
	return nil
}

func (v *VirtualNetworkPeering) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := v.Client.VirtualNetworkPeeringsClient.NewListPager(id.ResourceGroup, id.Parent, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.VirtualNetworkPeeringsClientListResponse) []*armnetwork.VirtualNetworkPeering {
		return page.Value
	})
}
