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

const ModuleNetworkInterface = "azure_rm_networkinterface"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleNetworkInterface,
		Resource: "NetworkInterface",
		InfoKey:  "networkinterfaces",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"ip_configurations": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				JSONName:    "ipConfigurations",
				Options: argspec.Spec{
					"name": {Type: argspec.TypeStr, Required: true},
					// Either a subnet ID or "<network>/subnets/<subnet>" in the
					// module's resource group.
					"subnet": {
						Type:        argspec.TypeStr,
						Required:    true,
						Disposition: "properties/subnet/id",
						Pattern:     idPattern("Microsoft.Network/virtualNetworks"),
					},
					"private_ip_allocation_method": {
						Type:        argspec.TypeStr,
						Default:     "Dynamic",
						Disposition: "properties/privateIPAllocationMethod",
						Choices:     []string{"Dynamic", "Static"},
					},
					"private_ip_address": {
						Type:        argspec.TypeStr,
						Disposition: "properties/privateIPAddress",
					},
					"public_ip_address_name": {
						Type:        argspec.TypeStr,
						Aliases:     []string{"public_ip_address", "public_ip_name"},
						Disposition: "properties/publicIPAddress/id",
						Pattern:     idPattern("Microsoft.Network/publicIPAddresses"),
					},
					"primary": {Type: argspec.TypeBool, Default: false, Disposition: "properties/*"},
				},
			},
			"security_group": {
				Type:        argspec.TypeStr,
				Aliases:     []string{"security_group_name"},
				Disposition: "/properties/networkSecurityGroup/id",
				Pattern:     idPattern("Microsoft.Network/networkSecurityGroups"),
			},
			"enable_accelerated_networking": {Type: argspec.TypeBool, Default: false, Disposition: "/properties/*"},
			"ip_forwarding": {
				Type:        argspec.TypeBool,
				Default:     false,
				Aliases:     []string{"enable_ip_forwarding"},
				Disposition: "/properties/enableIPForwarding",
			},
			"dns_servers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeStr,
				Disposition: "/properties/dnsSettings/dnsServers",
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"ip_configurations"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &NetworkInterface{newBase(c, cfg)}
		},
	})
}

type NetworkInterface struct {
	base
}

func (n *NetworkInterface) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := n.Client.InterfacesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get network interface: %w", err)
	}
	return prov.Encode(&resp.Interface)
}

func (n *NetworkInterface) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.Interface](body)
	if err != nil {
		return nil, err
	}
	poller, err := n.Client.InterfacesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start network interface create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, n.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("network interface create or update failed: %w", err)
	}
	return prov.Encode(&resp.Interface)
}

func (n *NetworkInterface) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := n.Client.InterfacesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, n.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete network interface: %w", err)
	}
	return nil
}

func (n *NetworkInterface) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := n.Client.InterfacesClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.InterfacesClientListResponse) []*armnetwork.Interface {
		return page.Value
	})
}
