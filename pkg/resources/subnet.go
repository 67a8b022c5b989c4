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

const ModuleSubnet = "azure_rm_subnet"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleSubnet,
		Resource: "Subnet",
		InfoKey:  "subnets",
		Parent:   "virtual_network_name",
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"virtual_network_name": {
				Type:     argspec.TypeStr,
				Required: true,
				Aliases:  []string{"virtual_network"},
			},
			"name": nameOption(),
			"address_prefix_cidr": {
				Type:        argspec.TypeStr,
				Aliases:     []string{"address_prefix"},
				Disposition: "/properties/addressPrefix",
			},
			"security_group": {
				Type:        argspec.TypeStr,
				Aliases:     []string{"security_group_name"},
				Disposition: "/properties/networkSecurityGroup/id",
				Pattern:     idPattern("Microsoft.Network/networkSecurityGroups"),
			},
			"route_table": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/routeTable/id",
				Pattern:     idPattern("Microsoft.Network/routeTables"),
			},
			"service_endpoints": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "service",
				Options: argspec.Spec{
					"service":   {Type: argspec.TypeStr, Required: true},
					"locations": {Type: argspec.TypeList, Elements: argspec.TypeStr},
				},
			},
			"private_endpoint_network_policies": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled", "NetworkSecurityGroupEnabled", "RouteTableEnabled"},
			},
			"private_link_service_network_policies": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
			"delegations": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"name":         {Type: argspec.TypeStr, Required: true},
					"service_name": {Type: argspec.TypeStr, Required: true, Disposition: "properties/*"},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"address_prefix_cidr"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &Subnet{newBase(c, cfg)}
		},
	})
}

// Subnet manages subnets of a virtual network.
type Subnet struct {
	base
}

func (s *Subnet) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.SubnetsClient.Get(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get subnet: %w", err)
	}
	return prov.Encode(&resp.Subnet)
}

func (s *Subnet) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.Subnet](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.SubnetsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Parent, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start subnet create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("subnet create or update failed: %w", err)
	}
	return prov.Encode(&resp.Subnet)
}

func (s *Subnet) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := s.Client.SubnetsClient.BeginDelete(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete subnet: %w", err)
	}
	return nil
}

func (s *Subnet) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.SubnetsClient.NewListPager(id.ResourceGroup, id.Parent, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.SubnetsClientListResponse) []*armnetwork.Subnet {
		return page.Value
	})
}
