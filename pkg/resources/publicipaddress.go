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

const ModulePublicIPAddress = "azure_rm_publicipaddress"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModulePublicIPAddress,
		Resource: "PublicIPAddress",
		InfoKey:  "publicipaddresses",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"sku": {
				Type:         argspec.TypeStr,
				Default:      "Standard",
				Disposition:  "/sku/name",
				Choices:      []string{"Basic", "Standard"},
				NotUpdatable: true,
			},
			"allocation_method": {
				Type:        argspec.TypeStr,
				Default:     "Static",
				Disposition: "/properties/publicIPAllocationMethod",
				Choices:     []string{"Dynamic", "Static"},
			},
			"version": {
				Type:         argspec.TypeStr,
				Default:      "IPv4",
				Disposition:  "/properties/publicIPAddressVersion",
				Choices:      []string{"IPv4", "IPv6"},
				NotUpdatable: true,
			},
			"domain_name": {
				Type:        argspec.TypeStr,
				Aliases:     []string{"domain_name_label"},
				Disposition: "/properties/dnsSettings/domainNameLabel",
			},
			"idle_timeout": {
				Type:        argspec.TypeInt,
				Disposition: "/properties/idleTimeoutInMinutes",
			},
			"zones": {
				Type:         argspec.TypeList,
				Elements:     argspec.TypeStr,
				Disposition:  "/",
				NotUpdatable: true,
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &PublicIPAddress{newBase(c, cfg)}
		},
	})
}

type PublicIPAddress struct {
	base
}

func (p *PublicIPAddress) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := p.Client.PublicIPAddressesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get public IP address: %w", err)
	}
	return prov.Encode(&resp.PublicIPAddress)
}

func (p *PublicIPAddress) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.PublicIPAddress](body)
	if err != nil {
		return nil, err
	}
	poller, err := p.Client.PublicIPAddressesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start public IP address create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, p.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("public IP address create or update failed: %w", err)
	}
	return prov.Encode(&resp.PublicIPAddress)
}

func (p *PublicIPAddress) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := p.Client.PublicIPAddressesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, p.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete public IP address: %w", err)
	}
	return nil
}

func (p *PublicIPAddress) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := p.Client.PublicIPAddressesClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.PublicIPAddressesClientListResponse) []*armnetwork.PublicIPAddress {
		return page.Value
	})
}
