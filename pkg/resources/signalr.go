// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/signalr/armsignalr"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleSignalR = "azure_rm_signalr"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleSignalR,
		Resource: "SignalR",
		InfoKey:  "signalr",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"sku":            skuOption("Free_F1", "Standard_S1", "Premium_P1"),
			"kind": {
				Type:         argspec.TypeStr,
				Disposition:  "/",
				Default:      "SignalR",
				Choices:      []string{"SignalR", "RawWebSockets"},
				NotUpdatable: true,
			},
			"features": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "flag",
				Options: argspec.Spec{
					"flag": {
						Type:     argspec.TypeStr,
						Required: true,
						Choices:  []string{"ServiceMode", "EnableConnectivityLogs", "EnableMessagingLogs", "EnableLiveTrace"},
					},
					"value":      {Type: argspec.TypeStr, Required: true},
					"properties": {Type: argspec.TypeDict},
				},
			},
			"cors": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"allowed_origins": {Type: argspec.TypeList, Elements: argspec.TypeStr},
				},
			},
			"public_network_access": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
			"disable_local_auth": {Type: argspec.TypeBool, Disposition: "/properties/*"},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &SignalR{newBase(c, cfg)}
		},
	})
}

// SignalR manages Azure SignalR Service instances.
type SignalR struct {
	base
}

func (s *SignalR) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.SignalRClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get SignalR: %w", err)
	}
	return prov.Encode(&resp.ResourceInfo)
}

func (s *SignalR) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armsignalr.ResourceInfo](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.SignalRClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start SignalR create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("SignalR create or update failed: %w", err)
	}
	return prov.Encode(&resp.ResourceInfo)
}

func (s *SignalR) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := s.Client.SignalRClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete SignalR: %w", err)
	}
	return nil
}

func (s *SignalR) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.SignalRClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armsignalr.ClientListByResourceGroupResponse) []*armsignalr.ResourceInfo {
		return page.Value
	})
}
