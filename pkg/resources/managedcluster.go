// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v4"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleManagedCluster = "azure_rm_aks"

func init() {
	profiles := agentPoolProfileOptions()
	profiles["name"] = &argspec.Option{Type: argspec.TypeStr, Required: true}
	profiles["count"].Required = true
	profiles["vm_size"].Required = true

	registry.Register(&registry.Definition{
		Name:     ModuleManagedCluster,
		Resource: "ManagedCluster",
		InfoKey:  "aks",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"dns_prefix": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"kubernetes_version": {Type: argspec.TypeStr, Disposition: "/properties/*"},
			"enable_rbac": {
				Type:         argspec.TypeBool,
				Default:      false,
				Disposition:  "/properties/*",
				JSONName:     "enableRBAC",
				NotUpdatable: true,
			},
			"sku": {
				Type:        argspec.TypeDict,
				Disposition: "/",
				Options: argspec.Spec{
					"name": {Type: argspec.TypeStr, Choices: []string{"Base"}, Default: "Base"},
					"tier": {Type: argspec.TypeStr, Choices: []string{"Free", "Standard", "Premium"}},
				},
			},
			"identity": {
				Type:        argspec.TypeDict,
				Disposition: "/",
				Options: argspec.Spec{
					"type": {
						Type:    argspec.TypeStr,
						Default: "SystemAssigned",
						Choices: []string{"SystemAssigned", "UserAssigned", "None"},
					},
					"user_assigned_identities": {Type: argspec.TypeDict},
				},
			},
			"agent_pool_profiles": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options:     profiles,
			},
			"linux_profile": {
				Type:         argspec.TypeDict,
				Disposition:  "/properties/*",
				NotUpdatable: true,
				Options: argspec.Spec{
					"admin_username": {Type: argspec.TypeStr, Required: true},
					"ssh_public_keys": {
						Type:        argspec.TypeList,
						Elements:    argspec.TypeDict,
						Required:    true,
						Disposition: "ssh/publicKeys",
						Options: argspec.Spec{
							"key_data": {Type: argspec.TypeStr, Required: true},
						},
					},
				},
			},
			"network_profile": {
				Type:         argspec.TypeDict,
				Disposition:  "/properties/*",
				NotUpdatable: true,
				Options: argspec.Spec{
					"network_plugin":      {Type: argspec.TypeStr, Choices: []string{"azure", "kubenet", "none"}},
					"network_plugin_mode": {Type: argspec.TypeStr},
					"network_policy":      {Type: argspec.TypeStr, Choices: []string{"azure", "calico", "cilium"}},
					"pod_cidr":            {Type: argspec.TypeStr},
					"service_cidr":        {Type: argspec.TypeStr},
					"dns_service_ip":      {Type: argspec.TypeStr, JSONName: "dnsServiceIP"},
					"load_balancer_sku":   {Type: argspec.TypeStr, Choices: []string{"standard", "basic"}},
					"outbound_type":       {Type: argspec.TypeStr},
				},
			},
			"aad_profile": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"managed":           {Type: argspec.TypeBool},
					"enable_azure_rbac": {Type: argspec.TypeBool, JSONName: "enableAzureRBAC"},
					"admin_group_object_ids": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeStr,
						JSONName: "adminGroupObjectIDs",
					},
					"tenant_id": {Type: argspec.TypeStr, JSONName: "tenantID"},
				},
			},
			"node_resource_group": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &ManagedCluster{newBase(c, cfg)}
		},
	})
}

// ManagedCluster manages AKS clusters.
type ManagedCluster struct {
	base
}

func (m *ManagedCluster) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := m.Client.ManagedClustersClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get managed cluster: %w", err)
	}
	return prov.Encode(&resp.ManagedCluster)
}

func (m *ManagedCluster) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armcontainerservice.ManagedCluster](body)
	if err != nil {
		return nil, err
	}
	poller, err := m.Client.ManagedClustersClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start managed cluster create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, m.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("managed cluster create or update failed: %w", err)
	}
	return prov.Encode(&resp.ManagedCluster)
}

func (m *ManagedCluster) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := m.Client.ManagedClustersClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, m.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete managed cluster: %w", err)
	}
	return nil
}

func (m *ManagedCluster) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := m.Client.ManagedClustersClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armcontainerservice.ManagedClustersClientListByResourceGroupResponse) []*armcontainerservice.ManagedCluster {
		return page.Value
	})
}
