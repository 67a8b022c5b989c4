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

const ModuleAgentPool = "azure_rm_aksagentpool"

// agentPoolProfileOptions are the node pool settings shared by agent pools
// and the agent_pool_profiles of a managed cluster.
func agentPoolProfileOptions() argspec.Spec {
	return argspec.Spec{
		"count":   {Type: argspec.TypeInt},
		"vm_size": {Type: argspec.TypeStr, NotUpdatable: true},
		"os_disk_size_gb": {
			Type:         argspec.TypeInt,
			JSONName:     "osDiskSizeGB",
			NotUpdatable: true,
		},
		"os_type": {Type: argspec.TypeStr, Choices: []string{"Linux", "Windows"}, NotUpdatable: true},
		"mode":    {Type: argspec.TypeStr, Choices: []string{"System", "User"}},
		"type": {
			Type:         argspec.TypeStr,
			Choices:      []string{"VirtualMachineScaleSets", "AvailabilitySet"},
			NotUpdatable: true,
		},
		"enable_auto_scaling":  {Type: argspec.TypeBool},
		"min_count":            {Type: argspec.TypeInt},
		"max_count":            {Type: argspec.TypeInt},
		"max_pods":             {Type: argspec.TypeInt, NotUpdatable: true},
		"orchestrator_version": {Type: argspec.TypeStr},
		"availability_zones": {
			Type:         argspec.TypeList,
			Elements:     argspec.TypeStr,
			NotUpdatable: true,
		},
		"node_labels": {Type: argspec.TypeDict},
		"node_taints": {Type: argspec.TypeList, Elements: argspec.TypeStr},
		"vnet_subnet_id": {
			Type:         argspec.TypeStr,
			JSONName:     "vnetSubnetID",
			NotUpdatable: true,
		},
	}
}

func init() {
	spec := argspec.Spec{
		"resource_group": resourceGroupOption(),
		"cluster_name":   {Type: argspec.TypeStr, Required: true},
		"name":           nameOption(),
	}
	for name, opt := range agentPoolProfileOptions() {
		opt.Disposition = "/properties/*"
		spec[name] = opt
	}
	spec["count"].Default = 1

	registry.Register(&registry.Definition{
		Name:     ModuleAgentPool,
		Resource: "AgentPool",
		InfoKey:  "aks_agent_pools",
		Parent:   "cluster_name",
		Spec:     spec,
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &AgentPool{newBase(c, cfg)}
		},
	})
}

// AgentPool manages the node pools of a managed cluster.
type AgentPool struct {
	base
}

func (a *AgentPool) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := a.Client.AgentPoolsClient.Get(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent pool: %w", err)
	}
	return prov.Encode(&resp.AgentPool)
}

func (a *AgentPool) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armcontainerservice.AgentPool](body)
	if err != nil {
		return nil, err
	}
	poller, err := a.Client.AgentPoolsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Parent, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start agent pool create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, a.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("agent pool create or update failed: %w", err)
	}
	return prov.Encode(&resp.AgentPool)
}

func (a *AgentPool) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := a.Client.AgentPoolsClient.BeginDelete(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, a.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete agent pool: %w", err)
	}
	return nil
}

func (a *AgentPool) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := a.Client.AgentPoolsClient.NewListPager(id.ResourceGroup, id.Parent, nil)
	return prov.Collect(ctx, pager, func(page armcontainerservice.AgentPoolsClientListResponse) []*armcontainerservice.AgentPool {
		return page.Value
	})
}
