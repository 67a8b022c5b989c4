// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleResourceGroup = "azure_rm_resourcegroup"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleResourceGroup,
		Resource: "ResourceGroup",
		InfoKey:  "resourcegroups",
		Spec: argspec.Spec{
			"name":     nameOption(),
			"location": locationOption(),
			"managed_by": {
				Type:         argspec.TypeStr,
				Disposition:  "/",
				NotUpdatable: true,
			},
			"force_delete_nonempty": {
				Type:    argspec.TypeBool,
				Default: false,
				Aliases: []string{"force"},
			},
			"force_delete_types": {
				Type:     argspec.TypeList,
				Elements: argspec.TypeStr,
				Choices:  []string{"Microsoft.Compute/virtualMachines", "Microsoft.Compute/virtualMachineScaleSets"},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &ResourceGroup{newBase(c, cfg)}
		},
	})
}

// ResourceGroup manages resource groups. Create and update are synchronous.
type ResourceGroup struct {
	base
}

func (rg *ResourceGroup) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := rg.Client.ResourceGroupsClient.Get(ctx, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource group: %w", err)
	}
	return prov.Encode(&resp.ResourceGroup)
}

func (rg *ResourceGroup) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	// Location is required by Azure even though it can never change.
	if location, _ := body["location"].(string); location == "" {
		return nil, errors.New("location is required when creating a resource group")
	}
	params, err := prov.Decode[armresources.ResourceGroup](body)
	if err != nil {
		return nil, err
	}
	resp, err := rg.Client.ResourceGroupsClient.CreateOrUpdate(ctx, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource group: %w", err)
	}
	return prov.Encode(&resp.ResourceGroup)
}

func (rg *ResourceGroup) Delete(ctx context.Context, id prov.Identity) error {
	if !id.Bool("force_delete_nonempty") {
		empty, err := rg.isEmpty(ctx, id.Name)
		if err != nil {
			return err
		}
		if !empty {
			return fmt.Errorf("resource group %s contains resources; set force_delete_nonempty to delete it", id.Name)
		}
	}

	var opts *armresources.ResourceGroupsClientBeginDeleteOptions
	if types, ok := id.Params["force_delete_types"].([]any); ok && len(types) > 0 {
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, fmt.Sprint(t))
		}
		opts = &armresources.ResourceGroupsClientBeginDeleteOptions{ForceDeletionTypes: to.Ptr(strings.Join(names, ","))}
	}

	poller, err := rg.Client.ResourceGroupsClient.BeginDelete(ctx, id.Name, opts)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, rg.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete resource group: %w", err)
	}
	return nil
}

func (rg *ResourceGroup) isEmpty(ctx context.Context, name string) (bool, error) {
	pager := rg.Client.ResourcesClient.NewListByResourceGroupPager(name, &armresources.ClientListByResourceGroupOptions{Top: to.Ptr[int32](1)})
	if !pager.More() {
		return true, nil
	}
	page, err := pager.NextPage(ctx)
	if err != nil {
		if prov.IsNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to list resources of resource group %s: %w", name, err)
	}
	logger.FromContext(ctx).Debugw("resource group contents", "resource_group", name, "resources", len(page.Value))
	return len(page.Value) == 0, nil
}

func (rg *ResourceGroup) List(ctx context.Context, _ prov.Identity) ([]map[string]any, error) {
	pager := rg.Client.ResourceGroupsClient.NewListPager(nil)
	return prov.Collect(ctx, pager, func(page armresources.ResourceGroupsClientListResponse) []*armresources.ResourceGroup {
		return page.Value
	})
}
