// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/msi/armmsi"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleUserAssignedIdentity = "azure_rm_userassignedidentity"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleUserAssignedIdentity,
		Resource: "UserAssignedIdentity",
		InfoKey:  "user_assigned_identities",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &UserAssignedIdentity{newBase(c, cfg)}
		},
	})
}

// UserAssignedIdentity manages user-assigned managed identities. The result
// carries the principal and client ids Azure assigns.
type UserAssignedIdentity struct {
	base
}

func (u *UserAssignedIdentity) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := u.Client.UserAssignedIdentitiesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user assigned identity: %w", err)
	}
	return prov.Encode(&resp.Identity)
}

func (u *UserAssignedIdentity) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armmsi.Identity](body)
	if err != nil {
		return nil, err
	}
	resp, err := u.Client.UserAssignedIdentitiesClient.CreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update user assigned identity: %w", err)
	}
	return prov.Encode(&resp.Identity)
}

func (u *UserAssignedIdentity) Delete(ctx context.Context, id prov.Identity) error {
	_, err := u.Client.UserAssignedIdentitiesClient.Delete(ctx, id.ResourceGroup, id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete user assigned identity: %w", err)
	}
	return nil
}

func (u *UserAssignedIdentity) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := u.Client.UserAssignedIdentitiesClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armmsi.UserAssignedIdentitiesClientListByResourceGroupResponse) []*armmsi.Identity {
		return page.Value
	})
}
