// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleStorageAccount = "azure_rm_storageaccount"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleStorageAccount,
		Resource: "StorageAccount",
		InfoKey:  "storageaccounts",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"account_type": {
				Type:        argspec.TypeStr,
				Aliases:     []string{"type"},
				Disposition: "/sku/name",
				Choices: []string{
					"Premium_LRS", "Standard_GRS", "Standard_LRS", "Standard_RAGRS", "Standard_ZRS",
					"Premium_ZRS", "Standard_RAGZRS", "Standard_GZRS",
				},
			},
			"kind": {
				Type:         argspec.TypeStr,
				Disposition:  "/",
				Default:      "StorageV2",
				Choices:      []string{"Storage", "StorageV2", "BlobStorage", "FileStorage", "BlockBlobStorage"},
				NotUpdatable: true,
			},
			"access_tier": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Hot", "Cool", "Premium"},
			},
			"https_only": {
				Type:        argspec.TypeBool,
				Default:     true,
				Disposition: "/properties/*",
				JSONName:    "supportsHttpsTrafficOnly",
			},
			"minimum_tls_version": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"TLS1_0", "TLS1_1", "TLS1_2"},
			},
			"allow_blob_public_access": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"is_hns_enabled": {
				Type:         argspec.TypeBool,
				Disposition:  "/properties/*",
				JSONName:     "isHnsEnabled",
				NotUpdatable: true,
			},
			"network_acls": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"bypass": {Type: argspec.TypeStr, Default: "AzureServices"},
					"default_action": {
						Type:     argspec.TypeStr,
						Required: true,
						Choices:  []string{"Allow", "Deny"},
					},
					"ip_rules": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Key:      "value",
						Options: argspec.Spec{
							"value":  {Type: argspec.TypeStr, Required: true},
							"action": {Type: argspec.TypeStr, Default: "Allow", Choices: []string{"Allow"}},
						},
					},
					"virtual_network_rules": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Key:      "id",
						Options: argspec.Spec{
							"id":     {Type: argspec.TypeStr, Required: true},
							"action": {Type: argspec.TypeStr, Default: "Allow", Choices: []string{"Allow"}},
						},
					},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"account_type"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &StorageAccount{newBase(c, cfg)}
		},
	})
}

// StorageAccount manages storage accounts. A create request against an
// existing account updates its properties; delete is synchronous.
type StorageAccount struct {
	base
}

func (s *StorageAccount) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.StorageAccountsClient.GetProperties(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage account: %w", err)
	}
	return prov.Encode(&resp.Account)
}

func (s *StorageAccount) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armstorage.AccountCreateParameters](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.StorageAccountsClient.BeginCreate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start storage account create: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("storage account create failed: %w", err)
	}
	return prov.Encode(&resp.Account)
}

func (s *StorageAccount) Delete(ctx context.Context, id prov.Identity) error {
	_, err := s.Client.StorageAccountsClient.Delete(ctx, id.ResourceGroup, id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete storage account: %w", err)
	}
	return nil
}

func (s *StorageAccount) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.StorageAccountsClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armstorage.AccountsClientListByResourceGroupResponse) []*armstorage.Account {
		return page.Value
	})
}
