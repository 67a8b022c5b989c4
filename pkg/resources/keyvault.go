// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleKeyVault = "azure_rm_keyvault"

var (
	keyPermissions = []string{
		"all", "encrypt", "decrypt", "wrapkey", "unwrapkey", "sign", "verify", "get", "list",
		"create", "update", "import", "delete", "backup", "restore", "recover", "purge", "rotate",
	}
	secretPermissions = []string{
		"all", "get", "list", "set", "delete", "backup", "restore", "recover", "purge",
	}
	certificatePermissions = []string{
		"all", "get", "list", "delete", "create", "import", "update", "managecontacts", "getissuers",
		"listissuers", "setissuers", "deleteissuers", "manageissuers", "recover", "purge", "backup", "restore",
	}
	storagePermissions = []string{
		"all", "get", "list", "delete", "set", "update", "regeneratekey", "setsas", "listsas",
		"getsas", "deletesas", "recover", "purge", "backup", "restore",
	}
)

// permissionsOption places an access policy permission list under
// "permissions" in the request body.
func permissionsOption(choices ...string) *argspec.Option {
	return &argspec.Option{
		Type:        argspec.TypeList,
		Elements:    argspec.TypeStr,
		Choices:     choices,
		Disposition: "permissions/*",
	}
}

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleKeyVault,
		Resource: "KeyVault",
		InfoKey:  "keyvaults",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"vault_tenant": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				JSONName:    "tenantId",
			},
			"sku": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"family": {Type: argspec.TypeStr, Default: "A", Choices: []string{"A"}},
					"name":   {Type: argspec.TypeStr, Required: true, Choices: []string{"standard", "premium"}},
				},
			},
			"access_policies": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "objectId",
				Options: argspec.Spec{
					"tenant_id":      {Type: argspec.TypeStr, JSONName: "tenantId"},
					"object_id":      {Type: argspec.TypeStr, Required: true, JSONName: "objectId"},
					"application_id": {Type: argspec.TypeStr, JSONName: "applicationId"},
					"keys":           permissionsOption(keyPermissions...),
					"secrets":        permissionsOption(secretPermissions...),
					"certificates":   permissionsOption(certificatePermissions...),
					"storage":        permissionsOption(storagePermissions...),
				},
			},
			"enabled_for_deployment":          {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enabled_for_disk_encryption":     {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enabled_for_template_deployment": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enable_soft_delete":              {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"soft_delete_retention_in_days":   {Type: argspec.TypeInt, Disposition: "/properties/*"},
			"enable_purge_protection":         {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"enable_rbac_authorization":       {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"create_mode": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"default", "recover"},
				Comparison:  argspec.CompareIgnore,
			},
			"network_acls": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"bypass":         {Type: argspec.TypeStr, Choices: []string{"AzureServices", "None"}},
					"default_action": {Type: argspec.TypeStr, Choices: []string{"Allow", "Deny"}},
					"ip_rules": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Key:      "value",
						Options: argspec.Spec{
							"value": {Type: argspec.TypeStr, Required: true},
						},
					},
					"virtual_network_rules": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Key:      "id",
						Options: argspec.Spec{
							"id": {Type: argspec.TypeStr, Required: true},
						},
					},
				},
			},
			"purge_on_delete": {Type: argspec.TypeBool, Default: false},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"vault_tenant", "sku"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &KeyVault{newBase(c, cfg)}
		},
	})
}

// KeyVault manages key vaults. Deleted vaults stay soft-deleted until purged.
type KeyVault struct {
	base
}

func (k *KeyVault) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := k.Client.VaultsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault: %w", err)
	}
	return prov.Encode(&resp.Vault)
}

func (k *KeyVault) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armkeyvault.VaultCreateOrUpdateParameters](body)
	if err != nil {
		return nil, err
	}
	poller, err := k.Client.VaultsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start key vault create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, k.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("key vault create or update failed: %w", err)
	}
	return prov.Encode(&resp.Vault)
}

func (k *KeyVault) Delete(ctx context.Context, id prov.Identity) error {
	var location string
	if id.Bool("purge_on_delete") {
		// The purge call needs the location, which is gone with the vault.
		resp, err := k.Client.VaultsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
		if prov.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get key vault: %w", err)
		}
		if resp.Location != nil {
			location = *resp.Location
		}
	}

	_, err := k.Client.VaultsClient.Delete(ctx, id.ResourceGroup, id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete key vault: %w", err)
	}
	if location == "" {
		return nil
	}

	logger.FromContext(ctx).Infow("purging deleted key vault", "name", id.Name, "location", location)
	poller, err := k.Client.VaultsClient.BeginPurgeDeleted(ctx, id.Name, location, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, k.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to purge key vault: %w", err)
	}
	return nil
}

func (k *KeyVault) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := k.Client.VaultsClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armkeyvault.VaultsClientListByResourceGroupResponse) []*armkeyvault.Vault {
		return page.Value
	})
}
