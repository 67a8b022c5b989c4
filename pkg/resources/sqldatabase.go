// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleSQLDatabase = "azure_rm_sqldatabase"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleSQLDatabase,
		Resource: "SQL Database",
		InfoKey:  "databases",
		Parent:   "server_name",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"server_name":    {Type: argspec.TypeStr, Required: true},
			"name":           nameOption(),
			"location":       locationOption(),
			"sku": {
				Type:        argspec.TypeDict,
				Disposition: "/",
				Options: argspec.Spec{
					"name":     {Type: argspec.TypeStr, Required: true},
					"tier":     {Type: argspec.TypeStr},
					"capacity": {Type: argspec.TypeInt},
					"family":   {Type: argspec.TypeStr},
					"size":     {Type: argspec.TypeStr},
				},
			},
			"collation": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"max_size_bytes": {Type: argspec.TypeInt, Disposition: "/properties/*"},
			"zone_redundant": {Type: argspec.TypeBool, Disposition: "/properties/*"},
			"read_scale": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
			"create_mode": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				Comparison:   argspec.CompareIgnore,
				NotUpdatable: true,
				Choices: []string{
					"Default", "Copy", "Secondary", "PointInTimeRestore", "Restore",
					"Recovery", "RestoreExternalBackup", "RestoreLongTermRetentionBackup", "OnlineSecondary",
				},
			},
			"source_database_id": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Comparison:  argspec.CompareIgnore,
			},
			"restore_point_in_time": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Comparison:  argspec.CompareIgnore,
			},
			"elastic_pool_id": {Type: argspec.TypeStr, Disposition: "/properties/*"},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "create_mode", Value: "Copy", Requires: []string{"source_database_id"}},
				{Key: "create_mode", Value: "PointInTimeRestore", Requires: []string{"source_database_id", "restore_point_in_time"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &SQLDatabase{newBase(c, cfg)}
		},
	})
}

// SQLDatabase manages databases of an Azure SQL server.
type SQLDatabase struct {
	base
}

func (s *SQLDatabase) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.SQLDatabasesClient.Get(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL database: %w", err)
	}
	return prov.Encode(&resp.Database)
}

func (s *SQLDatabase) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armsql.Database](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.SQLDatabasesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Parent, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start SQL database create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("SQL database create or update failed: %w", err)
	}
	return prov.Encode(&resp.Database)
}

func (s *SQLDatabase) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := s.Client.SQLDatabasesClient.BeginDelete(ctx, id.ResourceGroup, id.Parent, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete SQL database: %w", err)
	}
	return nil
}

func (s *SQLDatabase) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.SQLDatabasesClient.NewListByServerPager(id.ResourceGroup, id.Parent, nil)
	return prov.Collect(ctx, pager, func(page armsql.DatabasesClientListByServerResponse) []*armsql.Database {
		return page.Value
	})
}
