// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sqlvirtualmachine/armsqlvirtualmachine"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleSQLVirtualMachine = "azure_rm_sqlvirtualmachine"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleSQLVirtualMachine,
		Resource: "SqlVirtualMachine",
		InfoKey:  "sql_virtual_machines",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"virtual_machine_resource_id": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				Pattern:      idPattern("Microsoft.Compute/virtualMachines"),
				NotUpdatable: true,
			},
			"sql_server_license_type": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"PAYG", "AHUB", "DR"},
			},
			"sql_management": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Full", "LightWeight", "NoAgent"},
			},
			"sql_image_sku": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
				Choices:     []string{"Developer", "Express", "Standard", "Enterprise", "Web"},
			},
			"sql_image_offer": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				NotUpdatable: true,
			},
			"auto_patching_settings": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"enable": {Type: argspec.TypeBool},
					"day_of_week": {
						Type: argspec.TypeStr,
						Choices: []string{
							"Everyday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
						},
					},
					"maintenance_window_starting_hour": {Type: argspec.TypeInt},
					"maintenance_window_duration":      {Type: argspec.TypeInt},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"virtual_machine_resource_id"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &SQLVirtualMachine{newBase(c, cfg)}
		},
	})
}

// SQLVirtualMachine registers virtual machines with the SQL IaaS extension.
type SQLVirtualMachine struct {
	base
}

func (s *SQLVirtualMachine) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.SQLVirtualMachinesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL virtual machine: %w", err)
	}
	return prov.Encode(&resp.SQLVirtualMachine)
}

func (s *SQLVirtualMachine) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armsqlvirtualmachine.SQLVirtualMachine](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.SQLVirtualMachinesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start SQL virtual machine create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("SQL virtual machine create or update failed: %w", err)
	}
	return prov.Encode(&resp.SQLVirtualMachine)
}

func (s *SQLVirtualMachine) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := s.Client.SQLVirtualMachinesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete SQL virtual machine: %w", err)
	}
	return nil
}

func (s *SQLVirtualMachine) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.SQLVirtualMachinesClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armsqlvirtualmachine.SQLVirtualMachinesClientListByResourceGroupResponse) []*armsqlvirtualmachine.SQLVirtualMachine {
		return page.Value
	})
}
