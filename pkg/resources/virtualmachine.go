// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/body"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleVirtualMachine = "azure_rm_virtualmachine"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleVirtualMachine,
		Resource: "VirtualMachine",
		InfoKey:  "vms",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"vm_size": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/hardwareProfile/vmSize",
			},
			"admin_username": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/osProfile/adminUsername",
				NotUpdatable: true,
			},
			"admin_password": {
				Type:        argspec.TypeStr,
				NoLog:       true,
				Disposition: "/properties/osProfile/adminPassword",
				Comparison:  argspec.CompareIgnore,
			},
			"computer_name": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/osProfile/computerName",
				NotUpdatable: true,
			},
			"custom_data": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/osProfile/customData",
				Comparison:  argspec.CompareIgnore,
			},
			"disable_password_authentication": {
				Type:        argspec.TypeBool,
				Disposition: "/properties/osProfile/linuxConfiguration/*",
			},
			"ssh_public_keys": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/osProfile/linuxConfiguration/ssh/publicKeys",
				Key:         "path",
				Options: argspec.Spec{
					"path":     {Type: argspec.TypeStr, Required: true},
					"key_data": {Type: argspec.TypeStr, Required: true},
				},
			},
			"image": {
				Type:         argspec.TypeDict,
				Disposition:  "/properties/storageProfile/imageReference",
				NotUpdatable: true,
				Options: argspec.Spec{
					"publisher": {Type: argspec.TypeStr},
					"offer":     {Type: argspec.TypeStr},
					"sku":       {Type: argspec.TypeStr},
					"version":   {Type: argspec.TypeStr},
					"id":        {Type: argspec.TypeStr},
				},
			},
			"managed_disk_type": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/storageProfile/osDisk/managedDisk/storageAccountType",
				Choices:     []string{"Standard_LRS", "StandardSSD_LRS", "StandardSSD_ZRS", "Premium_LRS", "Premium_ZRS", "UltraSSD_LRS"},
			},
			"os_disk_size_gb": {
				Type:        argspec.TypeInt,
				Disposition: "/properties/storageProfile/osDisk/diskSizeGB",
			},
			"os_disk_caching": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/storageProfile/osDisk/caching",
				Choices:     []string{"None", "ReadOnly", "ReadWrite"},
			},
			"network_interfaces": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Aliases:     []string{"network_interface_names"},
				Disposition: "/properties/networkProfile/networkInterfaces",
				Key:         "id",
				Options: argspec.Spec{
					"id": {
						Type:     argspec.TypeStr,
						Required: true,
						Pattern:  idPattern("Microsoft.Network/networkInterfaces"),
					},
					"primary": {Type: argspec.TypeBool, Disposition: "properties/*"},
				},
			},
			"availability_set": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/availabilitySet/id",
				Pattern:      idPattern("Microsoft.Compute/availabilitySets"),
				NotUpdatable: true,
			},
			"zones": {
				Type:         argspec.TypeList,
				Elements:     argspec.TypeStr,
				Disposition:  "/",
				NotUpdatable: true,
			},
			"priority": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				Choices:      []string{"Regular", "Spot", "Low"},
				NotUpdatable: true,
			},
			"boot_diagnostics": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/diagnosticsProfile/bootDiagnostics",
				Options: argspec.Spec{
					"enabled":     {Type: argspec.TypeBool, Required: true},
					"storage_uri": {Type: argspec.TypeStr},
				},
			},
			"force_delete": {Type: argspec.TypeBool, Default: false},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"vm_size", "admin_username", "image", "network_interfaces"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &VirtualMachine{newBase(c, cfg)}
		},
	})
}

// VirtualMachine manages virtual machines from a marketplace or custom image.
// The VM is created with its OS disk from the image; NICs are attached by ID.
type VirtualMachine struct {
	base
}

func (v *VirtualMachine) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := v.Client.VirtualMachinesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual machine: %w", err)
	}
	return prov.Encode(&resp.VirtualMachine)
}

func (v *VirtualMachine) CreateOrUpdate(ctx context.Context, id prov.Identity, desired map[string]any) (map[string]any, error) {
	prepareVirtualMachine(desired, id.Name)
	params, err := prov.Decode[armcompute.VirtualMachine](desired)
	if err != nil {
		return nil, err
	}
	poller, err := v.Client.VirtualMachinesClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start virtual machine create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("virtual machine create or update failed: %w", err)
	}
	return prov.Encode(&resp.VirtualMachine)
}

// prepareVirtualMachine fills the request fields Azure requires that have no
// module argument: the computer name and how the OS disk is created.
func prepareVirtualMachine(desired map[string]any, name string) {
	if osProfile, ok := body.Lookup(desired, "properties", "osProfile").(map[string]any); ok {
		if _, ok := osProfile["computerName"]; !ok {
			osProfile["computerName"] = name
		}
	}
	if _, ok := body.Lookup(desired, "properties", "storageProfile").(map[string]any); ok {
		body.Set(desired, string(armcompute.DiskCreateOptionTypesFromImage), "properties", "storageProfile", "osDisk", "createOption")
	}
}

func (v *VirtualMachine) Delete(ctx context.Context, id prov.Identity) error {
	var opts *armcompute.VirtualMachinesClientBeginDeleteOptions
	if id.Bool("force_delete") {
		opts = &armcompute.VirtualMachinesClientBeginDeleteOptions{ForceDeletion: to.Ptr(true)}
	}
	poller, err := v.Client.VirtualMachinesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, opts)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, v.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete virtual machine: %w", err)
	}
	return nil
}

func (v *VirtualMachine) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := v.Client.VirtualMachinesClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armcompute.VirtualMachinesClientListResponse) []*armcompute.VirtualMachine {
		return page.Value
	})
}
