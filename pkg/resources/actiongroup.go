// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleActionGroup = "azure_rm_actiongroup"

func init() {
	registry.Register(&registry.Definition{
		Name:            ModuleActionGroup,
		Resource:        "ActionGroup",
		InfoKey:         "action_groups",
		Location:        registry.LocationDefault,
		DefaultLocation: "global",
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"group_short_name": {
				Type:        argspec.TypeStr,
				Disposition: "/properties/*",
			},
			"enabled": {
				Type:        argspec.TypeBool,
				Default:     true,
				Disposition: "/properties/*",
			},
			"email_receivers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":                    {Type: argspec.TypeStr, Required: true},
					"email_address":           {Type: argspec.TypeStr, Required: true},
					"use_common_alert_schema": {Type: argspec.TypeBool},
				},
			},
			"sms_receivers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":         {Type: argspec.TypeStr, Required: true},
					"country_code": {Type: argspec.TypeStr, Required: true},
					"phone_number": {Type: argspec.TypeStr, Required: true},
				},
			},
			"webhook_receivers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":                    {Type: argspec.TypeStr, Required: true},
					"service_uri":             {Type: argspec.TypeStr, Required: true, Comparison: argspec.CompareSensitive},
					"use_common_alert_schema": {Type: argspec.TypeBool},
				},
			},
			"azure_app_push_receivers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":          {Type: argspec.TypeStr, Required: true},
					"email_address": {Type: argspec.TypeStr, Required: true},
				},
			},
			"arm_role_receivers": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":                    {Type: argspec.TypeStr, Required: true},
					"role_id":                 {Type: argspec.TypeStr, Required: true},
					"use_common_alert_schema": {Type: argspec.TypeBool},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{{Key: "state", Value: "present", Requires: []string{"group_short_name"}}},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &ActionGroup{newBase(c, cfg)}
		},
	})
}

// ActionGroup manages monitor action groups. Every call is synchronous.
type ActionGroup struct {
	base
}

func (a *ActionGroup) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := a.Client.ActionGroupsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get action group: %w", err)
	}
	return prov.Encode(&resp.ActionGroupResource)
}

func (a *ActionGroup) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armmonitor.ActionGroupResource](body)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.ActionGroupsClient.CreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update action group: %w", err)
	}
	return prov.Encode(&resp.ActionGroupResource)
}

func (a *ActionGroup) Delete(ctx context.Context, id prov.Identity) error {
	_, err := a.Client.ActionGroupsClient.Delete(ctx, id.ResourceGroup, id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete action group: %w", err)
	}
	return nil
}

func (a *ActionGroup) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := a.Client.ActionGroupsClient.NewListByResourceGroupPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armmonitor.ActionGroupsClientListByResourceGroupResponse) []*armmonitor.ActionGroupResource {
		return page.Value
	})
}
