// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleWAFPolicy = "azure_rm_webapplicationfirewallpolicy"

var wafOperators = []string{
	"IPMatch", "Equal", "Contains", "LessThan", "GreaterThan", "LessThanOrEqual",
	"GreaterThanOrEqual", "BeginsWith", "EndsWith", "Regex", "GeoMatch", "Any",
}

var wafTransforms = []string{
	"Lowercase", "Trim", "UrlDecode", "UrlEncode", "RemoveNulls", "HtmlEntityDecode", "Uppercase",
}

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleWAFPolicy,
		Resource: "WebApplicationFirewallPolicy",
		InfoKey:  "web_application_firewall_policies",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"policy_settings": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"state":                            {Type: argspec.TypeStr, Choices: []string{"Enabled", "Disabled"}},
					"mode":                             {Type: argspec.TypeStr, Choices: []string{"Prevention", "Detection"}},
					"request_body_check":               {Type: argspec.TypeBool},
					"max_request_body_size_in_kb":      {Type: argspec.TypeInt},
					"file_upload_limit_in_mb":          {Type: argspec.TypeInt},
					"request_body_inspect_limit_in_kb": {Type: argspec.TypeInt},
				},
			},
			"custom_rules": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				Key:         "name",
				Options: argspec.Spec{
					"name":      {Type: argspec.TypeStr, Required: true},
					"priority":  {Type: argspec.TypeInt, Required: true},
					"rule_type": {Type: argspec.TypeStr, Required: true, Choices: []string{"MatchRule", "RateLimitRule", "Invalid"}},
					"action":    {Type: argspec.TypeStr, Required: true, Choices: []string{"Allow", "Block", "Log"}},
					"state":     {Type: argspec.TypeStr, Choices: []string{"Enabled", "Disabled"}},
					"match_conditions": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Required: true,
						Options: argspec.Spec{
							"match_variables": {
								Type:     argspec.TypeList,
								Elements: argspec.TypeDict,
								Required: true,
								Options: argspec.Spec{
									"variable_name": {Type: argspec.TypeStr, Required: true},
									"selector":      {Type: argspec.TypeStr},
								},
							},
							"operator":     {Type: argspec.TypeStr, Required: true, Choices: wafOperators},
							"match_values": {Type: argspec.TypeList, Elements: argspec.TypeStr, Required: true},
							"negation_conditon": {
								Type:    argspec.TypeBool,
								Aliases: []string{"negation_condition"},
							},
							"transforms": {Type: argspec.TypeList, Elements: argspec.TypeStr, Choices: wafTransforms},
						},
					},
				},
			},
			"managed_rules": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"managed_rule_sets": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Required: true,
						Key:      "ruleSetType",
						Options: argspec.Spec{
							"rule_set_type":    {Type: argspec.TypeStr, Required: true},
							"rule_set_version": {Type: argspec.TypeStr, Required: true},
						},
					},
					"exclusions": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Options: argspec.Spec{
							"match_variable":          {Type: argspec.TypeStr, Required: true},
							"selector_match_operator": {Type: argspec.TypeStr, Required: true},
							"selector":                {Type: argspec.TypeStr, Required: true},
						},
					},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"managed_rules"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &WAFPolicy{newBase(c, cfg)}
		},
	})
}

// WAFPolicy manages application gateway web application firewall policies.
// Create and update are synchronous; delete is a long-running operation.
type WAFPolicy struct {
	base
}

func (w *WAFPolicy) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := w.Client.WebApplicationFirewallPoliciesClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get web application firewall policy: %w", err)
	}
	return prov.Encode(&resp.WebApplicationFirewallPolicy)
}

func (w *WAFPolicy) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.WebApplicationFirewallPolicy](body)
	if err != nil {
		return nil, err
	}
	resp, err := w.Client.WebApplicationFirewallPoliciesClient.CreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create or update web application firewall policy: %w", err)
	}
	return prov.Encode(&resp.WebApplicationFirewallPolicy)
}

func (w *WAFPolicy) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := w.Client.WebApplicationFirewallPoliciesClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, w.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete web application firewall policy: %w", err)
	}
	return nil
}

func (w *WAFPolicy) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := w.Client.WebApplicationFirewallPoliciesClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.WebApplicationFirewallPoliciesClientListResponse) []*armnetwork.WebApplicationFirewallPolicy {
		return page.Value
	})
}
