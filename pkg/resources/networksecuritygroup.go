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

const ModuleSecurityGroup = "azure_rm_securitygroup"

var securityRuleProtocols = []string{"Tcp", "Udp", "Icmp", "Esp", "Ah", "*"}

// ruleProperty is a security rule field held under the rule's properties.
func ruleProperty(t argspec.Type, def any, choices ...string) *argspec.Option {
	return &argspec.Option{Type: t, Default: def, Choices: choices, Disposition: "properties/*"}
}

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleSecurityGroup,
		Resource: "SecurityGroup",
		InfoKey:  "securitygroups",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"name":           nameOption(),
			"location":       locationOption(),
			"rules": {
				Type:        argspec.TypeList,
				Elements:    argspec.TypeDict,
				Disposition: "/properties/*",
				JSONName:    "securityRules",
				Key:         "name",
				Options: argspec.Spec{
					"name":                       {Type: argspec.TypeStr, Required: true},
					"description":                ruleProperty(argspec.TypeStr, nil),
					"protocol":                   ruleProperty(argspec.TypeStr, "*", securityRuleProtocols...),
					"source_port_range":          ruleProperty(argspec.TypeStr, "*"),
					"destination_port_range":     ruleProperty(argspec.TypeStr, "*"),
					"source_address_prefix":      ruleProperty(argspec.TypeStr, "*"),
					"destination_address_prefix": ruleProperty(argspec.TypeStr, "*"),
					"access":                     ruleProperty(argspec.TypeStr, "Allow", "Allow", "Deny"),
					"priority":                   {Type: argspec.TypeInt, Required: true, Disposition: "properties/*"},
					"direction":                  ruleProperty(argspec.TypeStr, "Inbound", "Inbound", "Outbound"),
				},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &SecurityGroup{newBase(c, cfg)}
		},
	})
}

// SecurityGroup manages network security groups with their rules inline.
type SecurityGroup struct {
	base
}

func (s *SecurityGroup) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := s.Client.SecurityGroupsClient.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get network security group: %w", err)
	}
	return prov.Encode(&resp.SecurityGroup)
}

func (s *SecurityGroup) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armnetwork.SecurityGroup](body)
	if err != nil {
		return nil, err
	}
	poller, err := s.Client.SecurityGroupsClient.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start network security group create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("network security group create or update failed: %w", err)
	}
	return prov.Encode(&resp.SecurityGroup)
}

func (s *SecurityGroup) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := s.Client.SecurityGroupsClient.BeginDelete(ctx, id.ResourceGroup, id.Name, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, s.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete network security group: %w", err)
	}
	return nil
}

func (s *SecurityGroup) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	pager := s.Client.SecurityGroupsClient.NewListPager(id.ResourceGroup, nil)
	return prov.Collect(ctx, pager, func(page armnetwork.SecurityGroupsClientListResponse) []*armnetwork.SecurityGroup {
		return page.Value
	})
}
