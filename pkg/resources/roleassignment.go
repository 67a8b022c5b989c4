// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/google/uuid"
	"k8s.io/utils/ptr"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const ModuleRoleAssignment = "azure_rm_roleassignment"

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleRoleAssignment,
		Resource: "RoleAssignment",
		InfoKey:  "roleassignments",
		Scope:    []string{"scope", "assignee_object_id"},
		Spec: argspec.Spec{
			"scope": {Type: argspec.TypeStr, Required: true},
			"name":  {Type: argspec.TypeStr},
			"role_definition_id": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				JSONName:     "roleDefinitionId",
				NotUpdatable: true,
			},
			"assignee_object_id": {
				Type:         argspec.TypeStr,
				Aliases:      []string{"assignee"},
				Disposition:  "/properties/*",
				JSONName:     "principalId",
				NotUpdatable: true,
			},
			"principal_type": {
				Type:         argspec.TypeStr,
				Disposition:  "/properties/*",
				Choices:      []string{"User", "Group", "ServicePrincipal", "ForeignGroup", "Device"},
				NotUpdatable: true,
			},
			"description":       {Type: argspec.TypeStr, Disposition: "/properties/*"},
			"condition":         {Type: argspec.TypeStr, Disposition: "/properties/*", Comparison: argspec.CompareSensitive},
			"condition_version": {Type: argspec.TypeStr, Disposition: "/properties/*"},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"role_definition_id", "assignee_object_id"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &RoleAssignment{newBase(c, cfg)}
		},
	})
}

// RoleAssignment manages role assignments at any scope. Assignments have
// UUID names; when no name is given the assignment is found by scope, role
// and assignee.
type RoleAssignment struct {
	base
}

func (r *RoleAssignment) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := r.Client.RoleAssignmentsClient.Get(ctx, id.String("scope"), id.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get role assignment: %w", err)
	}
	return prov.Encode(&resp.RoleAssignment)
}

func (r *RoleAssignment) Find(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	scope := id.String("scope")
	principalID := id.String("assignee_object_id")
	roleDefinitionID := id.String("role_definition_id")
	if principalID == "" || roleDefinitionID == "" {
		return nil, fmt.Errorf("role assignment without a name needs role_definition_id and assignee_object_id")
	}

	pager := r.Client.RoleAssignmentsClient.NewListForScopePager(scope, &armauthorization.RoleAssignmentsClientListForScopeOptions{
		Filter: to.Ptr(fmt.Sprintf("principalId eq '%s'", principalID)),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list role assignments: %w", err)
		}
		for _, ra := range page.Value {
			if ra == nil || ra.Properties == nil {
				continue
			}
			if matchesAssignment(ra.Properties, scope, principalID, roleDefinitionID) {
				return prov.Encode(ra)
			}
		}
	}
	return nil, fmt.Errorf("no role assignment of %s to %s at %s", roleDefinitionID, principalID, scope)
}

func matchesAssignment(props *armauthorization.RoleAssignmentProperties, scope, principalID, roleDefinitionID string) bool {
	return strings.EqualFold(ptr.Deref(props.Scope, ""), scope) &&
		strings.EqualFold(ptr.Deref(props.PrincipalID, ""), principalID) &&
		strings.EqualFold(ptr.Deref(props.RoleDefinitionID, ""), roleDefinitionID)
}

func (r *RoleAssignment) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armauthorization.RoleAssignmentCreateParameters](body)
	if err != nil {
		return nil, err
	}
	name := id.Name
	if name == "" {
		name = uuid.New().String()
	}
	resp, err := r.Client.RoleAssignmentsClient.Create(ctx, id.String("scope"), name, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create role assignment: %w", err)
	}
	return prov.Encode(&resp.RoleAssignment)
}

func (r *RoleAssignment) Delete(ctx context.Context, id prov.Identity) error {
	_, err := r.Client.RoleAssignmentsClient.Delete(ctx, id.String("scope"), id.Name, nil)
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete role assignment: %w", err)
	}
	return nil
}

func (r *RoleAssignment) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	var opts *armauthorization.RoleAssignmentsClientListForScopeOptions
	if assignee := id.String("assignee_object_id"); assignee != "" {
		opts = &armauthorization.RoleAssignmentsClientListForScopeOptions{
			Filter: to.Ptr(fmt.Sprintf("principalId eq '%s'", assignee)),
		}
	}
	pager := r.Client.RoleAssignmentsClient.NewListForScopePager(id.String("scope"), opts)
	return prov.Collect(ctx, pager, func(page armauthorization.RoleAssignmentsClientListForScopeResponse) []*armauthorization.RoleAssignment {
		return page.Value
	})
}
