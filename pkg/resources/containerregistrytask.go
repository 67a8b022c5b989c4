// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"k8s.io/utils/ptr"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

const (
	ModuleContainerRegistryTask = "azure_rm_containerregistrytask"

	taskResourceType = "Microsoft.ContainerRegistry/registries/tasks"
	// Tasks are only served by the preview API; the stable registry client
	// has no tasks operations.
	taskAPIVersion = "2019-06-01-preview"
)

func triggerStatusOption() *argspec.Option {
	return &argspec.Option{Type: argspec.TypeStr, Default: "Enabled", Choices: []string{"Enabled", "Disabled"}}
}

func init() {
	registry.Register(&registry.Definition{
		Name:     ModuleContainerRegistryTask,
		Resource: "Task",
		InfoKey:  "tasks",
		Parent:   "registry_name",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": resourceGroupOption(),
			"registry_name": {
				Type:     argspec.TypeStr,
				Required: true,
				Aliases:  []string{"registry"},
			},
			"name":     nameOption(),
			"location": locationOption(),
			"platform": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"os": {
						Type:    argspec.TypeStr,
						Default: "Linux",
						Choices: []string{"Linux", "Windows"},
					},
					"architecture": {
						Type:    argspec.TypeStr,
						Default: "amd64",
						Choices: []string{"amd64", "x86", "386", "arm", "arm64"},
					},
					"variant": {Type: argspec.TypeStr, Choices: []string{"v6", "v7", "v8"}},
				},
			},
			"agent_configuration": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"cpu": {Type: argspec.TypeInt},
				},
			},
			"timeout": {
				Type:        argspec.TypeInt,
				Default:     3600,
				Disposition: "/properties/*",
			},
			"status": {
				Type:        argspec.TypeStr,
				Default:     "Enabled",
				Disposition: "/properties/*",
				Choices:     []string{"Enabled", "Disabled"},
			},
			"step": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"type": {
						Type:     argspec.TypeStr,
						Required: true,
						Choices:  []string{"Docker", "FileTask", "EncodedTask"},
					},
					"context_path": {Type: argspec.TypeStr, Comparison: argspec.CompareSensitive},
					"context_access_token": {
						Type:       argspec.TypeStr,
						NoLog:      true,
						Comparison: argspec.CompareIgnore,
					},
					"docker_file_path": {Type: argspec.TypeStr, Comparison: argspec.CompareSensitive},
					"image_names":      {Type: argspec.TypeList, Elements: argspec.TypeStr},
					"is_push_enabled":  {Type: argspec.TypeBool},
					"no_cache":         {Type: argspec.TypeBool},
					"target":           {Type: argspec.TypeStr},
					"task_file_path":   {Type: argspec.TypeStr, Comparison: argspec.CompareSensitive},
					"values_file_path": {Type: argspec.TypeStr, Comparison: argspec.CompareSensitive},
					"encoded_task_content": {
						Type:       argspec.TypeStr,
						Comparison: argspec.CompareSensitive,
					},
				},
			},
			"trigger": {
				Type:        argspec.TypeDict,
				Disposition: "/properties/*",
				Options: argspec.Spec{
					"base_image_trigger": {
						Type: argspec.TypeDict,
						Options: argspec.Spec{
							"name": {Type: argspec.TypeStr, Required: true},
							"base_image_trigger_type": {
								Type:    argspec.TypeStr,
								Default: "Runtime",
								Choices: []string{"All", "Runtime"},
							},
							"status": triggerStatusOption(),
						},
					},
					"timer_triggers": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Options: argspec.Spec{
							"name":     {Type: argspec.TypeStr, Required: true},
							"schedule": {Type: argspec.TypeStr, Required: true},
							"status":   triggerStatusOption(),
						},
					},
					"source_triggers": {
						Type:     argspec.TypeList,
						Elements: argspec.TypeDict,
						Options: argspec.Spec{
							"name": {Type: argspec.TypeStr, Required: true},
							"source_repository": {
								Type:     argspec.TypeDict,
								Required: true,
								Options: argspec.Spec{
									"source_control_type": {
										Type:     argspec.TypeStr,
										Required: true,
										Choices:  []string{"Github", "VisualStudioTeamService"},
									},
									"repository_url": {Type: argspec.TypeStr, Required: true, Comparison: argspec.CompareSensitive},
									"branch":         {Type: argspec.TypeStr},
								},
							},
							"source_trigger_events": {
								Type:     argspec.TypeList,
								Elements: argspec.TypeStr,
								Required: true,
								Choices:  []string{"commit", "pullrequest"},
							},
							"status": triggerStatusOption(),
						},
					},
				},
			},
		},
		Constraints: argspec.Constraints{
			RequiredIf: []argspec.RequiredIf{
				{Key: "state", Value: "present", Requires: []string{"platform", "step"}},
			},
		},
		Factory: func(c *client.Client, cfg *config.Config) prov.Provisioner {
			return &ContainerRegistryTask{newBase(c, cfg)}
		},
	})
}

// ContainerRegistryTask manages ACR tasks through the generic resources API.
type ContainerRegistryTask struct {
	base
}

func (t *ContainerRegistryTask) registryID(id prov.Identity) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.ContainerRegistry/registries/%s",
		id.SubscriptionID, id.ResourceGroup, id.Parent)
}

func (t *ContainerRegistryTask) taskID(id prov.Identity) string {
	return t.registryID(id) + "/tasks/" + id.Name
}

func (t *ContainerRegistryTask) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	resp, err := t.Client.ResourcesClient.GetByID(ctx, t.taskID(id), taskAPIVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get container registry task: %w", err)
	}
	return prov.Encode(&resp.GenericResource)
}

func (t *ContainerRegistryTask) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	params, err := prov.Decode[armresources.GenericResource](body)
	if err != nil {
		return nil, err
	}
	poller, err := t.Client.ResourcesClient.BeginCreateOrUpdateByID(ctx, t.taskID(id), taskAPIVersion, *params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start container registry task create or update: %w", err)
	}
	resp, err := prov.PollUntilDone(ctx, poller, t.Config.PollFrequency)
	if err != nil {
		return nil, fmt.Errorf("container registry task create or update failed: %w", err)
	}
	return prov.Encode(&resp.GenericResource)
}

func (t *ContainerRegistryTask) Delete(ctx context.Context, id prov.Identity) error {
	poller, err := t.Client.ResourcesClient.BeginDeleteByID(ctx, t.taskID(id), taskAPIVersion, nil)
	if err == nil {
		_, err = prov.PollUntilDone(ctx, poller, t.Config.PollFrequency)
	}
	if err = prov.IgnoreNotFound(err); err != nil {
		return fmt.Errorf("failed to delete container registry task: %w", err)
	}
	return nil
}

// List finds the registry's tasks among the resource group's resources and
// reads each one, since the listing carries no properties.
func (t *ContainerRegistryTask) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	prefix := strings.ToLower(t.registryID(id) + "/tasks/")
	pager := t.Client.ResourcesClient.NewListByResourceGroupPager(id.ResourceGroup, &armresources.ClientListByResourceGroupOptions{
		Filter: to.Ptr(fmt.Sprintf("resourceType eq '%s'", taskResourceType)),
	})

	var out []map[string]any
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list container registry tasks: %w", err)
		}
		for _, r := range page.Value {
			if r == nil || r.ID == nil || !strings.HasPrefix(strings.ToLower(*r.ID), prefix) {
				continue
			}
			resp, err := t.Client.ResourcesClient.GetByID(ctx, *r.ID, taskAPIVersion, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to get container registry task %s: %w", ptr.Deref(r.Name, ""), err)
			}
			m, err := prov.Encode(&resp.GenericResource)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}
