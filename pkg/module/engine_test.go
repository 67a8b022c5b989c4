// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package module

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/ansible"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

type mockProvisioner struct {
	mock.Mock
}

func (m *mockProvisioner) Get(ctx context.Context, id prov.Identity) (map[string]any, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(map[string]any)
	return res, args.Error(1)
}

func (m *mockProvisioner) CreateOrUpdate(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	args := m.Called(ctx, id, body)
	res, _ := args.Get(0).(map[string]any)
	return res, args.Error(1)
}

func (m *mockProvisioner) Delete(ctx context.Context, id prov.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProvisioner) List(ctx context.Context, id prov.Identity) ([]map[string]any, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).([]map[string]any)
	return res, args.Error(1)
}

type mockFinder struct {
	mockProvisioner
}

func (m *mockFinder) Find(ctx context.Context, id prov.Identity, body map[string]any) (map[string]any, error) {
	args := m.Called(ctx, id, body)
	res, _ := args.Get(0).(map[string]any)
	return res, args.Error(1)
}

type staticLocations map[string]string

func (s staticLocations) ResourceGroupLocation(_ context.Context, name string) (string, error) {
	if l, ok := s[name]; ok {
		return l, nil
	}
	return "", &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceGroupNotFound"}
}

var notFound = &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}

func widgetDefinition() *registry.Definition {
	return &registry.Definition{
		Name:     "azure_rm_widget",
		Resource: "Widget",
		InfoKey:  "widgets",
		Location: registry.LocationFromResourceGroup,
		Spec: argspec.Spec{
			"resource_group": {Type: argspec.TypeStr, Required: true},
			"name":           {Type: argspec.TypeStr, Required: true},
			"location":       {Type: argspec.TypeStr, Disposition: "/", Comparison: argspec.CompareLocation},
			"size":           {Type: argspec.TypeInt, Disposition: "/properties/*"},
			"kind":           {Type: argspec.TypeStr, Disposition: "/properties/*", NotUpdatable: true},
		},
	}
}

func existingWidget() map[string]any {
	return map[string]any{
		"id":       "/subscriptions/sub/resourceGroups/rg/providers/Test/widgets/w1",
		"name":     "w1",
		"location": "westeurope",
		"tags":     map[string]any{"owner": "ops"},
		"properties": map[string]any{
			"size":              float64(2),
			"kind":              "basic",
			"provisioningState": "Succeeded",
		},
	}
}

func connectTo(p prov.Provisioner) Connector {
	return func(context.Context, *registry.Definition, map[string]any) (*Session, error) {
		return &Session{
			SubscriptionID: "sub",
			Provisioner:    p,
			Locations:      staticLocations{"rg": "westeurope"},
		}, nil
	}
}

func widgetID() prov.Identity {
	return prov.Identity{SubscriptionID: "sub", ResourceGroup: "rg", Name: "w1"}
}

func matchID(want prov.Identity) any {
	return mock.MatchedBy(func(id prov.Identity) bool {
		return id.SubscriptionID == want.SubscriptionID && id.ResourceGroup == want.ResourceGroup &&
			id.Name == want.Name && id.Parent == want.Parent
	})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		exists bool
		state  string
		drift  bool
		want   Action
	}{
		{false, StateAbsent, false, NoAction},
		{true, StateAbsent, false, Delete},
		{true, StateAbsent, true, Delete},
		{false, StatePresent, false, Create},
		{true, StatePresent, false, NoAction},
		{true, StatePresent, true, Update},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.exists, tt.state, tt.drift), "exists=%v state=%s drift=%v", tt.exists, tt.state, tt.drift)
	}
	assert.Equal(t, "Update", Update.String())
}

func TestExecute_CreateFillsLocationFromResourceGroup(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(nil, notFound)
	p.On("CreateOrUpdate", mock.Anything, matchID(widgetID()), map[string]any{
		"location":   "westeurope",
		"properties": map[string]any{"size": 3},
	}).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"size":           3,
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	assert.Equal(t, "/subscriptions/sub/resourceGroups/rg/providers/Test/widgets/w1", result.ID)
	assert.Equal(t, "Succeeded", result.State["properties"].(map[string]any)["provisioning_state"])
	p.AssertExpectations(t)
}

func TestExecute_NoDriftIsNoop(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"location":       "West Europe",
		"size":           2,
		"tags":           map[string]any{"owner": "ops"},
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.False(t, result.Changed)
	assert.Equal(t, "w1", result.State["name"])
	p.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_DriftUpdates(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	p.On("CreateOrUpdate", mock.Anything, matchID(widgetID()), mock.MatchedBy(func(b map[string]any) bool {
		props := b["properties"].(map[string]any)
		tags := b["tags"].(map[string]any)
		return props["size"] == 5 && tags["owner"] == "ops" && tags["env"] == "dev"
	})).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"size":           5,
		"tags":           map[string]any{"env": "dev"},
	}, ansible.Invocation{Diff: true}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	assert.NotEmpty(t, result.Compare)
	require.NotNil(t, result.Diff)
	assert.Equal(t, "w1", result.Diff.Before["name"])
	p.AssertExpectations(t)
}

func TestExecute_UpdateKeepsLiveTags(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	p.On("CreateOrUpdate", mock.Anything, matchID(widgetID()), mock.MatchedBy(func(b map[string]any) bool {
		tags, ok := b["tags"].(map[string]any)
		return ok && tags["owner"] == "ops" && b["properties"].(map[string]any)["size"] == 7
	})).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"size":           7,
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	p.AssertExpectations(t)
}

func TestExecute_TagsWithoutAppendDetectsRemoval(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	p.On("CreateOrUpdate", mock.Anything, matchID(widgetID()), mock.Anything).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"tags":           map[string]any{},
		"append_tags":    false,
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
}

func TestExecute_NotUpdatableDriftWarns(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"kind":           "premium",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.False(t, result.Changed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "/properties/kind")
}

func TestExecute_CheckModeDoesNotMutate(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(nil, notFound)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"location":       "northeurope",
	}, ansible.Invocation{CheckMode: true, Diff: true}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	assert.Equal(t, map[string]any{}, result.Diff.Before)
	assert.Equal(t, "northeurope", result.Diff.After["location"])
	p.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything)

	p = &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	result = Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"state":          "absent",
	}, ansible.Invocation{CheckMode: true}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	p.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestExecute_AbsentOnMissingIsNoop(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(nil, errors.New("anything at all"))

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"state":          "absent",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.False(t, result.Changed)
	p.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestExecute_Delete(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	p.On("Delete", mock.Anything, matchID(widgetID())).Return(nil)

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"state":          "absent",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	assert.Nil(t, result.State)
	p.AssertExpectations(t)
}

func TestExecute_MutationErrorsFail(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(nil, notFound)
	p.On("CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &azcore.ResponseError{StatusCode: http.StatusConflict, ErrorCode: "Conflict"})

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
	}, ansible.Invocation{}, connectTo(p))

	assert.True(t, result.Failed)
	assert.Contains(t, result.Msg, "Error creating the Widget instance")
	assert.Equal(t, string(resource.OperationErrorCodeResourceConflict), result.ErrorCode)

	p = &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)
	p.On("Delete", mock.Anything, mock.Anything).Return(errors.New("boom"))

	result = Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"state":          "absent",
	}, ansible.Invocation{}, connectTo(p))

	assert.True(t, result.Failed)
	assert.Equal(t, "Error deleting the Widget instance: boom", result.Msg)
}

func TestExecute_LocationLookupFailure(t *testing.T) {
	p := &mockProvisioner{}

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "missing",
		"name":           "w1",
	}, ansible.Invocation{}, connectTo(p))

	assert.True(t, result.Failed)
	assert.Equal(t, string(resource.OperationErrorCodeNotFound), result.ErrorCode)
	p.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestExecute_DefaultLocation(t *testing.T) {
	def := widgetDefinition()
	def.Location = registry.LocationDefault
	def.DefaultLocation = "global"

	p := &mockProvisioner{}
	p.On("Get", mock.Anything, mock.Anything).Return(nil, notFound)
	p.On("CreateOrUpdate", mock.Anything, mock.Anything, mock.MatchedBy(func(b map[string]any) bool {
		return b["location"] == "global"
	})).Return(existingWidget(), nil)

	result := Execute(context.Background(), def, false, map[string]any{"resource_group": "rg", "name": "w1"},
		ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	p.AssertExpectations(t)
}

func TestExecute_FinderLocatesUnnamedResource(t *testing.T) {
	p := &mockFinder{}
	found := existingWidget()
	p.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(found, nil)
	p.On("Delete", mock.Anything, matchID(widgetID())).Return(nil)

	def := widgetDefinition()
	def.Spec["name"] = &argspec.Option{Type: argspec.TypeStr}

	result := Execute(context.Background(), def, false, map[string]any{
		"resource_group": "rg",
		"state":          "absent",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.True(t, result.Changed)
	p.AssertExpectations(t)
}

func TestExecute_InvalidArguments(t *testing.T) {
	called := false
	connect := func(context.Context, *registry.Definition, map[string]any) (*Session, error) {
		called = true
		return nil, nil
	}

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"name":   "w1",
		"secret": "s3cret",
	}, ansible.Invocation{}, connect)

	assert.True(t, result.Failed)
	assert.Equal(t, "missing required arguments: resource_group", result.Msg)
	assert.Equal(t, argspec.NoLogValue, result.Invocation.ModuleArgs["secret"])
	assert.False(t, called)
}

func TestExecute_ConnectFailure(t *testing.T) {
	connect := func(context.Context, *registry.Definition, map[string]any) (*Session, error) {
		return nil, errors.New("AuthenticationFailed")
	}

	result := Execute(context.Background(), widgetDefinition(), false, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
		"secret":         "s3cret",
	}, ansible.Invocation{}, connect)

	assert.True(t, result.Failed)
	assert.Equal(t, string(resource.OperationErrorCodeInvalidCredentials), result.ErrorCode)
	assert.Equal(t, argspec.NoLogValue, result.Invocation.ModuleArgs["secret"])
}

func TestExecute_InfoByName(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, matchID(widgetID())).Return(existingWidget(), nil)

	result := Execute(context.Background(), widgetDefinition(), true, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.False(t, result.Changed)
	items := result.Facts["widgets"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "w1", items[0].(map[string]any)["name"])
}

func TestExecute_InfoMissingIsEmpty(t *testing.T) {
	p := &mockProvisioner{}
	p.On("Get", mock.Anything, mock.Anything).Return(nil, notFound)

	result := Execute(context.Background(), widgetDefinition(), true, map[string]any{
		"resource_group": "rg",
		"name":           "w1",
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	assert.Equal(t, []any{}, result.Facts["widgets"])
}

func TestExecute_InfoListFiltersTags(t *testing.T) {
	other := existingWidget()
	other["name"] = "w2"
	other["tags"] = map[string]any{"owner": "dev"}

	p := &mockProvisioner{}
	p.On("List", mock.Anything, mock.Anything).Return([]map[string]any{existingWidget(), other}, nil)

	result := Execute(context.Background(), widgetDefinition(), true, map[string]any{
		"resource_group": "rg",
		"tags":           []any{"owner:ops"},
	}, ansible.Invocation{}, connectTo(p))

	require.False(t, result.Failed, result.Msg)
	items := result.Facts["widgets"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "w1", items[0].(map[string]any)["name"])
}

func TestExecute_InfoRejectsResourceOptions(t *testing.T) {
	result := Execute(context.Background(), widgetDefinition(), true, map[string]any{
		"resource_group": "rg",
		"size":           3,
	}, ansible.Invocation{}, connectTo(&mockProvisioner{}))

	assert.True(t, result.Failed)
	assert.Contains(t, result.Msg, "Unsupported parameters for (azure_rm_widget_info) module: size")
}

func TestMatchTags(t *testing.T) {
	item := map[string]any{"tags": map[string]any{"env": "prod", "team": "a"}}
	assert.True(t, matchTags(item, nil))
	assert.True(t, matchTags(item, []string{"env"}))
	assert.True(t, matchTags(item, []string{"env:prod", "team:a"}))
	assert.False(t, matchTags(item, []string{"env:dev"}))
	assert.False(t, matchTags(map[string]any{}, []string{"env"}))
}
