// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want resource.OperationErrorCode
	}{
		{"nil", nil, ""},
		{"response 404", &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}, resource.OperationErrorCodeNotFound},
		{"wrapped response 403", fmt.Errorf("get: %w", &azcore.ResponseError{StatusCode: http.StatusForbidden}), resource.OperationErrorCodeAccessDenied},
		{"response 409", &azcore.ResponseError{StatusCode: http.StatusConflict}, resource.OperationErrorCodeResourceConflict},
		{"response 429", &azcore.ResponseError{StatusCode: http.StatusTooManyRequests}, resource.OperationErrorCodeThrottling},
		{"response 503", &azcore.ResponseError{StatusCode: http.StatusServiceUnavailable}, resource.OperationErrorCodeServiceInternalError},
		{"response quota", &azcore.ResponseError{StatusCode: http.StatusBadRequest, ErrorCode: "QuotaExceeded"}, resource.OperationErrorCodeServiceLimitExceeded},
		{"response 400", &azcore.ResponseError{StatusCode: http.StatusBadRequest, ErrorCode: "InvalidParameter"}, resource.OperationErrorCodeInvalidRequest},
		{"deadline", fmt.Errorf("poll: %w", context.DeadlineExceeded), resource.OperationErrorCodeServiceTimeout},
		{"message not found", errors.New("ResourceGroupNotFound: rg"), resource.OperationErrorCodeNotFound},
		{"message auth", errors.New("InvalidAuthenticationToken"), resource.OperationErrorCodeInvalidCredentials},
		{"message dial", errors.New("dial tcp: lookup management.azure.com"), resource.OperationErrorCodeNetworkFailure},
		{"unknown", errors.New("something odd"), resource.OperationErrorCodeGeneralServiceException},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestIgnoreNotFound(t *testing.T) {
	assert.NoError(t, IgnoreNotFound(&azcore.ResponseError{StatusCode: http.StatusNotFound}))
	assert.Error(t, IgnoreNotFound(&azcore.ResponseError{StatusCode: http.StatusConflict}))
	assert.NoError(t, IgnoreNotFound(nil))
}

func TestDecodeEncode(t *testing.T) {
	rg, err := Decode[armresources.ResourceGroup](map[string]any{
		"location":   "westeurope",
		"tags":       map[string]any{"env": "dev"},
		"managedBy":  "someone",
		"properties": map[string]any{},
	})
	require.NoError(t, err)
	require.NotNil(t, rg.Location)
	assert.Equal(t, "westeurope", *rg.Location)
	assert.Equal(t, "dev", *rg.Tags["env"])

	rg.ID = to.Ptr("/subscriptions/sub/resourceGroups/rg")
	out, err := Encode(rg)
	require.NoError(t, err)
	assert.Equal(t, "/subscriptions/sub/resourceGroups/rg", out["id"])
	assert.Equal(t, "westeurope", out["location"])
	assert.Equal(t, map[string]any{"env": "dev"}, out["tags"])
}

func TestDecode_RejectsWrongTypes(t *testing.T) {
	_, err := Decode[armresources.ResourceGroup](map[string]any{"location": 5})
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	pages := [][]*armresources.ResourceGroup{
		{{Name: to.Ptr("a")}, nil},
		{{Name: to.Ptr("b")}},
	}
	calls := 0
	pager := runtime.NewPager(runtime.PagingHandler[armresources.ResourceGroupsClientListResponse]{
		More: func(page armresources.ResourceGroupsClientListResponse) bool {
			return calls < len(pages)
		},
		Fetcher: func(ctx context.Context, page *armresources.ResourceGroupsClientListResponse) (armresources.ResourceGroupsClientListResponse, error) {
			resp := armresources.ResourceGroupsClientListResponse{}
			resp.Value = pages[calls]
			calls++
			return resp, nil
		},
	})

	items, err := Collect(context.Background(), pager, func(page armresources.ResourceGroupsClientListResponse) []*armresources.ResourceGroup {
		return page.Value
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0]["name"])
	assert.Equal(t, "b", items[1]["name"])
}

func TestIdentityAccessors(t *testing.T) {
	id := Identity{Params: map[string]any{"scope": "/subscriptions/x", "force": true, "count": 3}}
	assert.Equal(t, "/subscriptions/x", id.String("scope"))
	assert.Equal(t, "", id.String("count"))
	assert.True(t, id.Bool("force"))
	assert.False(t, id.Bool("missing"))
}
