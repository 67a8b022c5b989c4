// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
)

// Decode converts a REST body into the SDK model T.
func Decode[T any](body map[string]any) (*T, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return &out, nil
}

// Encode converts an SDK model into its REST body.
func Encode(model any) (map[string]any, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// PollUntilDone blocks until the long-running operation finishes. A zero
// frequency uses the SDK default.
func PollUntilDone[T any](ctx context.Context, poller *runtime.Poller[T], frequency time.Duration) (T, error) {
	var opts *runtime.PollUntilDoneOptions
	if frequency > 0 {
		opts = &runtime.PollUntilDoneOptions{Frequency: frequency}
	}
	return poller.PollUntilDone(ctx, opts)
}

// Collect drains a pager and encodes every item.
func Collect[P any, E any](ctx context.Context, pager *runtime.Pager[P], items func(P) []*E) ([]map[string]any, error) {
	var out []map[string]any
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range items(page) {
			if item == nil {
				continue
			}
			m, err := Encode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}
