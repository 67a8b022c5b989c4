// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
)

// Identity locates one Azure resource.
type Identity struct {
	SubscriptionID string
	ResourceGroup  string
	// Parent is the name of the parent resource for child resources, such as
	// the cluster of an agent pool or the server of a database.
	Parent string
	Name   string
	// Params are the validated module arguments, for settings that are not
	// part of the request body.
	Params map[string]any
}

// String returns a string parameter, or "".
func (id Identity) String(key string) string {
	s, _ := id.Params[key].(string)
	return s
}

// Bool returns a boolean parameter, or false.
func (id Identity) Bool(key string) bool {
	b, _ := id.Params[key].(bool)
	return b
}

// Provisioner performs the Azure calls of one resource type. Bodies are
// JSON objects in the REST shape of the resource.
type Provisioner interface {
	// Get returns the resource, or an error when it cannot be read.
	Get(ctx context.Context, id Identity) (map[string]any, error)
	// CreateOrUpdate PUTs the resource and waits for any long-running
	// operation to finish.
	CreateOrUpdate(ctx context.Context, id Identity, body map[string]any) (map[string]any, error)
	// Delete removes the resource and waits for completion. A resource that
	// is already gone is not an error.
	Delete(ctx context.Context, id Identity) error
	// List returns every resource in the scope of id; Name is ignored.
	List(ctx context.Context, id Identity) ([]map[string]any, error)
}

// Finder is implemented by provisioners whose resources can be located
// without a name, from the desired body.
type Finder interface {
	Find(ctx context.Context, id Identity, body map[string]any) (map[string]any, error)
}
