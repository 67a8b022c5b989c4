// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
)

// base is embedded by every provisioner.
type base struct {
	Client *client.Client
	Config *config.Config
}

// newBase returns the fields shared by provisioners.
func newBase(c *client.Client, cfg *config.Config) base {
	return base{Client: c, Config: cfg}
}

// Options shared by many resource specs.

func nameOption() *argspec.Option {
	return &argspec.Option{Type: argspec.TypeStr, Required: true}
}

func resourceGroupOption() *argspec.Option {
	return &argspec.Option{Type: argspec.TypeStr, Required: true}
}

func locationOption() *argspec.Option {
	return &argspec.Option{
		Type:         argspec.TypeStr,
		Disposition:  "/",
		Comparison:   argspec.CompareLocation,
		NotUpdatable: true,
	}
}

// skuOption is the {name, tier, capacity} SKU found on most resources.
func skuOption(names ...string) *argspec.Option {
	return &argspec.Option{
		Type:        argspec.TypeDict,
		Disposition: "/",
		JSONName:    "sku",
		Options: argspec.Spec{
			"name":     {Type: argspec.TypeStr, Required: true, Choices: names},
			"tier":     {Type: argspec.TypeStr},
			"capacity": {Type: argspec.TypeInt},
		},
	}
}

// idPattern builds the expansion pattern of a resource ID argument that may be
// given as a bare name in the module's resource group.
func idPattern(provider string) string {
	return "/subscriptions/{subscription_id}/resourceGroups/{resource_group}/providers/" + provider + "/{name}"
}
