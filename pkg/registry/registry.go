// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"sort"
	"strings"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
)

// InfoSuffix turns a module name into the name of its read-only variant.
const InfoSuffix = "_info"

// ProvisionerFactory is a function that creates a Provisioner instance.
type ProvisionerFactory func(client *client.Client, cfg *config.Config) prov.Provisioner

// LocationMode controls how a missing location argument is filled in.
type LocationMode int

const (
	// LocationNone means the resource has no location of its own.
	LocationNone LocationMode = iota
	// LocationFromResourceGroup uses the location of the resource group.
	LocationFromResourceGroup
	// LocationDefault uses Definition.DefaultLocation.
	LocationDefault
)

// Definition describes one module.
type Definition struct {
	// Name is the module name, such as azure_rm_actiongroup.
	Name string
	// Resource names the resource in messages, such as "ActionGroup".
	Resource string
	// Spec holds the resource options. The common state, tags and
	// authentication options are added by the engine.
	Spec        argspec.Spec
	Constraints argspec.Constraints
	// Parent is the option naming the parent resource of child resources.
	Parent string
	// Scope lists further identifying options read by the provisioner and
	// accepted by the info module.
	Scope           []string
	Location        LocationMode
	DefaultLocation string
	// InfoKey is the result key holding the items of the info module.
	InfoKey string
	Factory ProvisionerFactory
}

// registry stores module definitions by module name.
var registry = make(map[string]*Definition)

// Register registers a module definition.
func Register(def *Definition) {
	registry[def.Name] = def
}

// Lookup returns the definition serving a module name and whether the name
// refers to the info variant.
func Lookup(name string) (def *Definition, info bool, ok bool) {
	if def, ok := registry[name]; ok {
		return def, false, true
	}
	if base, found := strings.CutSuffix(name, InfoSuffix); found {
		if def, ok := registry[base]; ok {
			return def, true, true
		}
	}
	return nil, false, false
}

// HasModule returns true if a definition serves the module name.
func HasModule(name string) bool {
	_, _, ok := Lookup(name)
	return ok
}

// Names returns every module name, info variants included, sorted.
func Names() []string {
	names := make([]string, 0, 2*len(registry))
	for name := range registry {
		names = append(names, name, name+InfoSuffix)
	}
	sort.Strings(names)
	return names
}
