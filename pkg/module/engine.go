// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package module runs a registered module: it validates arguments, reads the
// live resource, decides what to do and reports the outcome.
package module

import (
	"context"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/ansible"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/argspec"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/body"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/prov"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

// LocationResolver looks up resource group locations.
type LocationResolver interface {
	ResourceGroupLocation(ctx context.Context, name string) (string, error)
}

// Session is the Azure side of a run.
type Session struct {
	SubscriptionID string
	Provisioner    prov.Provisioner
	Locations      LocationResolver
}

// Connector opens a Session from validated module arguments.
type Connector func(ctx context.Context, def *registry.Definition, params map[string]any) (*Session, error)

// Spec returns the argument spec of the present/absent module of def.
func Spec(def *registry.Definition) argspec.Spec {
	return argspec.Merge(argspec.AuthOptions(), argspec.ResourceOptions(), def.Spec)
}

// InfoSpec returns the argument spec of the info module of def. It accepts
// the identifying options of def, with name made optional.
func InfoSpec(def *registry.Definition) argspec.Spec {
	spec := argspec.Merge(argspec.AuthOptions(), argspec.InfoOptions())
	for _, key := range identityOptions(def) {
		opt, ok := def.Spec[key]
		if !ok {
			continue
		}
		copied := *opt
		if key == "name" {
			copied.Required = false
		}
		spec[key] = &copied
	}
	return spec
}

func identityOptions(def *registry.Definition) []string {
	keys := []string{"name", "resource_group"}
	if def.Parent != "" {
		keys = append(keys, def.Parent)
	}
	return append(keys, def.Scope...)
}

// Execute runs the module described by def against raw arguments.
func Execute(ctx context.Context, def *registry.Definition, info bool, args map[string]any, inv ansible.Invocation, connect Connector) *ansible.Result {
	name, spec, constraints := def.Name, Spec(def), def.Constraints
	if info {
		name, spec, constraints = def.Name+registry.InfoSuffix, InfoSpec(def), argspec.Constraints{}
	}

	result := &ansible.Result{}
	params, err := argspec.Validate(name, spec, constraints, args)
	if err != nil {
		result.Invocation = &ansible.ModuleInvocation{ModuleArgs: argspec.Mask(spec, args)}
		return result.Fail("%s", err)
	}
	result.Invocation = &ansible.ModuleInvocation{ModuleArgs: argspec.Mask(spec, params)}

	session, err := connect(ctx, def, params)
	if err != nil {
		result.ErrorCode = string(prov.ClassifyError(err))
		return result.Fail("failed to connect to Azure: %s", err)
	}

	r := &runner{def: def, spec: spec, session: session, inv: inv}
	if info {
		r.info(ctx, params, result)
	} else {
		r.apply(ctx, params, result)
	}
	return result
}

type runner struct {
	def     *registry.Definition
	spec    argspec.Spec
	session *Session
	inv     ansible.Invocation
}

func (r *runner) identity(params map[string]any) prov.Identity {
	id := prov.Identity{SubscriptionID: r.session.SubscriptionID, Params: params}
	id.ResourceGroup, _ = params["resource_group"].(string)
	id.Name, _ = params["name"].(string)
	if r.def.Parent != "" {
		id.Parent, _ = params[r.def.Parent].(string)
	}
	return id
}

func (r *runner) apply(ctx context.Context, params map[string]any, result *ansible.Result) {
	log := logger.FromContext(ctx)
	id := r.identity(params)
	state, _ := params["state"].(string)

	desired := body.Inflate(r.spec, params, body.Scope{SubscriptionID: id.SubscriptionID, ResourceGroup: id.ResourceGroup})
	if state == StatePresent {
		if err := r.fillLocation(ctx, id, desired); err != nil {
			result.ErrorCode = string(prov.ClassifyError(err))
			result.Fail("%s", err)
			return
		}
	}

	old, err := r.read(ctx, id, desired)
	if err != nil {
		log.Debugw("resource not readable, treating as absent",
			"resource", r.def.Resource, "name", id.Name, "error_code", prov.ClassifyError(err), "error", err)
		old = nil
	}
	exists := old != nil

	drift := false
	if exists && state == StatePresent {
		tagsDrift := reconcileTags(desired, old, params["append_tags"] != false)
		cmpr := body.NewComparer(r.spec)
		drift = !cmpr.Equal(desired, old) || tagsDrift
		result.Compare = cmpr.Changes
		for _, w := range cmpr.Warnings {
			result.Warn("%s", w)
		}
	}

	action := Decide(exists, state, drift)
	log.Infow("resolved action",
		"resource", r.def.Resource, "name", id.Name, "exists", exists, "drift", drift, "action", action.String(), "check_mode", r.inv.CheckMode)

	var after map[string]any
	switch action {
	case Create, Update:
		result.Changed = true
		if r.inv.CheckMode {
			after = desired
			result.State = body.SnakeMap(old)
			break
		}
		if exists && id.Name == "" {
			id.Name, _ = old["name"].(string)
		}
		resp, err := r.session.Provisioner.CreateOrUpdate(ctx, id, desired)
		if err != nil {
			verb := "creating"
			if action == Update {
				verb = "updating"
			}
			log.Errorw("create or update failed", "resource", r.def.Resource, "name", id.Name, "error", err)
			result.ErrorCode = string(prov.ClassifyError(err))
			result.Fail("Error %s the %s instance: %s", verb, r.def.Resource, err)
			return
		}
		after = resp
		result.State = body.SnakeMap(resp)
	case Delete:
		result.Changed = true
		if !r.inv.CheckMode {
			if name, ok := old["name"].(string); ok && id.Name == "" {
				id.Name = name
			}
			if err := r.session.Provisioner.Delete(ctx, id); err != nil {
				log.Errorw("delete failed", "resource", r.def.Resource, "name", id.Name, "error", err)
				result.ErrorCode = string(prov.ClassifyError(err))
				result.Fail("Error deleting the %s instance: %s", r.def.Resource, err)
				return
			}
		}
	default:
		after = old
		result.State = body.SnakeMap(old)
	}

	result.ID = resourceID(after, old)
	if r.inv.Diff {
		result.Diff = &ansible.Diff{Before: snakeOrEmpty(old), After: snakeOrEmpty(after)}
	}
}

func (r *runner) read(ctx context.Context, id prov.Identity, desired map[string]any) (map[string]any, error) {
	if finder, ok := r.session.Provisioner.(prov.Finder); ok && id.Name == "" {
		return finder.Find(ctx, id, desired)
	}
	return r.session.Provisioner.Get(ctx, id)
}

func (r *runner) fillLocation(ctx context.Context, id prov.Identity, desired map[string]any) error {
	if _, ok := desired["location"]; ok {
		return nil
	}
	switch r.def.Location {
	case registry.LocationDefault:
		desired["location"] = r.def.DefaultLocation
	case registry.LocationFromResourceGroup:
		if id.ResourceGroup == "" || r.session.Locations == nil {
			return nil
		}
		location, err := r.session.Locations.ResourceGroupLocation(ctx, id.ResourceGroup)
		if err != nil {
			return err
		}
		desired["location"] = location
	}
	return nil
}

func (r *runner) info(ctx context.Context, params map[string]any, result *ansible.Result) {
	log := logger.FromContext(ctx)
	id := r.identity(params)

	var items []map[string]any
	if id.Name != "" {
		item, err := r.session.Provisioner.Get(ctx, id)
		if err != nil {
			log.Debugw("resource not found", "resource", r.def.Resource, "name", id.Name, "error_code", prov.ClassifyError(err))
		} else if item != nil {
			items = append(items, item)
		}
	} else {
		listed, err := r.session.Provisioner.List(ctx, id)
		if err != nil {
			result.ErrorCode = string(prov.ClassifyError(err))
			result.Fail("Error listing %s instances: %s", r.def.Resource, err)
			return
		}
		items = listed
	}

	var filters []string
	if tags, ok := params["tags"].([]any); ok {
		for _, t := range tags {
			filters = append(filters, t.(string))
		}
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		if matchTags(item, filters) {
			out = append(out, body.SnakeMap(item))
		}
	}
	log.Debugw("listed resources", "resource", r.def.Resource, "count", len(out))
	result.Facts = map[string]any{r.def.InfoKey: out}
}

// reconcileTags merges the live tags into the desired ones when appending and
// reports whether the tags differ.
func reconcileTags(desired, existing map[string]any, appendTags bool) bool {
	want, ok := desired["tags"].(map[string]any)
	if !ok {
		return false
	}
	have, _ := existing["tags"].(map[string]any)
	if appendTags {
		merged := make(map[string]any, len(have)+len(want))
		for k, v := range have {
			merged[k] = v
		}
		for k, v := range want {
			merged[k] = v
		}
		want = merged
		desired["tags"] = merged
	}
	return !cmp.Equal(want, have, cmpopts.EquateEmpty())
}

// matchTags reports whether item carries every "key" or "key:value" filter.
func matchTags(item map[string]any, filters []string) bool {
	tags, _ := item["tags"].(map[string]any)
	for _, f := range filters {
		key, value, hasValue := strings.Cut(f, ":")
		got, ok := tags[key]
		if !ok {
			return false
		}
		if hasValue && got != value {
			return false
		}
	}
	return true
}

func resourceID(maps ...map[string]any) string {
	for _, m := range maps {
		if id, ok := m["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

func snakeOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return body.SnakeMap(m)
}
