// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	Register(&Definition{Name: "azure_rm_widget", Resource: "Widget"})
	t.Cleanup(func() { delete(registry, "azure_rm_widget") })

	def, info, ok := Lookup("azure_rm_widget")
	assert.True(t, ok)
	assert.False(t, info)
	assert.Equal(t, "Widget", def.Resource)

	def, info, ok = Lookup("azure_rm_widget_info")
	assert.True(t, ok)
	assert.True(t, info)
	assert.Equal(t, "azure_rm_widget", def.Name)

	_, _, ok = Lookup("azure_rm_gadget_info")
	assert.False(t, ok)
	assert.False(t, HasModule("azure_rm_gadget"))

	assert.Contains(t, Names(), "azure_rm_widget")
	assert.Contains(t, Names(), "azure_rm_widget_info")
}
