// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestOptionsLevel(t *testing.T) {
	tests := []struct {
		opts Options
		want zapcore.Level
	}{
		{Options{}, zapcore.WarnLevel},
		{Options{Verbosity: 1}, zapcore.InfoLevel},
		{Options{Verbosity: 4}, zapcore.DebugLevel},
		{Options{Level: "error", Verbosity: 4}, zapcore.ErrorLevel},
		{Options{Level: "nonsense", Verbosity: 1}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.opts.level())
	}
}

func TestNew_WritesToStderrAndFile(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "azure-rm.log")

	l, done, err := New("azure_rm_resourcegroup", Options{Level: "info", Path: path, Stderr: &stderr})
	require.NoError(t, err)

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Infow("resource state", "exists", true)
	FromContext(ctx).Debugw("hidden")
	done()

	assert.Contains(t, stderr.String(), "resource state")
	assert.NotContains(t, stderr.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"module":"azure_rm_resourcegroup"`)
	assert.Contains(t, string(data), `"run":`)
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
