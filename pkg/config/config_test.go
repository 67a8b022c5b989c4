// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credentialsFile = `[default]
subscription_id = file-default-sub

[staging]
subscription_id = file-staging-sub
client_id = file-client
secret = file-secret
tenant = file-tenant
`

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AZURE_CONFIG_DIR", dir)
	for _, s := range settings {
		t.Setenv(s.env, "")
	}
	return dir
}

func TestLoad_ArgumentsWin(t *testing.T) {
	isolate(t)
	t.Setenv("AZURE_SUBSCRIPTION_ID", "env-sub")

	cfg, err := Load(map[string]any{"subscription_id": "arg-sub", "polling_interval": 5})
	require.NoError(t, err)

	assert.Equal(t, "arg-sub", cfg.SubscriptionID)
	assert.Equal(t, AuthSourceAuto, cfg.AuthSource)
	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "AzureCloud", cfg.CloudEnvironment)
	assert.Equal(t, 5*time.Second, cfg.PollFrequency)
}

func TestLoad_EnvironmentBeforeFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials"), []byte(credentialsFile), 0o600))
	t.Setenv("AZURE_SUBSCRIPTION_ID", "env-sub")
	t.Setenv("AZURE_PROFILE", "staging")

	cfg, err := Load(map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "env-sub", cfg.SubscriptionID)
	assert.Equal(t, "staging", cfg.Profile)
	assert.Equal(t, "file-client", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.Secret)
	assert.Equal(t, "file-tenant", cfg.TenantID)
}

func TestLoad_CredentialFileSourceIgnoresEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials"), []byte(credentialsFile), 0o600))
	t.Setenv("AZURE_SUBSCRIPTION_ID", "env-sub")

	cfg, err := Load(map[string]any{"auth_source": "credential_file", "profile": "staging"})
	require.NoError(t, err)
	assert.Equal(t, "file-staging-sub", cfg.SubscriptionID)
}

func TestLoad_EnvSourceIgnoresFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials"), []byte(credentialsFile), 0o600))

	cfg, err := Load(map[string]any{"auth_source": "env", "profile": "staging"})
	require.NoError(t, err)
	assert.Empty(t, cfg.ClientID)
}

func TestLoad_UnknownCloud(t *testing.T) {
	isolate(t)
	_, err := Load(map[string]any{"cloud_environment": "AzureMoon"})
	assert.Error(t, err)
}

func TestCloud(t *testing.T) {
	tests := map[string]cloud.Configuration{
		"AzureCloud":        cloud.AzurePublic,
		"AzureChinaCloud":   cloud.AzureChina,
		"AzureUSGovernment": cloud.AzureGovernment,
	}
	for name, want := range tests {
		got, err := (&Config{CloudEnvironment: name}).Cloud()
		require.NoError(t, err)
		assert.Equal(t, want.ActiveDirectoryAuthorityHost, got.ActiveDirectoryAuthorityHost)
	}

	opts := (&Config{CloudEnvironment: "AzureChinaCloud"}).ClientOptions()
	assert.Equal(t, cloud.AzureChina.ActiveDirectoryAuthorityHost, opts.Cloud.ActiveDirectoryAuthorityHost)
	assert.Equal(t, applicationID, opts.Telemetry.ApplicationID)
}

func TestToAzureCredential(t *testing.T) {
	ctx := context.Background()

	cred, err := (&Config{AuthSource: AuthSourceAuto, ClientID: "c", Secret: "s", TenantID: "t"}).ToAzureCredential(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cred)

	cred, err = (&Config{AuthSource: AuthSourceMSI, ClientID: "c"}).ToAzureCredential(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cred)

	_, err = (&Config{AuthSource: AuthSourceEnv}).ToAzureCredential(ctx)
	assert.Error(t, err)

	_, err = (&Config{AuthSource: AuthSourceAuto, ClientID: "c", CertPath: "/nonexistent", TenantID: "t"}).ToAzureCredential(ctx)
	assert.Error(t, err)
}
