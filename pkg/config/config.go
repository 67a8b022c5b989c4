// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/viper"
)

const (
	AuthSourceAuto           = "auto"
	AuthSourceCLI            = "cli"
	AuthSourceCredentialFile = "credential_file"
	AuthSourceEnv            = "env"
	AuthSourceMSI            = "msi"

	defaultProfile = "default"

	// azureCLIClientID is the public client used for username/password sign-in
	// when no client_id is configured.
	azureCLIClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"

	applicationID = "azure-rm-modules"
)

// Config holds the Azure connection settings of a module run.
type Config struct {
	SubscriptionID   string
	TenantID         string
	ClientID         string
	Secret           string
	ADUser           string
	Password         string
	CertPath         string
	AuthSource       string
	Profile          string
	CloudEnvironment string
	PollFrequency    time.Duration
}

// setting binds a module argument to its environment variable. Credential
// file keys match the argument names.
type setting struct {
	key string
	env string
}

var settings = []setting{
	{"subscription_id", "AZURE_SUBSCRIPTION_ID"},
	{"client_id", "AZURE_CLIENT_ID"},
	{"secret", "AZURE_SECRET"},
	{"tenant", "AZURE_TENANT"},
	{"ad_user", "AZURE_AD_USER"},
	{"password", "AZURE_PASSWORD"},
	{"x509_certificate_path", "AZURE_CERT_PATH"},
	{"cloud_environment", "AZURE_CLOUD_ENVIRONMENT"},
	{"profile", "AZURE_PROFILE"},
	{"auth_source", "AZURE_AUTH_SOURCE"},
}

// Load resolves the connection settings from module arguments, then the
// environment, then the ~/.azure/credentials profile.
func Load(params map[string]any) (*Config, error) {
	args := viper.New()
	env := viper.New()
	for _, s := range settings {
		if v, ok := params[s.key].(string); ok && v != "" {
			args.Set(s.key, v)
		}
		if err := env.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	lookup := func(key string) string {
		if v := args.GetString(key); v != "" {
			return v
		}
		return env.GetString(key)
	}

	source := lookup("auth_source")
	if source == "" {
		source = AuthSourceAuto
	}
	profile := lookup("profile")
	if profile == "" {
		profile = defaultProfile
	}

	file, err := readCredentialsFile()
	if err != nil {
		return nil, err
	}

	fromFile := func(key string) string {
		if v := file.GetString(profile + "." + key); v != "" {
			return v
		}
		// ini puts keys of the default section at the top level
		if profile == defaultProfile {
			return file.GetString(key)
		}
		return ""
	}

	resolve := func(key string) string {
		if v := args.GetString(key); v != "" {
			return v
		}
		switch source {
		case AuthSourceCredentialFile:
			return fromFile(key)
		case AuthSourceEnv:
			return env.GetString(key)
		}
		if v := env.GetString(key); v != "" {
			return v
		}
		return fromFile(key)
	}

	cfg := &Config{
		SubscriptionID:   resolve("subscription_id"),
		TenantID:         resolve("tenant"),
		ClientID:         resolve("client_id"),
		Secret:           resolve("secret"),
		ADUser:           resolve("ad_user"),
		Password:         resolve("password"),
		CertPath:         resolve("x509_certificate_path"),
		CloudEnvironment: resolve("cloud_environment"),
		AuthSource:       source,
		Profile:          profile,
	}
	if cfg.CloudEnvironment == "" {
		cfg.CloudEnvironment = "AzureCloud"
	}
	if _, err := cfg.Cloud(); err != nil {
		return nil, err
	}
	if seconds, ok := params["polling_interval"].(int); ok && seconds > 0 {
		cfg.PollFrequency = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

// CredentialsFilePath is the INI file holding named credential profiles.
func CredentialsFilePath() string {
	if dir := os.Getenv("AZURE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "credentials")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".azure", "credentials")
}

func readCredentialsFile() (*viper.Viper, error) {
	v := viper.New()
	path := CredentialsFilePath()
	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return v, nil
}

// Cloud returns the cloud configuration for CloudEnvironment.
func (c *Config) Cloud() (cloud.Configuration, error) {
	switch c.CloudEnvironment {
	case "", "AzureCloud":
		return cloud.AzurePublic, nil
	case "AzureChinaCloud":
		return cloud.AzureChina, nil
	case "AzureUSGovernment":
		return cloud.AzureGovernment, nil
	}
	return cloud.Configuration{}, fmt.Errorf("unknown cloud_environment %q", c.CloudEnvironment)
}

// ClientOptions returns the options every ARM client is created with.
func (c *Config) ClientOptions() *arm.ClientOptions {
	cfg, _ := c.Cloud()
	return &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Cloud:     cfg,
			Telemetry: policy.TelemetryOptions{ApplicationID: applicationID},
		},
	}
}

// ToAzureCredential creates the token credential selected by AuthSource and
// the settings that are present. Without explicit credentials the auto
// source falls back to the default credential chain:
// - Environment variables (AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_TENANT_ID)
// - Workload and managed identity
// - Azure CLI
func (c *Config) ToAzureCredential(ctx context.Context) (azcore.TokenCredential, error) {
	cloudCfg, err := c.Cloud()
	if err != nil {
		return nil, err
	}
	opts := azcore.ClientOptions{Cloud: cloudCfg}

	switch c.AuthSource {
	case AuthSourceCLI:
		return azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{TenantID: c.TenantID})
	case AuthSourceMSI:
		msiOpts := &azidentity.ManagedIdentityCredentialOptions{ClientOptions: opts}
		if c.ClientID != "" {
			msiOpts.ID = azidentity.ClientID(c.ClientID)
		}
		return azidentity.NewManagedIdentityCredential(msiOpts)
	}

	switch {
	case c.ClientID != "" && c.Secret != "" && c.TenantID != "":
		return azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.Secret,
			&azidentity.ClientSecretCredentialOptions{ClientOptions: opts})
	case c.ClientID != "" && c.CertPath != "" && c.TenantID != "":
		data, err := os.ReadFile(c.CertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read x509 certificate: %w", err)
		}
		certs, key, err := azidentity.ParseCertificates(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse x509 certificate: %w", err)
		}
		return azidentity.NewClientCertificateCredential(c.TenantID, c.ClientID, certs, key,
			&azidentity.ClientCertificateCredentialOptions{ClientOptions: opts})
	case c.ADUser != "" && c.Password != "":
		clientID := c.ClientID
		if clientID == "" {
			clientID = azureCLIClientID
		}
		tenant := c.TenantID
		if tenant == "" {
			tenant = "organizations"
		}
		return azidentity.NewUsernamePasswordCredential(tenant, clientID, c.ADUser, c.Password,
			&azidentity.UsernamePasswordCredentialOptions{ClientOptions: opts})
	case c.AuthSource == AuthSourceAuto:
		return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			ClientOptions: opts,
			TenantID:      c.TenantID,
		})
	}
	return nil, fmt.Errorf("no usable credentials found for auth_source %s (profile %s)", c.AuthSource, c.Profile)
}
