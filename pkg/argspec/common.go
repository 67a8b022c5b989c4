// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package argspec

// AuthOptions are the Azure connection arguments accepted by every module.
func AuthOptions() Spec {
	return Spec{
		"auth_source": {
			Type:    TypeStr,
			Choices: []string{"auto", "cli", "credential_file", "env", "msi"},
		},
		"profile":               {Type: TypeStr},
		"subscription_id":       {Type: TypeStr},
		"client_id":             {Type: TypeStr},
		"secret":                {Type: TypeStr, NoLog: true},
		"tenant":                {Type: TypeStr},
		"ad_user":               {Type: TypeStr},
		"password":              {Type: TypeStr, NoLog: true},
		"x509_certificate_path": {Type: TypePath},
		"cloud_environment": {
			Type:    TypeStr,
			Choices: []string{"AzureCloud", "AzureChinaCloud", "AzureUSGovernment"},
		},
		"polling_interval": {Type: TypeInt},
		"log_path":         {Type: TypePath},
		"log_level":        {Type: TypeStr, Choices: []string{"debug", "info", "warn", "error"}},
	}
}

// ResourceOptions are the arguments shared by every present/absent module.
func ResourceOptions() Spec {
	return Spec{
		"state": {
			Type:    TypeStr,
			Default: "present",
			Choices: []string{"present", "absent"},
		},
		"tags":        {Type: TypeDict, Disposition: "/tags"},
		"append_tags": {Type: TypeBool, Default: true},
	}
}

// InfoOptions are the arguments shared by every _info module.
func InfoOptions() Spec {
	return Spec{
		"tags": {Type: TypeList, Elements: TypeStr},
	}
}
