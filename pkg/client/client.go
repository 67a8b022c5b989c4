// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/msi/armmsi"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/postgresql/armpostgresqlflexibleservers/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/privatedns/armprivatedns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/signalr/armsignalr"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sqlvirtualmachine/armsqlvirtualmachine"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/google/uuid"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
)

const correlationHeader = "x-ms-correlation-request-id"

// Client wraps the typed Azure SDK clients used by the modules.
//
// When adding new resource types, add new typed client fields here rather
// than issuing raw requests.
type Client struct {
	Config        *config.Config
	CorrelationID string

	ResourceGroupsClient                 *armresources.ResourceGroupsClient
	ResourcesClient                      *armresources.Client
	VirtualNetworksClient                *armnetwork.VirtualNetworksClient
	SubnetsClient                        *armnetwork.SubnetsClient
	SecurityGroupsClient                 *armnetwork.SecurityGroupsClient
	PublicIPAddressesClient              *armnetwork.PublicIPAddressesClient
	InterfacesClient                     *armnetwork.InterfacesClient
	VirtualNetworkPeeringsClient         *armnetwork.VirtualNetworkPeeringsClient
	WebApplicationFirewallPoliciesClient *armnetwork.WebApplicationFirewallPoliciesClient
	VirtualMachinesClient                *armcompute.VirtualMachinesClient
	AvailabilitySetsClient               *armcompute.AvailabilitySetsClient
	StorageAccountsClient                *armstorage.AccountsClient
	VaultsClient                         *armkeyvault.VaultsClient
	ManagedClustersClient                *armcontainerservice.ManagedClustersClient
	AgentPoolsClient                     *armcontainerservice.AgentPoolsClient
	RegistriesClient                     *armcontainerregistry.RegistriesClient
	UserAssignedIdentitiesClient         *armmsi.UserAssignedIdentitiesClient
	RoleAssignmentsClient                *armauthorization.RoleAssignmentsClient
	FlexibleServersClient                *armpostgresqlflexibleservers.ServersClient
	FirewallRulesClient                  *armpostgresqlflexibleservers.FirewallRulesClient
	ActionGroupsClient                   *armmonitor.ActionGroupsClient
	SQLDatabasesClient                   *armsql.DatabasesClient
	DatabaseAccountsClient               *armcosmos.DatabaseAccountsClient
	SignalRClient                        *armsignalr.Client
	SQLVirtualMachinesClient             *armsqlvirtualmachine.SQLVirtualMachinesClient
	PrivateZonesClient                   *armprivatedns.PrivateZonesClient
}

// correlationPolicy stamps every request of a run with one correlation id so
// the run can be traced in the Azure activity log.
type correlationPolicy struct {
	id string
}

func (p correlationPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set(correlationHeader, p.id)
	return req.Next()
}

// NewClient creates the Azure client wrapper. When no subscription is
// configured, the single enabled subscription visible to the credential is
// used.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	cred, err := cfg.ToAzureCredential(ctx)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New().String()
	clientOptions := cfg.ClientOptions()
	clientOptions.PerCallPolicies = append(clientOptions.PerCallPolicies, correlationPolicy{id: correlationID})

	if cfg.SubscriptionID == "" {
		subscriptionID, err := defaultSubscription(ctx, cred, clientOptions)
		if err != nil {
			return nil, err
		}
		cfg.SubscriptionID = subscriptionID
	}
	sub := cfg.SubscriptionID

	c := &Client{
		Config:        cfg,
		CorrelationID: correlationID,
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	c.ResourceGroupsClient, err = armresources.NewResourceGroupsClient(sub, cred, clientOptions)
	collect(err)
	c.ResourcesClient, err = armresources.NewClient(sub, cred, clientOptions)
	collect(err)
	c.VirtualNetworksClient, err = armnetwork.NewVirtualNetworksClient(sub, cred, clientOptions)
	collect(err)
	c.SubnetsClient, err = armnetwork.NewSubnetsClient(sub, cred, clientOptions)
	collect(err)
	c.SecurityGroupsClient, err = armnetwork.NewSecurityGroupsClient(sub, cred, clientOptions)
	collect(err)
	c.PublicIPAddressesClient, err = armnetwork.NewPublicIPAddressesClient(sub, cred, clientOptions)
	collect(err)
	c.InterfacesClient, err = armnetwork.NewInterfacesClient(sub, cred, clientOptions)
	collect(err)
	c.VirtualNetworkPeeringsClient, err = armnetwork.NewVirtualNetworkPeeringsClient(sub, cred, clientOptions)
	collect(err)
	c.WebApplicationFirewallPoliciesClient, err = armnetwork.NewWebApplicationFirewallPoliciesClient(sub, cred, clientOptions)
	collect(err)
	c.VirtualMachinesClient, err = armcompute.NewVirtualMachinesClient(sub, cred, clientOptions)
	collect(err)
	c.AvailabilitySetsClient, err = armcompute.NewAvailabilitySetsClient(sub, cred, clientOptions)
	collect(err)
	c.StorageAccountsClient, err = armstorage.NewAccountsClient(sub, cred, clientOptions)
	collect(err)
	c.VaultsClient, err = armkeyvault.NewVaultsClient(sub, cred, clientOptions)
	collect(err)
	c.ManagedClustersClient, err = armcontainerservice.NewManagedClustersClient(sub, cred, clientOptions)
	collect(err)
	c.AgentPoolsClient, err = armcontainerservice.NewAgentPoolsClient(sub, cred, clientOptions)
	collect(err)
	c.RegistriesClient, err = armcontainerregistry.NewRegistriesClient(sub, cred, clientOptions)
	collect(err)
	c.UserAssignedIdentitiesClient, err = armmsi.NewUserAssignedIdentitiesClient(sub, cred, clientOptions)
	collect(err)
	c.RoleAssignmentsClient, err = armauthorization.NewRoleAssignmentsClient(sub, cred, clientOptions)
	collect(err)
	c.FlexibleServersClient, err = armpostgresqlflexibleservers.NewServersClient(sub, cred, clientOptions)
	collect(err)
	c.FirewallRulesClient, err = armpostgresqlflexibleservers.NewFirewallRulesClient(sub, cred, clientOptions)
	collect(err)
	c.ActionGroupsClient, err = armmonitor.NewActionGroupsClient(sub, cred, clientOptions)
	collect(err)
	c.SQLDatabasesClient, err = armsql.NewDatabasesClient(sub, cred, clientOptions)
	collect(err)
	c.DatabaseAccountsClient, err = armcosmos.NewDatabaseAccountsClient(sub, cred, clientOptions)
	collect(err)
	c.SignalRClient, err = armsignalr.NewClient(sub, cred, clientOptions)
	collect(err)
	c.SQLVirtualMachinesClient, err = armsqlvirtualmachine.NewSQLVirtualMachinesClient(sub, cred, clientOptions)
	collect(err)
	c.PrivateZonesClient, err = armprivatedns.NewPrivateZonesClient(sub, cred, clientOptions)
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to create Azure clients: %w", err)
	}
	return c, nil
}

// ResourceGroupLocation returns the location of a resource group. Modules use
// it when the location argument is omitted.
func (c *Client) ResourceGroupLocation(ctx context.Context, name string) (string, error) {
	resp, err := c.ResourceGroupsClient.Get(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get resource group %s: %w", name, err)
	}
	if resp.Location == nil {
		return "", fmt.Errorf("resource group %s has no location", name)
	}
	return *resp.Location, nil
}

func defaultSubscription(ctx context.Context, cred azcore.TokenCredential, opts *arm.ClientOptions) (string, error) {
	subs, err := armsubscriptions.NewClient(cred, opts)
	if err != nil {
		return "", err
	}

	var enabled []string
	pager := subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, s := range page.Value {
			if s != nil && s.SubscriptionID != nil && s.State != nil && *s.State == armsubscriptions.SubscriptionStateEnabled {
				enabled = append(enabled, *s.SubscriptionID)
			}
		}
	}

	switch len(enabled) {
	case 0:
		return "", errors.New("subscription_id is required: no enabled subscription is visible to the credential")
	case 1:
		return enabled[0], nil
	default:
		return "", fmt.Errorf("subscription_id is required: %d subscriptions are visible to the credential", len(enabled))
	}
}
