// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package module

import (
	"context"
	"fmt"

	"github.com/platform-engineering-labs/azure-rm-modules/pkg/client"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/config"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/logger"
	"github.com/platform-engineering-labs/azure-rm-modules/pkg/registry"
)

// Connect resolves the connection settings from params and opens a session
// against Azure for the resource of def.
func Connect(ctx context.Context, def *registry.Definition, params map[string]any) (*Session, error) {
	cfg, err := config.Load(params)
	if err != nil {
		return nil, err
	}
	c, err := client.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if def.Factory == nil {
		return nil, fmt.Errorf("module %s has no provisioner", def.Name)
	}

	logger.FromContext(ctx).Debugw("connected to Azure",
		"subscription_id", cfg.SubscriptionID, "auth_source", cfg.AuthSource, "correlation_id", c.CorrelationID)
	return &Session{
		SubscriptionID: cfg.SubscriptionID,
		Provisioner:    def.Factory(c, cfg),
		Locations:      c,
	}, nil
}
