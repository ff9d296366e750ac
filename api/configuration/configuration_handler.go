package configuration

import (
	"context"

	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/rs/zerolog/log"
)

// ConfigurationHandler Exposes the dashboard configuration published by upstream
type ConfigurationHandler interface {
	GetConfig(ctx context.Context) (*models.Config, error)
}

type handler struct {
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
}

// Init Constructor
func Init(entityStore *store.Store, orchestrator *orchestrator.Orchestrator) ConfigurationHandler {
	return &handler{store: entityStore, orchestrator: orchestrator}
}

// GetConfig The configuration, loaded on first use. The defaults are returned while upstream fails.
func (h *handler) GetConfig(ctx context.Context) (*models.Config, error) {
	if h.store.Config().State == store.NotLoaded {
		if err := h.orchestrator.RefreshConfig(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to load configuration")
		}
	}
	config := h.store.Config().Data
	return &config, nil
}
