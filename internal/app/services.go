package app

import (
	"fmt"

	"appctl/internal/api"
	"appctl/internal/backend/fixture"
	"appctl/internal/backend/remote"
	"appctl/internal/config"
	"appctl/internal/history"
	"appctl/pkg/logging"
)

// domainBackend is implemented by both backends: one collaborator answers
// resolution, inventory, dry runs and execution.
type domainBackend interface {
	api.Resolver
	api.Inventory
	api.Backend
}

// Services holds the collaborators of a lifecycle run.
type Services struct {
	Backend domainBackend

	// Endpoint names the backend in connection error messages: the
	// remote URL or the fixture path.
	Endpoint string

	// History is nil when run history is disabled.
	History *history.Store
}

// InitializeServices creates the backend selected by backend.type and the
// run history store when it is enabled.
func (a *Application) InitializeServices() (*Services, error) {
	backend, endpoint, err := newBackend(a.settings.Backend)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize %s backend", a.settings.Backend.Type)
		return nil, err
	}

	services := &Services{Backend: backend, Endpoint: endpoint}
	if a.settings.History.Enabled {
		store, err := a.History()
		if err != nil {
			return nil, err
		}
		services.History = store
	}

	logging.Debug("Bootstrap", "Using %s backend at %s", a.settings.Backend.Type, endpoint)
	return services, nil
}

func newBackend(bc config.BackendConfig) (domainBackend, string, error) {
	switch bc.Type {
	case config.BackendRemote, "":
		client, err := remote.New(remote.Options{
			URL:     bc.URL,
			Timeout: bc.Timeout,
			Retries: bc.Retries,
		})
		if err != nil {
			return nil, "", err
		}
		return client, bc.URL, nil
	case config.BackendFixture:
		b, err := fixture.Open(bc.Fixture)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open fixture domain: %w", err)
		}
		return b, bc.Fixture, nil
	}
	return nil, "", fmt.Errorf("unknown backend type %q", bc.Type)
}
