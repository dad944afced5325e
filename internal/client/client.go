// Package client provides a transport-agnostic interface for the skyrecords
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// RecordsClient is the interface the skr CLI commands use to talk to the
// server. It is implemented by HTTPClient.
type RecordsClient interface {
	// Templates
	ListTemplates(ctx context.Context, includeDisabled bool) ([]*model.DashboardConfiguration, error)
	GetTemplate(ctx context.Context, name string) (*model.DashboardConfiguration, error)
	CreateTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error)
	ChangeTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error)
	DisableTemplate(ctx context.Context, name string) (*model.TemplateChangeStatus, error)

	// Aliases
	ListAliases(ctx context.Context, since int64) ([]*model.NetworkAddressAlias, error)
	SaveAlias(ctx context.Context, alias *model.NetworkAddressAlias) (*model.NetworkAddressAlias, error)

	// Events
	StreamEvents(ctx context.Context, topics []string, fn func(data []byte) error) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}
