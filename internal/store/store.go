// Package store persists hire-pipeline candidate records. Two backends
// are supported: embedded sqlite for single-user CLI runs and postgres
// for the shared server deployment.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/reclutahub/recluta-cli/internal/config"
	"github.com/reclutahub/recluta-cli/internal/model"
)

// Filter narrows a candidate listing.
type Filter struct {
	VacancyID string
	Column    string
	Limit     int
}

// Store persists candidate records.
type Store interface {
	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error
	// AppendCandidate inserts one candidate record.
	AppendCandidate(ctx context.Context, c model.Candidate) error
	// ListCandidates returns candidates matching the filter, newest first.
	ListCandidates(ctx context.Context, f Filter) ([]model.Candidate, error)
	// Close releases the backend.
	Close() error
}

// Open creates the configured store backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.DatabaseURL)
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
