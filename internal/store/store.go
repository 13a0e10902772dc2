// Package store persists fitted ELF models keyed by jurisdiction.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/model"
)

// ErrModelNotFound is returned by Load when no model exists for a
// jurisdiction.
var ErrModelNotFound = eris.New("store: model not found")

// Driver names accepted by Open.
const (
	DriverDir      = "dir"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ModelStore defines the persistence interface for fitted models. Saving
// replaces any model previously stored for the same jurisdiction.
type ModelStore interface {
	Save(ctx context.Context, m *model.Model) error
	Load(ctx context.Context, jurisdiction string) (*model.Model, error)
	// List returns the stored jurisdictions in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string `mapstructure:"driver"`
	Dir         string `mapstructure:"dir"`
	DatabaseURL string `mapstructure:"database_url"`
}

// Open returns the backend named by opts.Driver, migrated and ready.
func Open(ctx context.Context, opts Options) (ModelStore, error) {
	switch opts.Driver {
	case "", DriverDir:
		return NewDir(opts.Dir)
	case DriverSQLite:
		s, err := NewSQLite(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, opts.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
}
