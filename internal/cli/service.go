package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/config"
	"github.com/schoolwerk/auditlog/internal/mongostore"
	"github.com/schoolwerk/auditlog/internal/store"
)

// openService loads config, opens the configured store backend, and wires
// the audit service. The returned close function releases the backend.
func openService(ctx context.Context, opts *RootOptions) (*audit.Service, config.Config, func(), error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		slog.Debug("opening sqlite store", "path", cfg.Store.SQLite.Path)
		st, err := store.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, config.Config{}, nil, err
		}
		closeFn := func() {
			if err := st.Close(); err != nil {
				slog.Error("error closing store", "error", err)
			}
		}
		return audit.NewService(st, nil), cfg, closeFn, nil

	case config.BackendMongo:
		slog.Debug("connecting to document store", "database", cfg.Store.Mongo.Database)
		st, disconnect, err := mongostore.Connect(ctx,
			cfg.Store.Mongo.URI, cfg.Store.Mongo.Database, cfg.Store.Mongo.Collection)
		if err != nil {
			return nil, config.Config{}, nil, err
		}
		closeFn := func() {
			if err := disconnect(context.Background()); err != nil {
				slog.Error("error disconnecting document store", "error", err)
			}
		}
		return audit.NewService(st, nil), cfg, closeFn, nil

	default:
		// Unreachable with a validated config.
		return nil, config.Config{}, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
