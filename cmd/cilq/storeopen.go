package main

import (
	"context"

	"github.com/cici0602/cilq/cilcfg"
	"github.com/cici0602/cilq/store"
)

// openStore returns a PostgresStore when cfg names a DSN, or a NullStore
// otherwise — useful for quick one-off queries against files passed
// directly on the command line with no persistent backing.
func openStore(ctx context.Context, cfg cilcfg.Config) (store.Store, func(), error) {
	if cfg.StoreDSN == "" {
		return store.NewNullStore(), func() {}, nil
	}
	pg, err := store.NewPostgresStore(ctx, cfg.StoreDSN, cfg.StoreLockTimeout)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}
