package main

import (
	"context"
	"fmt"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/adapters/repository/pgstore"
	"github.com/okian/ltrc/internal/adapters/workbook"
	"github.com/okian/ltrc/internal/config"
)

// openStore opens the configured competitor store. A workbook store also
// overlays its Settings sheet onto cfg.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory, "":
		return repository.NewMemoryStore(), func() error { return nil }, nil
	case config.DriverPostgres:
		s, err := pgstore.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverWorkbook:
		wb, err := workbook.Open(cfg.Store.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		if err := wb.ApplySettings(cfg); err != nil {
			_ = wb.Close()
			return nil, nil, err
		}
		return wb, wb.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: store driver %q", config.ErrInvalidConfig, cfg.Store.Driver)
	}
}
