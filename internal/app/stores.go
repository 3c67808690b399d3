package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/appupdate/internal/adapters/out/filesystem"
	"github.com/bnema/appupdate/internal/adapters/out/memory"
	"github.com/bnema/appupdate/internal/adapters/out/sqlite"
	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/config"
	"github.com/bnema/appupdate/internal/logging"
)

// stores holds the outbound adapters selected by storage.driver.
type stores struct {
	blobs     out.BlobStorage
	records   out.FileRecordRepository
	manifests out.ManifestRepository
	probes    []out.HealthProbe
	close     []func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, error) {
	logger = logger.With(logging.FieldLayer, "app", "driver", cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			blobs:     memory.NewBlobStorage(),
			records:   memory.NewFileRecordRepository(),
			manifests: memory.NewManifestRepository(),
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DatabasePath(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		blobs, err := filesystem.NewBlobStorage(cfg.BlobDir(), logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create blob storage: %w", err)
		}

		logger.Info("storage ready", "database", cfg.DatabasePath(), "blobs", cfg.BlobDir())

		return &stores{
			blobs:     blobs,
			records:   sqlite.NewFileRecordRepository(db),
			manifests: sqlite.NewManifestRepository(db),
			probes:    []out.HealthProbe{sqlite.NewHealthProbe(db), blobs},
			close:     []func() error{db.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
