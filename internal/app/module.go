package app

import (
	"context"
	"os"

	"github.com/pocketgram/core/internal/assets"
	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/config"
	"github.com/pocketgram/core/internal/dialogs"
	"github.com/pocketgram/core/internal/folders"
	"github.com/pocketgram/core/internal/history"
	"github.com/pocketgram/core/internal/logging"
	"github.com/pocketgram/core/internal/peers"
	"github.com/pocketgram/core/internal/session"
	"github.com/pocketgram/core/internal/store"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Client      tg.Client
	Renderer    history.Renderer // optional; nil = plain rendering
}

// Module returns the fx module composing the data-layer engines and their
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("core",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStore,
			providePool,
			provideCache,
			provideFolders,
			provideDialogs,
			provideHistory,
			provideBridge,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("config load failed, using defaults", zap.Error(err))
		}
		return &config.Config{}
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.CacheDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func providePool() *peers.Pool {
	return peers.NewPool()
}

func provideCache(db *store.DB, b *bus.Bus, logger *zap.Logger) *assets.Cache {
	return assets.NewCache(db, b, logger)
}

func provideFolders(b *bus.Bus, logger *zap.Logger) *folders.Engine {
	return folders.NewEngine(b, logger)
}

func provideDialogs(b *bus.Bus, logger *zap.Logger, pool *peers.Pool, cache *assets.Cache, cfg *config.Config) *dialogs.Engine {
	return dialogs.NewEngine(b, logger, pool, cache, int32(cfg.EffectiveBatchSize()))
}

func provideHistory(p Params, b *bus.Bus, logger *zap.Logger, pool *peers.Pool, cache *assets.Cache, cfg *config.Config) *history.Engine {
	return history.NewEngine(b, logger, pool, cache, p.Renderer, int32(cfg.EffectiveBatchSize()))
}

func provideBridge(b *bus.Bus, d *dialogs.Engine, h *history.Engine) *Bridge {
	return NewBridge(b, d, h)
}

func registerLifecycle(lc fx.Lifecycle, p Params, db *store.DB, cache *assets.Cache, fl *folders.Engine, d *dialogs.Engine, h *history.Engine, br *Bridge, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			br.Start()
			cache.SetClient(p.Client)
			fl.SetClient(p.Client)
			d.SetClient(p.Client)
			h.SetClient(p.Client)
			logger.Info("engines attached", zap.String("session", p.SessionName))
			return nil
		},
		OnStop: func(_ context.Context) error {
			h.SetClient(nil)
			d.SetClient(nil)
			fl.SetClient(nil)
			cache.SetClient(nil)
			br.Stop()
			cache.Flush()
			if err := db.Close(); err != nil {
				logger.Warn("store close", zap.Error(err))
			}
			logger.Info("engines stopped")
			return nil
		},
	})
}
