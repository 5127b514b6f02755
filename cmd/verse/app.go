package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/tsukumogami/verse/internal/config"
	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/projects"
	"github.com/tsukumogami/verse/internal/service"
	"github.com/tsukumogami/verse/internal/store"
	"github.com/tsukumogami/verse/internal/userconfig"
	"github.com/tsukumogami/verse/internal/version"
)

// app holds what a command needs to answer version queries.
type app struct {
	cfg     *config.Config
	user    *userconfig.Config
	store   *store.Store
	tracker *service.Tracker
}

// openApp loads configuration, the merged project catalog and, when
// cached is set, the result store under $VERSE_HOME. extra options are
// applied to the tracker last.
func openApp(cached bool, extra ...service.Option) (*app, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, err
	}
	user, err := userconfig.Load()
	if err != nil {
		return nil, err
	}

	registry, err := loadRegistry(cfg, user)
	if err != nil {
		return nil, err
	}

	logger := log.Default()
	a := &app{cfg: cfg, user: user}
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithTTL(resultTTL(user)),
	}

	if cached {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		s, err := store.Open(cfg.DatabaseFile)
		if err != nil {
			return nil, err
		}
		a.store = s
		opts = append(opts, service.WithStore(s))
	}

	tags := version.NewTagSource(version.WithLogger(logger))
	a.tracker = service.New(registry, tags, append(opts, extra...)...)
	return a, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		log.Default().Warn("closing result store", "error", err)
	}
}

// loadRegistry merges the built-in catalog with $VERSE_HOME/projects.toml,
// when present, and with the catalog named in the user config.
func loadRegistry(cfg *config.Config, user *userconfig.Config) (*projects.Registry, error) {
	registry := projects.Default()

	paths := []string{}
	if _, err := os.Stat(cfg.CatalogFile); err == nil {
		paths = append(paths, cfg.CatalogFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if user.Catalog != "" && user.Catalog != cfg.CatalogFile {
		paths = append(paths, user.Catalog)
	}

	for _, path := range paths {
		defs, err := projects.LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		if registry, err = registry.Merge(defs...); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Default().Debug("merged catalog", "path", path, "projects", len(defs))
	}
	return registry, nil
}

// resultTTL prefers VERSE_RESULT_TTL, then result_ttl from config.toml.
func resultTTL(user *userconfig.Config) time.Duration {
	if os.Getenv(config.EnvResultTTL) == "" {
		if ttl := user.TTL(); ttl > 0 {
			return ttl
		}
	}
	return config.GetResultTTL()
}
