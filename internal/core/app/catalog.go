package app

import (
	"context"

	"timscompare/internal/catalog"
	"timscompare/internal/core/config"
	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/engine/model"
)

// LoadCatalog builds the parameter catalog described by cfg.
func LoadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	links := make(map[model.Name]model.Name, len(cfg.Catalog.Links))
	for dependent, driver := range cfg.Catalog.Links {
		links[model.Name(dependent)] = model.Name(driver)
	}
	c, err := catalog.Load(ctx, catalog.Options{
		Dir:      cfg.Catalog.Dir,
		Patterns: cfg.Catalog.Patterns,
		Layouts:  cfg.Catalog.Layouts,
		Links:    links,
	})
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "load parameter catalog"),
			domainerrors.CtxOperation, "load_catalog")
	}
	return c, nil
}
