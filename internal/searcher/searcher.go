package searcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"mspro-labs/brew-map/internal/db"
	"mspro-labs/brew-map/internal/export"
	"mspro-labs/brew-map/internal/geocoder"
	"mspro-labs/brew-map/internal/models"
	"mspro-labs/brew-map/internal/ranker"
)

// Geocoder resolves a free-text address.
type Geocoder interface {
	ResolveAddress(ctx context.Context, address string) (models.Location, error)
}

// Renderer writes the map artifact.
type Renderer interface {
	RenderFile(ranked []models.RankedShop, user models.Location, outputPath string) error
}

// Deps holds the collaborators of a search.
type Deps struct {
	LoadShops func(path string) ([]models.ShopRecord, error)
	Geocoder  Geocoder
	Renderer  Renderer
	History   *sql.DB // nil disables lookup history
}

// Options controls a single search.
type Options struct {
	DataPath   string
	OutputPath string
	Count      int
	XLSXPath   string // empty skips the spreadsheet export
}

// Result is what a successful search produced.
type Result struct {
	User       models.Location
	Shops      []models.RankedShop
	OutputPath string
	LookupID   string
}

// Perform loads the shops, resolves address, ranks the shops around it and
// renders the map. Any failure aborts the run; the map is only written once
// every earlier step succeeded.
func Perform(ctx context.Context, deps Deps, opts Options, address string) (*Result, error) {
	// 1. Load shops
	shops, err := deps.LoadShops(opts.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load coffee shops: %w", err)
	}

	// 2. Resolve the user's address
	user, err := deps.Geocoder.ResolveAddress(ctx, address)
	if errors.Is(err, geocoder.ErrNotFound) {
		recordLookup(deps.History, models.Lookup{Address: address})
		return nil, fmt.Errorf("no location found for %q: %w", address, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address: %w", err)
	}

	// 3. Rank
	nearest := ranker.RankNearest(shops, user, opts.Count)
	log.WithFields(log.Fields{"candidates": len(shops), "kept": len(nearest)}).Info("Ranked coffee shops")

	// 4. Render
	if err := deps.Renderer.RenderFile(nearest, user, opts.OutputPath); err != nil {
		return nil, err
	}

	result := &Result{User: user, Shops: nearest, OutputPath: opts.OutputPath}

	if opts.XLSXPath != "" {
		if err := export.WriteXLSX(opts.XLSXPath, nearest, user); err != nil {
			return nil, fmt.Errorf("failed to export spreadsheet: %w", err)
		}
		log.WithField("path", opts.XLSXPath).Info("Spreadsheet written")
	}

	result.LookupID = recordLookup(deps.History, models.Lookup{
		Address:  address,
		Found:    true,
		Location: user,
		Results:  nearest,
	})

	return result, nil
}

// recordLookup saves l when history is enabled. History is best effort and
// never fails the search.
func recordLookup(database *sql.DB, l models.Lookup) string {
	if database == nil {
		return ""
	}
	id, err := db.SaveLookup(database, l)
	if err != nil {
		log.WithError(err).Warn("Failed to save lookup history")
		return ""
	}
	return id
}
