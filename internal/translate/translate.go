// Package translate projects raw catalog records into STAC documents:
// scenes become GeoJSON Features, collection rows become Collection
// documents, and result pages are assembled into FeatureCollections with
// context metadata.
package translate

import (
	"log/slog"

	"github.com/inpe-cdsr/stac-api/internal/config"
)

// Projector converts store records into STAC documents. Asset hrefs and
// links are composed from the configured roots; projection output depends
// only on the record and the configuration, not on the incoming request.
type Projector struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewProjector creates a Projector with the given configuration.
func NewProjector(cfg *config.Config, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{
		cfg:    cfg,
		logger: logger,
	}
}
