// Package location turns a free-text list of place names into taxonomy
// category ids, representative coordinates and a GeoJSON area of interest.
package location

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/taxonomy"
	"github.com/marche-ricette/recipe-connector/pkg/geocode"
)

// MappingSource provides taxonomy mappings. *taxonomy.Mapper satisfies it.
type MappingSource interface {
	GetMappings(ctx context.Context, vocabularyID string) (*taxonomy.Mapping, error)
}

// Geocoder resolves a place name to coordinates. *geocode.Geocoder satisfies it.
type Geocoder interface {
	Resolve(ctx context.Context, placeName string) (*geocode.Result, error)
}

// Resolution is the outcome of resolving one raw location string.
type Resolution struct {
	TaxonomyIDs    []int64 `json:"taxonomyIds"`
	FirstLatitude  float64 `json:"firstLatitude"`
	FirstLongitude float64 `json:"firstLongitude"`
	AreaGeoJSON    string  `json:"areaGeoJson"`
	Success        bool    `json:"success"`
}

// Latitude returns FirstLatitude formatted for the CMS.
func (r Resolution) Latitude() string {
	return FormatCoordinate(r.FirstLatitude)
}

// Longitude returns FirstLongitude formatted for the CMS.
func (r Resolution) Longitude() string {
	return FormatCoordinate(r.FirstLongitude)
}

// FormatCoordinate renders v with at most six decimals, a dot separator
// and no trailing zeros.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

// unresolved is the outcome when resolution could not run. TaxonomyIDs is
// empty but non-nil so it encodes as [].
func unresolved() Resolution {
	return Resolution{TaxonomyIDs: []int64{}}
}

// Resolver runs the location pipeline. It holds no state of its own; the
// mapping and geocode caches belong to the injected collaborators.
type Resolver struct {
	mappings     MappingSource
	geocoder     Geocoder
	vocabularyID string
}

// NewResolver creates a Resolver that maps place names against the
// geographic vocabulary vocabularyID.
func NewResolver(mappings MappingSource, geocoder Geocoder, vocabularyID string) *Resolver {
	return &Resolver{
		mappings:     mappings,
		geocoder:     geocoder,
		vocabularyID: vocabularyID,
	}
}

// Resolve maps every place in raw to a taxonomy id and geocodes the mapped
// ones. Unknown places and failed geocodes are skipped. It never fails: a
// mapping fetch error or a panic yields an unresolved Resolution.
func (r *Resolver) Resolve(ctx context.Context, raw string) (res Resolution) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("location: resolve panicked",
				zap.String("raw", raw),
				zap.String("panic", fmt.Sprint(p)),
			)
			res = unresolved()
		}
	}()

	mapping, err := r.mappings.GetMappings(ctx, r.vocabularyID)
	if err != nil {
		zap.L().Error("location: geographic mapping unavailable",
			zap.String("vocabulary", r.vocabularyID),
			zap.Error(err),
		)
		return unresolved()
	}

	places := SplitPlaces(raw)

	var (
		ids       = []int64{}
		seenIDs   = make(map[int64]bool)
		processed = make(map[string]bool)
		fc        = newFeatureCollection()
		haveFirst bool
	)

	for _, place := range places {
		key := strings.ToLower(place)
		if processed[key] {
			continue
		}
		processed[key] = true

		id, ok := mapping.Lookup(place)
		if !ok {
			zap.L().Warn("location: no taxonomy match", zap.String("location", place))
			continue
		}
		if seenIDs[id] {
			continue
		}
		seenIDs[id] = true
		ids = append(ids, id)

		result, err := r.geocoder.Resolve(ctx, place)
		if err != nil {
			zap.L().Warn("location: geocode failed, keeping taxonomy id",
				zap.String("location", place),
				zap.Int64("taxonomy_id", id),
				zap.Error(err),
			)
			continue
		}

		if !haveFirst {
			res.FirstLatitude = result.Latitude
			res.FirstLongitude = result.Longitude
			haveFirst = true
		}
		if err := fc.addPoint(place, result.Latitude, result.Longitude); err != nil {
			zap.L().Warn("location: skipping feature", zap.String("location", place), zap.Error(err))
		}
	}

	area, err := fc.marshal()
	if err != nil {
		zap.L().Error("location: area of interest", zap.Error(err))
		return unresolved()
	}

	res.TaxonomyIDs = ids
	res.AreaGeoJSON = area
	res.Success = len(ids) > 0

	zap.L().Info("location: resolved",
		zap.String("raw", raw),
		zap.Int("places", len(places)),
		zap.Int("taxonomy_ids", len(ids)),
		zap.Int("features", len(fc.Features)),
	)
	return res
}

// SplitPlaces splits raw on commas and semicolons, trims each token, drops
// empty ones and removes case-insensitive duplicates keeping the first
// occurrence.
func SplitPlaces(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
