// Package taxonomy maps category names to CMS taxonomy category ids and
// caches the mapping of each vocabulary for the lifetime of a Mapper.
package taxonomy

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

const defaultFanOut = 4

// CategoryLister lists taxonomy categories. cms.Client satisfies it.
type CategoryLister interface {
	ListVocabularyCategories(ctx context.Context, vocabularyID string) (*cms.CategoryPage, error)
	ListChildCategories(ctx context.Context, parentID int64) (*cms.CategoryPage, error)
}

// Option configures the Mapper.
type Option func(*Mapper)

// WithFanOut bounds the number of concurrent child-category fetches.
func WithFanOut(n int) Option {
	return func(m *Mapper) {
		if n > 0 {
			m.fanOut = n
		}
	}
}

// Mapper builds and caches name to id mappings per vocabulary.
//
// The geographic vocabulary is a two-level hierarchy (provinces, then
// localities); only the localities are mapped. Every other vocabulary is
// mapped flat.
type Mapper struct {
	lister       CategoryLister
	geographicID string
	fanOut       int

	mu    sync.RWMutex
	cache map[string]*Mapping
}

// NewMapper creates a Mapper. geographicVocabularyID selects the vocabulary
// that gets two-tier traversal.
func NewMapper(lister CategoryLister, geographicVocabularyID string, opts ...Option) *Mapper {
	m := &Mapper{
		lister:       lister,
		geographicID: geographicVocabularyID,
		fanOut:       defaultFanOut,
		cache:        make(map[string]*Mapping),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GeographicVocabularyID returns the vocabulary traversed in two tiers.
func (m *Mapper) GeographicVocabularyID() string {
	return m.geographicID
}

// GetMappings returns the mapping for vocabularyID, fetching and caching it
// on first use. It fails, matching resilience.ErrUpstreamUnavailable, only
// when the vocabulary's own category list cannot be fetched.
func (m *Mapper) GetMappings(ctx context.Context, vocabularyID string) (*Mapping, error) {
	if cached, ok := m.cached(vocabularyID); ok {
		zap.L().Debug("taxonomy cache hit", zap.String("vocabulary", vocabularyID))
		return cached, nil
	}

	page, err := m.lister.ListVocabularyCategories(ctx, vocabularyID)
	if err != nil {
		zap.L().Error("taxonomy: fetch vocabulary failed",
			zap.String("vocabulary", vocabularyID),
			zap.Error(err),
		)
		return nil, eris.Wrapf(err, "taxonomy: fetch vocabulary %s", vocabularyID)
	}

	var candidates []cms.Category
	if page != nil {
		candidates = page.Items
	}
	if vocabularyID == m.geographicID {
		candidates, err = m.children(ctx, roots(candidates))
		if err != nil {
			return nil, err
		}
	}

	stored := m.store(vocabularyID, BuildMapping(candidates))
	zap.L().Info("taxonomy: mapping loaded",
		zap.String("vocabulary", vocabularyID),
		zap.Int("categories", len(candidates)),
		zap.Int("keys", stored.Len()),
	)
	return stored, nil
}

// Lookup resolves a single name in vocabularyID.
func (m *Mapper) Lookup(ctx context.Context, vocabularyID, name string) (int64, bool, error) {
	mapping, err := m.GetMappings(ctx, vocabularyID)
	if err != nil {
		return 0, false, err
	}
	id, ok := mapping.Lookup(name)
	return id, ok, nil
}

// Cached reports how many vocabularies are cached.
func (m *Mapper) Cached() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

func (m *Mapper) cached(vocabularyID string) (*Mapping, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapping, ok := m.cache[vocabularyID]
	return mapping, ok
}

// store adds mapping unless one is already cached, and returns the cached one.
func (m *Mapper) store(vocabularyID string, mapping *Mapping) *Mapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache[vocabularyID]; ok {
		return existing
	}
	m.cache[vocabularyID] = mapping
	return mapping
}

func roots(categories []cms.Category) []cms.Category {
	var out []cms.Category
	for _, c := range categories {
		if c.IsRoot() {
			out = append(out, c)
		}
	}
	return out
}

// children fetches the direct children of every root, concatenated in root
// order. A root whose children cannot be fetched contributes nothing, unless
// ctx ended during the fan-out: then the partial result is discarded.
func (m *Mapper) children(ctx context.Context, parents []cms.Category) ([]cms.Category, error) {
	results := make([][]cms.Category, len(parents))

	var g errgroup.Group
	g.SetLimit(m.fanOut)
	for i, parent := range parents {
		g.Go(func() error {
			page, err := m.lister.ListChildCategories(ctx, parent.ID)
			if err != nil {
				zap.L().Warn("taxonomy: fetch children failed, skipping",
					zap.String("parent", parent.Name),
					zap.Int64("parent_id", parent.ID),
					zap.Error(err),
				)
				return nil
			}
			if page != nil {
				results[i] = page.Items
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "taxonomy: fetch children")
	}

	var all []cms.Category
	for _, items := range results {
		all = append(all, items...)
	}
	return all, nil
}
