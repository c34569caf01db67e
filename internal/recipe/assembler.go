package recipe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/location"
	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

// Content field names of the recipe structure.
const (
	FieldTitle          = "denominazioneField"
	FieldPresentation   = "presentazioneField"
	FieldDifficulty     = "difficoltaField"
	FieldPreparation    = "preparazioneField"
	FieldCooking        = "cotturaField"
	FieldServings       = "dosiField"
	FieldCost           = "costoField"
	FieldIngredients    = "ingredientiField"
	FieldLatitude       = "latitudineField"
	FieldLongitude      = "longitudineField"
	FieldAreaOfInterest = "areaDiInteresseField"
	FieldMainImage      = "immaginePrincipaleMedia"
	FieldMeta           = "metaFieldset"
	FieldMetaKey        = "chiaveField"
	FieldMetaValue      = "valoreField"
)

// LocationResolver resolves a raw place list. *location.Resolver satisfies it.
type LocationResolver interface {
	Resolve(ctx context.Context, raw string) location.Resolution
}

// CategoryLookup resolves a category name in a vocabulary.
// *taxonomy.Mapper satisfies it.
type CategoryLookup interface {
	Lookup(ctx context.Context, vocabularyID, name string) (int64, bool, error)
}

// Settings holds the CMS ids every assembled recipe refers to.
type Settings struct {
	ContentStructureID       int64
	LicenseID                int64
	ThemeIDs                 []int64
	RecipeCategoryVocabulary string
	DefaultImage             cms.DocumentRef
}

// Assembly is an enriched recipe and the content built from it.
type Assembly struct {
	Recipe     Recipe
	Resolution location.Resolution
	Content    cms.StructuredContent
}

// Assembler merges location resolution and taxonomy ids into a recipe and
// builds its structured content.
type Assembler struct {
	locations  LocationResolver
	categories CategoryLookup
	settings   Settings
	newRef     func() string
}

// NewAssembler creates an Assembler.
func NewAssembler(locations LocationResolver, categories CategoryLookup, settings Settings) *Assembler {
	return &Assembler{
		locations:  locations,
		categories: categories,
		settings:   settings,
		newRef:     uuid.NewString,
	}
}

// Assemble validates r, resolves its locations and category and builds the
// structured content. A failed location resolution only drops the
// geographic enrichment.
func (a *Assembler) Assemble(ctx context.Context, r Recipe) (*Assembly, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ids := newIDSet()
	ids.add(a.settings.LicenseID)
	ids.add(a.settings.ThemeIDs...)
	ids.add(r.TaxonomyCategoryIDs...)
	ids.add(r.CategoryID)
	if id, ok := a.categoryID(ctx, r); ok {
		ids.add(id)
	}

	var res location.Resolution
	hasLocations := strings.TrimSpace(r.Locations) != ""
	if hasLocations {
		res = a.locations.Resolve(ctx, r.Locations)
	}
	switch {
	case res.Success:
		r.Latitude = res.Latitude()
		r.Longitude = res.Longitude()
		r.AreaOfInterest = res.AreaGeoJSON
		ids.add(res.TaxonomyIDs...)
	case hasLocations:
		zap.L().Warn("recipe: locations not resolved, publishing without geographic data",
			zap.String("title", r.Title),
			zap.String("locations", r.Locations),
		)
	}
	r.TaxonomyCategoryIDs = ids.list()

	return &Assembly{
		Recipe:     r,
		Resolution: res,
		Content:    a.content(r),
	}, nil
}

func (a *Assembler) categoryID(ctx context.Context, r Recipe) (int64, bool) {
	name := strings.TrimSpace(r.Category)
	if name == "" || a.categories == nil || a.settings.RecipeCategoryVocabulary == "" {
		return 0, false
	}
	id, ok, err := a.categories.Lookup(ctx, a.settings.RecipeCategoryVocabulary, name)
	if err != nil {
		zap.L().Warn("recipe: category lookup failed",
			zap.String("title", r.Title),
			zap.String("category", name),
			zap.Error(err),
		)
		return 0, false
	}
	if !ok {
		zap.L().Warn("recipe: unknown category", zap.String("title", r.Title), zap.String("category", name))
	}
	return id, ok
}

func (a *Assembler) content(r Recipe) cms.StructuredContent {
	image := a.settings.DefaultImage
	if r.Image != nil && r.Image.ID != 0 {
		image = *r.Image
	}

	fields := []cms.ContentField{
		cms.TextField(FieldTitle, r.Title),
		cms.TextField(FieldPresentation, paragraph(r.Presentation)),
		cms.TextField(FieldDifficulty, r.Difficulty),
		cms.TextField(FieldPreparation, paragraph(r.Preparation)),
		cms.TextField(FieldCooking, r.Cooking),
		cms.TextField(FieldServings, r.Servings),
		cms.TextField(FieldCost, r.Cost),
		cms.TextField(FieldIngredients, r.Ingredients),
		cms.TextField(FieldLatitude, r.Latitude),
		cms.TextField(FieldLongitude, r.Longitude),
		cms.TextField(FieldAreaOfInterest, jsonString(r.AreaOfInterest)),
		cms.MediaField(FieldMainImage, image),
	}
	fields = append(fields, metaFieldsets(r.MetaFields)...)

	return cms.StructuredContent{
		ContentFields:         fields,
		ContentStructureID:    a.settings.ContentStructureID,
		ExternalReferenceCode: a.newRef(),
		TaxonomyCategoryIDs:   r.TaxonomyCategoryIDs,
		Title:                 r.Title,
	}
}

// metaFieldsets emits one fieldset per non-empty pair, or a single empty
// fieldset when there are none.
func metaFieldsets(meta []MetaField) []cms.ContentField {
	var out []cms.ContentField
	for _, m := range meta {
		if m.empty() {
			continue
		}
		out = append(out, cms.Fieldset(FieldMeta,
			cms.TextField(FieldMetaKey, m.Key),
			cms.TextField(FieldMetaValue, m.Value),
		))
	}
	if len(out) == 0 {
		out = append(out, cms.Fieldset(FieldMeta))
	}
	return out
}

func paragraph(s string) string {
	if s == "" {
		return ""
	}
	return "<p>" + s + "</p>"
}

// jsonString encodes s as a JSON string literal; an empty s encodes as null.
func jsonString(s string) string {
	if s == "" {
		return "null"
	}
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

// idSet is an insertion-ordered set of non-zero ids.
type idSet struct {
	seen  map[int64]bool
	order []int64
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[int64]bool)}
}

func (s *idSet) add(ids ...int64) {
	for _, id := range ids {
		if id == 0 || s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.order = append(s.order, id)
	}
}

func (s *idSet) list() []int64 {
	return append([]int64{}, s.order...)
}
