// Package recipe assembles recipe submissions into CMS structured content,
// enriching them with taxonomy ids and geographic data, and imports them in
// bulk from CSV or XLSX files.
package recipe

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

// ErrMissingTitle is returned for a recipe without a title.
var ErrMissingTitle = eris.New("recipe: title is required")

// Recipe is one recipe submission.
type Recipe struct {
	Title        string `json:"title"`
	Presentation string `json:"presentation,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Preparation  string `json:"preparation,omitempty"`
	Cooking      string `json:"cooking,omitempty"`
	Servings     string `json:"servings,omitempty"`
	Cost         string `json:"cost,omitempty"`
	Ingredients  string `json:"ingredients,omitempty"`

	// Latitude and Longitude are kept as submitted unless location
	// resolution succeeds.
	Latitude       string `json:"latitude,omitempty"`
	Longitude      string `json:"longitude,omitempty"`
	AreaOfInterest string `json:"areaOfInterest,omitempty"`

	// Locations is the raw comma or semicolon separated list of places.
	Locations string `json:"locations,omitempty"`
	// Category is a recipe-category name mapped through the recipe-category
	// vocabulary; CategoryID is used as is.
	Category   string `json:"category,omitempty"`
	CategoryID int64  `json:"categoryId,omitempty"`

	TaxonomyCategoryIDs []int64          `json:"taxonomyCategoryIds,omitempty"`
	Image               *cms.DocumentRef `json:"image,omitempty"`
	MetaFields          []MetaField      `json:"metaFields,omitempty"`
}

// MetaField is a free key/value pair published in the meta fieldset.
type MetaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (m MetaField) empty() bool {
	return strings.TrimSpace(m.Key) == "" && strings.TrimSpace(m.Value) == ""
}

// Validate checks the fields the CMS requires.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrMissingTitle
	}
	return nil
}
