package cms

// Category is one taxonomy category as returned by the admin taxonomy API.
// ParentCategoryID is nil for vocabulary roots.
type Category struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ParentCategoryID *int64 `json:"parentCategoryId,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentCategoryID == nil
}

// CategoryPage is a page of taxonomy categories.
type CategoryPage struct {
	Items      []Category `json:"items"`
	TotalCount int        `json:"totalCount"`
}

// DocumentRef points at an uploaded document (e.g. the main recipe image).
type DocumentRef struct {
	ID         int64  `json:"id"`
	ContentURL string `json:"contentUrl"`
}

// ContentFieldValue holds either plain data or a document reference.
type ContentFieldValue struct {
	Data     *string      `json:"data,omitempty"`
	Document *DocumentRef `json:"document,omitempty"`
}

// ContentField is a named field of a structured content. Fieldsets carry
// NestedContentFields instead of a value; an empty non-nil slice is sent
// as [].
type ContentField struct {
	Name                string             `json:"name"`
	ContentFieldValue   *ContentFieldValue `json:"contentFieldValue,omitempty"`
	NestedContentFields []ContentField     `json:"nestedContentFields,omitzero"`
}

// TextField builds a field with a string value.
func TextField(name, data string) ContentField {
	return ContentField{Name: name, ContentFieldValue: &ContentFieldValue{Data: &data}}
}

// MediaField builds a field referencing a document.
func MediaField(name string, doc DocumentRef) ContentField {
	return ContentField{Name: name, ContentFieldValue: &ContentFieldValue{Document: &doc}}
}

// Fieldset builds a fieldset; with no nested fields it is sent as an empty list.
func Fieldset(name string, nested ...ContentField) ContentField {
	return ContentField{Name: name, NestedContentFields: append([]ContentField{}, nested...)}
}

// StructuredContent is the body posted to a structured-content folder.
type StructuredContent struct {
	ContentFields         []ContentField `json:"contentFields"`
	ContentStructureID    int64          `json:"contentStructureId"`
	ExternalReferenceCode string         `json:"externalReferenceCode"`
	TaxonomyCategoryIDs   []int64        `json:"taxonomyCategoryIds"`
	Title                 string         `json:"title"`
}

// Field returns the first content field with the given name.
func (s StructuredContent) Field(name string) (ContentField, bool) {
	for _, f := range s.ContentFields {
		if f.Name == name {
			return f, true
		}
	}
	return ContentField{}, false
}

// StructuredContentResponse is the subset of the created content the
// connector keeps.
type StructuredContentResponse struct {
	ID                    int64  `json:"id"`
	ExternalReferenceCode string `json:"externalReferenceCode"`
	Title                 string `json:"title"`
}
