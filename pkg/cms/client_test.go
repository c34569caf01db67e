package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marche-ricette/recipe-connector/internal/resilience"
)

type staticToken string

func (s staticToken) Token(context.Context, string) (string, error) {
	return string(s), nil
}

type failingToken struct{}

func (failingToken) Token(context.Context, string) (string, error) {
	return "", eris.New("token endpoint down")
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestListVocabularyCategories(t *testing.T) {
	var gotPath, gotFlatten, gotPageSize, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFlatten = r.URL.Query().Get("flatten")
		gotPageSize = r.URL.Query().Get("pageSize")
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"items":[{"id":1,"name":"Ancona"},{"id":2,"name":"Fabriano","parentCategoryId":1}],"totalCount":2}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", staticToken("tok-123"))
	page, err := c.ListVocabularyCategories(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "/o/headless-admin-taxonomy/v1.0/taxonomy-vocabularies/42/taxonomy-categories", gotPath)
	assert.Equal(t, "true", gotFlatten)
	assert.Equal(t, "250", gotPageSize)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.True(t, page.Items[0].IsRoot())
	assert.False(t, page.Items[1].IsRoot())
	assert.Equal(t, int64(1), *page.Items[1].ParentCategoryID)
}

func TestListChildCategories(t *testing.T) {
	var gotPath, gotPageSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPageSize = r.URL.Query().Get("pageSize")
		_, _ = io.WriteString(w, `{"items":[{"id":7,"name":"Jesi","parentCategoryId":1}],"totalCount":1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"), WithPageSize(50))
	page, err := c.ListChildCategories(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "/o/headless-admin-taxonomy/v1.0/taxonomy-categories/1/taxonomy-categories", gotPath)
	assert.Equal(t, "50", gotPageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Jesi", page.Items[0].Name)
}

func TestListCategories_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"items":[],"totalCount":0}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"), WithRetry(fastRetry()))
	page, err := c.ListVocabularyCategories(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestListCategories_PermanentStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"), WithRetry(fastRetry()))
	_, err := c.ListVocabularyCategories(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, resilience.IsUpstream(err))
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestListCategories_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"), WithRetry(fastRetry()))
	_, err := c.ListChildCategories(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, resilience.IsUpstream(err))
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestListCategories_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items": [`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"), WithRetry(fastRetry()))
	_, err := c.ListVocabularyCategories(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, resilience.IsUpstream(err))
}

func TestListCategories_TokenFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, failingToken{}, WithRetry(fastRetry()))
	_, err := c.ListVocabularyCategories(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, resilience.IsUpstream(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestCreateStructuredContent(t *testing.T) {
	var gotPath, gotMethod, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"id":555,"title":"Vincisgrassi","externalReferenceCode":"erc-1"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	content := StructuredContent{
		ContentFields: []ContentField{
			TextField("denominazioneField", "Vincisgrassi"),
			MediaField("immaginePrincipaleMedia", DocumentRef{ID: 10, ContentURL: "/documents/d/guest/img"}),
			Fieldset("metaFieldset"),
		},
		ContentStructureID:    123,
		ExternalReferenceCode: "erc-1",
		TaxonomyCategoryIDs:   []int64{1, 2},
		Title:                 "Vincisgrassi",
	}

	created, err := c.CreateStructuredContent(context.Background(), 77, content)
	require.NoError(t, err)
	assert.Equal(t, int64(555), created.ID)
	assert.Equal(t, "erc-1", created.ExternalReferenceCode)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/o/headless-delivery/v1.0/structured-content-folders/77/structured-contents", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, float64(123), gotBody["contentStructureId"])
	assert.Equal(t, "Vincisgrassi", gotBody["title"])

	fields := gotBody["contentFields"].([]any)
	require.Len(t, fields, 3)
	assert.Equal(t, map[string]any{
		"name":              "denominazioneField",
		"contentFieldValue": map[string]any{"data": "Vincisgrassi"},
	}, fields[0])
	assert.Equal(t, map[string]any{
		"name": "immaginePrincipaleMedia",
		"contentFieldValue": map[string]any{
			"document": map[string]any{"id": float64(10), "contentUrl": "/documents/d/guest/img"},
		},
	}, fields[1])
	assert.Equal(t, map[string]any{
		"name":                "metaFieldset",
		"nestedContentFields": []any{},
	}, fields[2])
}

func TestCreateStructuredContent_EmptyResponseKeepsRequestIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	created, err := c.CreateStructuredContent(context.Background(), 1, StructuredContent{
		ExternalReferenceCode: "erc-2",
		Title:                 "Olive all'ascolana",
	})
	require.NoError(t, err)
	assert.Equal(t, "erc-2", created.ExternalReferenceCode)
	assert.Equal(t, "Olive all'ascolana", created.Title)
}

func TestCreateStructuredContent_Rejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"title":"invalid field"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	_, err := c.CreateStructuredContent(context.Background(), 1, StructuredContent{Title: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsUpstream(err))
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestStructuredContent_Field(t *testing.T) {
	sc := StructuredContent{ContentFields: []ContentField{
		TextField("latitudineField", "43.3356"),
		TextField("longitudineField", "12.9111"),
	}}

	f, ok := sc.Field("longitudineField")
	require.True(t, ok)
	assert.Equal(t, "12.9111", *f.ContentFieldValue.Data)

	_, ok = sc.Field("missing")
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
