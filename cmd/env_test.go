package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marche-ricette/recipe-connector/internal/config"
	"github.com/marche-ricette/recipe-connector/internal/recipe"
	"github.com/marche-ricette/recipe-connector/internal/store"
	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

// fakeCMS serves the token, taxonomy and structured-content endpoints.
type fakeCMS struct {
	mu      sync.Mutex
	created []cms.StructuredContent
}

func (f *fakeCMS) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /o/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	categories := func(items string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"items":`+items+`}`)
		}
	}
	mux.HandleFunc("GET /o/headless-admin-taxonomy/v1.0/taxonomy-vocabularies/4100/taxonomy-categories",
		categories(`[{"id":10,"name":"Ancona"}]`))
	mux.HandleFunc("GET /o/headless-admin-taxonomy/v1.0/taxonomy-categories/10/taxonomy-categories",
		categories(`[{"id":42,"name":"Fabriano","parentCategoryId":10}]`))
	mux.HandleFunc("GET /o/headless-admin-taxonomy/v1.0/taxonomy-vocabularies/4200/taxonomy-categories",
		categories(`[{"id":31,"name":"Primi"}]`))
	mux.HandleFunc("POST /o/headless-delivery/v1.0/structured-content-folders/9100/structured-contents", func(w http.ResponseWriter, r *http.Request) {
		var sc cms.StructuredContent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sc))
		f.mu.Lock()
		f.created = append(f.created, sc)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 555, "externalReferenceCode": sc.ExternalReferenceCode, "title": sc.Title})
	})
	return mux
}

func geocodeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Fabriano, Marche, Italia", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat":"43.3356","lon":"12.9111","display_name":"Fabriano"}]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, cmsURL, geoURL string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.CMS.BaseURL = cmsURL
	c.CMS.TokenURL = cmsURL + "/o/oauth2/token"
	c.CMS.ClientID = "client"
	c.CMS.ClientSecret = "secret"
	c.CMS.TokenScope = "ricetta"
	c.CMS.Vocabularies.Geographic = 4100
	c.CMS.Vocabularies.RecipeCategory = 4200
	c.CMS.DefaultTaxonomies.LicenseID = 11
	c.CMS.DefaultTaxonomies.ThemeIDs = []int64{21}
	c.CMS.ContentStructureID = 9000
	c.CMS.Folders.StructuredContent = 9100
	c.CMS.DefaultImage.ID = 900
	c.Geocode.BaseURL = geoURL
	c.Geocode.Region = "Marche"
	c.Geocode.Country = "Italia"
	c.Retry.MaxAttempts = 1
	c.Import.Concurrency = 2
	c.Import.Delimiter = ";"
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "test.db")
	c.Server.Port = 8080
	return c
}

func TestInitConnector_SubmitEndToEnd(t *testing.T) {
	fake := &fakeCMS{}
	cmsSrv := httptest.NewServer(fake.handler(t))
	t.Cleanup(cmsSrv.Close)
	geoSrv := geocodeServer(t)

	ctx := context.Background()
	env, err := initConnector(ctx, testConfig(t, cmsSrv.URL, geoSrv.URL), "submit")
	require.NoError(t, err)
	t.Cleanup(env.Close)

	sub, err := env.Submitter.Submit(ctx, recipe.Recipe{
		Title:     "Vincisgrassi",
		Locations: "Fabriano",
		Category:  "Primi",
	})
	require.NoError(t, err)
	assert.Equal(t, store.StatusOK, sub.Status)
	assert.Equal(t, int64(555), sub.ContentID)
	assert.True(t, sub.LocationSuccess)

	require.Len(t, fake.created, 1)
	sc := fake.created[0]
	assert.Equal(t, int64(9000), sc.ContentStructureID)
	assert.Equal(t, []int64{11, 21, 31, 42}, sc.TaxonomyCategoryIDs)
	lat, ok := sc.Field(recipe.FieldLatitude)
	require.True(t, ok)
	assert.Equal(t, "43.3356", *lat.ContentFieldValue.Data)

	logged, err := env.Store.ListSubmissions(ctx, store.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, sub.ExternalReferenceCode, logged[0].ExternalReferenceCode)
	assert.Equal(t, []int64{11, 21, 31, 42}, logged[0].TaxonomyIDs)
}

func TestInitConnector_ResolveModeSkipsStore(t *testing.T) {
	c := testConfig(t, "https://cms.example.org", "https://geo.example.org")
	c.CMS.ContentStructureID = 0

	env, err := initConnector(context.Background(), c, "resolve")
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Store)
	assert.Nil(t, env.Submitter)
	assert.NotNil(t, env.Resolver)
	assert.Equal(t, "4100", env.Mapper.GeographicVocabularyID())
}

func TestInitConnector_InvalidConfig(t *testing.T) {
	_, err := initConnector(context.Background(), &config.Config{}, "submit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cms.base_url is required")
}

func TestInitStore(t *testing.T) {
	st, err := initStore(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = initStore(context.Background(), config.StoreConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestVocabularyID(t *testing.T) {
	assert.Equal(t, "4100", vocabularyID(4100))
	assert.Equal(t, "", vocabularyID(0))
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, ',', delimiter(","))
	assert.Equal(t, '\t', delimiter("\t"))
	assert.Equal(t, recipe.DefaultDelimiter, delimiter(""))
}
