package main

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/config"
	"github.com/marche-ricette/recipe-connector/internal/location"
	"github.com/marche-ricette/recipe-connector/internal/recipe"
	"github.com/marche-ricette/recipe-connector/internal/resilience"
	"github.com/marche-ricette/recipe-connector/internal/store"
	"github.com/marche-ricette/recipe-connector/internal/taxonomy"
	"github.com/marche-ricette/recipe-connector/pkg/cms"
	"github.com/marche-ricette/recipe-connector/pkg/geocode"
)

// connectorEnv holds the clients, caches and services shared by the
// resolve, taxonomy, import and serve commands.
type connectorEnv struct {
	Store     store.Store // nil unless publishing
	CMS       cms.Client
	Geocoder  *geocode.Geocoder
	Mapper    *taxonomy.Mapper
	Resolver  *location.Resolver
	Submitter *recipe.Submitter // nil unless publishing
	Importer  *recipe.Importer  // nil unless publishing
}

// Close releases resources held by the environment.
func (e *connectorEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initConnector validates the config for mode ("resolve", "submit" or
// "serve") and builds the services it needs. Callers should defer env.Close().
func initConnector(ctx context.Context, c *config.Config, mode string) (*connectorEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	retry := resilience.FromRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	tokens := cms.NewOAuth2Provider(c.CMS.TokenURL, c.CMS.ClientID, c.CMS.ClientSecret)
	cmsClient := cms.NewClient(c.CMS.BaseURL, tokens,
		cms.WithPageSize(c.CMS.PageSize),
		cms.WithRetry(retry),
		cms.WithScope(c.CMS.TokenScope),
		cms.WithTimeout(time.Duration(c.CMS.TimeoutSecs)*time.Second),
	)

	geocoder := geocode.New(
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithUserAgent(c.Geocode.UserAgent),
		geocode.WithRegion(c.Geocode.Region, c.Geocode.Country),
		geocode.WithMinInterval(time.Duration(c.Geocode.MinIntervalMs)*time.Millisecond),
		geocode.WithTimeout(time.Duration(c.Geocode.TimeoutSecs)*time.Second),
		geocode.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			Service:          "geocode",
			FailureThreshold: c.Geocode.BreakerThreshold,
			CoolDown:         time.Duration(c.Geocode.BreakerCoolDownSecs) * time.Second,
		})),
	)

	geoVocab := vocabularyID(c.CMS.Vocabularies.Geographic)
	mapper := taxonomy.NewMapper(cmsClient, geoVocab)
	resolver := location.NewResolver(mapper, geocoder, geoVocab)

	env := &connectorEnv{
		CMS:      cmsClient,
		Geocoder: geocoder,
		Mapper:   mapper,
		Resolver: resolver,
	}
	if mode == "resolve" {
		return env, nil
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	env.Store = st

	assembler := recipe.NewAssembler(resolver, mapper, recipe.Settings{
		ContentStructureID:       c.CMS.ContentStructureID,
		LicenseID:                c.CMS.DefaultTaxonomies.LicenseID,
		ThemeIDs:                 c.CMS.DefaultTaxonomies.ThemeIDs,
		RecipeCategoryVocabulary: vocabularyID(c.CMS.Vocabularies.RecipeCategory),
		DefaultImage:             cms.DocumentRef{ID: c.CMS.DefaultImage.ID, ContentURL: c.CMS.DefaultImage.URL},
	})
	env.Submitter = recipe.NewSubmitter(assembler, cmsClient, st, c.CMS.Folders.StructuredContent)
	env.Importer = recipe.NewImporter(env.Submitter,
		recipe.WithConcurrency(c.Import.Concurrency),
		recipe.WithDelimiter(delimiter(c.Import.Delimiter)),
	)

	zap.L().Debug("connector initialized",
		zap.String("mode", mode),
		zap.String("geographic_vocabulary", geoVocab),
		zap.Int64("folder", c.CMS.Folders.StructuredContent),
	)
	return env, nil
}

func initStore(_ context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "sqlite", "":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "recipe-connector.db"
		}
		return store.NewSQLite(dsn)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}

// vocabularyID renders a configured vocabulary id; unset ids are "".
func vocabularyID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func delimiter(s string) rune {
	for _, r := range s {
		return r
	}
	return recipe.DefaultDelimiter
}
