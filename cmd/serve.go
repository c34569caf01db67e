package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/location"
	"github.com/marche-ricette/recipe-connector/internal/recipe"
	"github.com/marche-ricette/recipe-connector/internal/store"
	"github.com/marche-ricette/recipe-connector/internal/taxonomy"
)

const maxUploadBytes = 32 << 20

var servePort int

type recipeSubmitter interface {
	Submit(ctx context.Context, r recipe.Recipe) (*store.Submission, error)
}

type recipeImporter interface {
	Import(ctx context.Context, src io.Reader, format recipe.Format) (*recipe.Summary, error)
}

type placeResolver interface {
	Resolve(ctx context.Context, raw string) location.Resolution
}

type mappingSource interface {
	GetMappings(ctx context.Context, vocabularyID string) (*taxonomy.Mapping, error)
}

type submissionLister interface {
	ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]store.Submission, error)
}

// routerDeps are the services behind the HTTP routes. Nil services answer
// 503.
type routerDeps struct {
	Submitter   recipeSubmitter
	Importer    recipeImporter
	Resolver    placeResolver
	Mappings    mappingSource
	Submissions submissionLister
	CORSOrigins []string
}

func depsFromEnv(env *connectorEnv, origins []string) routerDeps {
	d := routerDeps{
		Resolver:    env.Resolver,
		Mappings:    env.Mapper,
		CORSOrigins: origins,
	}
	if env.Submitter != nil {
		d.Submitter = env.Submitter
	}
	if env.Importer != nil {
		d.Importer = env.Importer
	}
	if env.Store != nil {
		d.Submissions = env.Store
	}
	return d
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recipe submission API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initConnector(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", resolvePort(servePort, cfg.Server.Port)),
			Handler:           buildRouter(depsFromEnv(env, cfg.Server.CORSOrigins)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return startServer(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves until ctx is cancelled, then shuts down gracefully.
func startServer(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func buildRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/recipes", d.handleSubmit)
	r.Post("/recipes/import", d.handleImport)
	r.Get("/locations/resolve", d.handleResolve)
	r.Get("/taxonomies/{vocabularyID}", d.handleTaxonomy)
	r.Get("/submissions", d.handleSubmissions)

	return r
}

func (d routerDeps) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if d.Submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "submission not configured")
		return
	}
	var rec recipe.Recipe
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := d.Submitter.Submit(r.Context(), rec)
	switch {
	case errors.Is(err, recipe.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, "title is required")
	case err != nil && sub != nil:
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "submission": sub})
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusCreated, sub)
	}
}

func (d routerDeps) handleImport(w http.ResponseWriter, r *http.Request) {
	if d.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "import not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	format := recipe.FormatFromFilename(header.Filename)
	if format == "" {
		writeError(w, http.StatusBadRequest, "file must be .csv or .xlsx")
		return
	}

	sum, err := d.Importer.Import(r.Context(), file, format)
	if err != nil {
		zap.L().Error("import failed", zap.String("file", header.Filename), zap.Error(err))
		if sum != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "summary": sum})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (d routerDeps) handleResolve(w http.ResponseWriter, r *http.Request) {
	if d.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "resolver not configured")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, d.Resolver.Resolve(r.Context(), q))
}

type taxonomyResponse struct {
	VocabularyID string           `json:"vocabularyId"`
	Size         int              `json:"size"`
	Entries      map[string]int64 `json:"entries"`
}

func (d routerDeps) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	if d.Mappings == nil {
		writeError(w, http.StatusServiceUnavailable, "taxonomy not configured")
		return
	}
	vocab := chi.URLParam(r, "vocabularyID")
	if _, err := strconv.ParseInt(vocab, 10, 64); err != nil {
		writeError(w, http.StatusBadRequest, "vocabulary id must be numeric")
		return
	}

	m, err := d.Mappings.GetMappings(r.Context(), vocab)
	if err != nil {
		zap.L().Error("taxonomy fetch failed", zap.String("vocabulary", vocab), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, taxonomyResponse{VocabularyID: vocab, Size: m.Len(), Entries: m.Entries()})
}

func (d routerDeps) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if d.Submissions == nil {
		writeError(w, http.StatusServiceUnavailable, "submission log not configured")
		return
	}
	filter := store.SubmissionFilter{
		Status: store.SubmissionStatus(r.URL.Query().Get("status")),
		Title:  r.URL.Query().Get("title"),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	subs, err := d.Submissions.ListSubmissions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
