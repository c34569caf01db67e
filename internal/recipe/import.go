package recipe

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marche-ricette/recipe-connector/internal/store"
)

// Format is a bulk import file format.
type Format string

// Supported import formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultDelimiter separates CSV columns.
const DefaultDelimiter = ';'

// FormatFromFilename picks the format from a file extension. Unknown
// extensions yield "".
func FormatFromFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return ""
	}
}

// RecipeSubmitter submits one recipe. *Submitter satisfies it.
type RecipeSubmitter interface {
	Submit(ctx context.Context, r Recipe) (*store.Submission, error)
}

// Summary reports the outcome of an import.
type Summary struct {
	Rows      int        `json:"rows"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
}

// ImportOption configures an Importer.
type ImportOption func(*Importer)

// WithConcurrency sets how many rows are submitted at once.
func WithConcurrency(n int) ImportOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithDelimiter sets the CSV column delimiter.
func WithDelimiter(d rune) ImportOption {
	return func(i *Importer) {
		if d != 0 {
			i.delimiter = d
		}
	}
}

// Importer submits every row of a CSV or XLSX file.
type Importer struct {
	submitter   RecipeSubmitter
	concurrency int
	delimiter   rune
}

// NewImporter creates an Importer. Rows are submitted one at a time unless
// WithConcurrency says otherwise.
func NewImporter(submitter RecipeSubmitter, opts ...ImportOption) *Importer {
	i := &Importer{
		submitter:   submitter,
		concurrency: 1,
		delimiter:   DefaultDelimiter,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Read decodes src in the given format. An empty format is sniffed from
// the content.
func (i *Importer) Read(src io.Reader, format Format) ([]Row, []RowError, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, eris.Wrap(err, "recipe: read import")
	}
	if format == "" {
		format = FormatCSV
		if sniffXLSX(data) {
			format = FormatXLSX
		}
	}

	switch format {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data), i.delimiter)
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data))
	default:
		return nil, nil, eris.Errorf("recipe: unsupported import format %q", format)
	}
}

// Import decodes src and submits every row. Row failures are counted in the
// summary; only unreadable input or cancellation fail the import.
func (i *Importer) Import(ctx context.Context, src io.Reader, format Format) (*Summary, error) {
	rows, rowErrs, err := i.Read(src, format)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Rows:   len(rows) + len(rowErrs),
		Failed: len(rowErrs),
		Errors: rowErrs,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for _, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := i.submitter.Submit(gctx, row.Recipe())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				sum.Errors = append(sum.Errors, RowError{Line: row.Line, Title: row.Title, Error: err.Error()})
				zap.L().Warn("recipe: import row failed",
					zap.Int("line", row.Line),
					zap.String("title", row.Title),
					zap.Error(err),
				)
				return nil
			}
			sum.Succeeded++
			return nil
		})
	}

	err = g.Wait()
	slices.SortStableFunc(sum.Errors, func(a, b RowError) int { return a.Line - b.Line })
	if err != nil {
		return sum, eris.Wrap(err, "recipe: import cancelled")
	}
	if err := ctx.Err(); err != nil {
		return sum, eris.Wrap(err, "recipe: import cancelled")
	}

	zap.L().Info("recipe: import complete",
		zap.Int("rows", sum.Rows),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}
