package recipe

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/store"
	"github.com/marche-ricette/recipe-connector/pkg/cms"
)

// Publisher creates structured content. cms.Client satisfies it.
type Publisher interface {
	CreateStructuredContent(ctx context.Context, folderID int64, content cms.StructuredContent) (*cms.StructuredContentResponse, error)
}

// Recorder persists submission outcomes. store.Store satisfies it.
type Recorder interface {
	RecordSubmission(ctx context.Context, s *store.Submission) error
}

// Submitter assembles a recipe, publishes it and records the outcome.
type Submitter struct {
	assembler *Assembler
	publisher Publisher
	recorder  Recorder
	folderID  int64
}

// NewSubmitter creates a Submitter publishing into folderID. recorder may be nil.
func NewSubmitter(assembler *Assembler, publisher Publisher, recorder Recorder, folderID int64) *Submitter {
	return &Submitter{
		assembler: assembler,
		publisher: publisher,
		recorder:  recorder,
		folderID:  folderID,
	}
}

// Submit publishes r. Invalid recipes are rejected before anything is sent
// or recorded; publication failures are recorded and returned.
func (s *Submitter) Submit(ctx context.Context, r Recipe) (*store.Submission, error) {
	asm, err := s.assembler.Assemble(ctx, r)
	if err != nil {
		return nil, err
	}

	sub := &store.Submission{
		Title:                 asm.Recipe.Title,
		ExternalReferenceCode: asm.Content.ExternalReferenceCode,
		LocationSuccess:       asm.Resolution.Success,
		TaxonomyIDs:           asm.Content.TaxonomyCategoryIDs,
	}

	created, pubErr := s.publisher.CreateStructuredContent(ctx, s.folderID, asm.Content)
	if pubErr != nil {
		sub.Status = store.StatusFailed
		sub.Error = pubErr.Error()
		zap.L().Error("recipe: publish failed", zap.String("title", sub.Title), zap.Error(pubErr))
	} else {
		sub.Status = store.StatusOK
		sub.ContentID = created.ID
		zap.L().Info("recipe: published",
			zap.String("title", sub.Title),
			zap.Int64("content_id", created.ID),
			zap.Bool("location_success", sub.LocationSuccess),
		)
	}

	s.record(ctx, sub)

	if pubErr != nil {
		return sub, eris.Wrapf(pubErr, "recipe: publish %q", sub.Title)
	}
	return sub, nil
}

func (s *Submitter) record(ctx context.Context, sub *store.Submission) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSubmission(ctx, sub); err != nil {
		zap.L().Warn("recipe: record submission failed", zap.String("title", sub.Title), zap.Error(err))
	}
}
