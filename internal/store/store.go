// Package store persists the outcome of every recipe submission.
package store

import (
	"context"
	"time"
)

// SubmissionStatus is the outcome of a submission.
type SubmissionStatus string

// Submission outcomes.
const (
	StatusOK     SubmissionStatus = "ok"
	StatusFailed SubmissionStatus = "failed"
)

// Submission is one attempt to publish a recipe.
type Submission struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	ExternalReferenceCode string           `json:"external_reference_code"`
	ContentID             int64            `json:"content_id,omitempty"`
	Status                SubmissionStatus `json:"status"`
	Error                 string           `json:"error,omitempty"`
	LocationSuccess       bool             `json:"location_success"`
	TaxonomyIDs           []int64          `json:"taxonomy_ids"`
	CreatedAt             time.Time        `json:"created_at"`
}

// SubmissionFilter specifies criteria for listing submissions.
type SubmissionFilter struct {
	Status SubmissionStatus `json:"status,omitempty"`
	Title  string           `json:"title,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the submission log.
type Store interface {
	RecordSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
