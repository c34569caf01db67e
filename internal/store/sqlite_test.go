package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RecordAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sub := &Submission{
		Title:                 "Vincisgrassi",
		ExternalReferenceCode: "erc-1",
		ContentID:             555,
		Status:                StatusOK,
		LocationSuccess:       true,
		TaxonomyIDs:           []int64{11, 21, 42},
	}
	require.NoError(t, st.RecordSubmission(ctx, sub))
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	got, err := st.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vincisgrassi", got.Title)
	assert.Equal(t, "erc-1", got.ExternalReferenceCode)
	assert.Equal(t, int64(555), got.ContentID)
	assert.Equal(t, StatusOK, got.Status)
	assert.True(t, got.LocationSuccess)
	assert.Equal(t, []int64{11, 21, 42}, got.TaxonomyIDs)
	assert.WithinDuration(t, sub.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLite_RecordFailure(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sub := &Submission{
		Title:                 "Crescia",
		ExternalReferenceCode: "erc-2",
		Status:                StatusFailed,
		Error:                 "cms: create structured content: status 400",
	}
	require.NoError(t, st.RecordSubmission(ctx, sub))

	got, err := st.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "status 400")
	assert.False(t, got.LocationSuccess)
	assert.Equal(t, []int64{}, got.TaxonomyIDs)
}

func TestSQLite_GetSubmission_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetSubmission(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_RecordSubmission_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordSubmission(ctx, &Submission{ID: "dup", Title: "a", Status: StatusOK}))
	err := st.RecordSubmission(ctx, &Submission{ID: "dup", Title: "b", Status: StatusOK})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert submission dup")
}

func TestSQLite_ListSubmissions(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range []struct {
		title  string
		status SubmissionStatus
	}{
		{"Brodetto", StatusOK},
		{"Crescia", StatusFailed},
		{"Frustingo", StatusOK},
		{"Ciauscolo", StatusOK},
	} {
		require.NoError(t, st.RecordSubmission(ctx, &Submission{
			Title:     s.title,
			Status:    s.status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := st.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Ciauscolo", all[0].Title)
	assert.Equal(t, "Brodetto", all[3].Title)

	failed, err := st.ListSubmissions(ctx, SubmissionFilter{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "Crescia", failed[0].Title)

	page, err := st.ListSubmissions(ctx, SubmissionFilter{Status: StatusOK, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Frustingo", page[0].Title)

	byTitle, err := st.ListSubmissions(ctx, SubmissionFilter{Title: "Brodetto"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
}

func TestSQLite_ListSubmissions_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	subs, err := st.ListSubmissions(context.Background(), SubmissionFilter{})
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}
