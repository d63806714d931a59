package scheme

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore commits writes only when the transaction function succeeds.
type memoryStore struct {
	rows    map[string]CourseRow
	failOn  string
	txCount int
}

func newMemoryStore(rows ...CourseRow) *memoryStore {
	s := &memoryStore{rows: make(map[string]CourseRow)}
	for _, r := range rows {
		s.rows[NormalizeCode(r.Code)] = r
	}
	return s
}

func (s *memoryStore) FetchRows(_ context.Context, _ uint, _, _ int) ([]CourseRow, error) {
	var out []CourseRow
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

type memoryTx struct {
	store   *memoryStore
	pending map[string]CourseRow
}

func (tx *memoryTx) UpsertRow(_ context.Context, row CourseRow) error {
	if row.Code == tx.store.failOn {
		return errors.New("constraint violation")
	}
	tx.pending[row.Code] = row
	return nil
}

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(w RowWriter) error) error {
	s.txCount++
	tx := &memoryTx{store: s, pending: make(map[string]CourseRow)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.pending {
		s.rows[k] = v
	}
	return nil
}

func TestSyncWritesOnlyChangedSubmittedRows(t *testing.T) {
	old := course(CategoryCore, "CS101", "Old", "3")
	same := course(CategoryCore, "CS102", "Same", "3")
	store := newMemoryStore(old, same)
	catalog := []CourseRow{course(CategoryCore, "HS100", "Global", "1")}
	submitted := []CourseRow{
		course(CategoryCore, "CS101", "New", "4"),
		course(CategoryCore, "CS102", "Same", "3"),
	}

	stored, err := store.FetchRows(context.Background(), target.BranchID, target.Year, target.Semester)
	require.NoError(t, err)
	result := Reconcile(target, stored, catalog, submitted)

	rows := result.Sections[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "New", rows[0].Title)
	assert.Equal(t, "4", rows[0].Credits.String())

	written, err := Sync(context.Background(), result, store)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, "New", store.rows["CS101"].Title)
	_, catalogWritten := store.rows["HS100"]
	assert.False(t, catalogWritten)
}

func TestSyncIsAllOrNothing(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "CS103"
	submitted := []CourseRow{
		course(CategoryCore, "CS101", "One", "3"),
		course(CategoryCore, "CS102", "Two", "3"),
		course(CategoryCore, "CS103", "Three", "3"),
	}
	result := Reconcile(target, nil, nil, submitted)

	written, err := Sync(context.Background(), result, store)

	require.Error(t, err)
	assert.True(t, IsPersistenceFailure(err))
	assert.Zero(t, written)
	assert.Empty(t, store.rows)
	assert.Equal(t, 3, result.Len())

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "CS103", pe.Code)
}

func TestSyncSkipsTransactionWhenNothingChanged(t *testing.T) {
	row := course(CategoryCore, "CS101", "Stored", "3")
	store := newMemoryStore(row)

	result := Reconcile(target, []CourseRow{row}, nil, []CourseRow{row})
	written, err := Sync(context.Background(), result, store)

	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Zero(t, store.txCount)
}

func TestSyncKeepsStoredValuesForUnreadableRows(t *testing.T) {
	stored := course(CategoryCore, "CS101", "Operating Systems", "4")
	store := newMemoryStore(stored)
	raws := []RawRow{
		{Category: "core", Index: 1, Code: "CS101", Title: "Operating Systems", L: "abc", Credits: "4"},
		{Category: "core", Index: 2, Code: "CS102", Title: "Networks", L: "3", CIE: "50", SEE: "50", Credits: "3"},
	}

	result := Reconcile(target, []CourseRow{stored}, nil, NormalizeSubmission(target, raws))
	require.Equal(t, 2, result.Len())
	assert.Equal(t, []string{"CS102"}, codes(PendingWrites(result)))

	written, err := Sync(context.Background(), result, store)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 3, store.rows["CS101"].L)
	assert.Contains(t, store.rows, "CS102")

	summary := result.Summary()
	assert.Equal(t, 1, summary.InvalidRows)
}
