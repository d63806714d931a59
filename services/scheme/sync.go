package scheme

import "context"

// PendingWrites lists submitted rows that are new or differ from their stored
// counterpart. Rows without a course code have no store identity and are
// never written. Rows with unreadable values are never written either, so a
// stored row keeps its last good values.
func PendingWrites(result *Result) []CourseRow {
	var pending []CourseRow
	for _, row := range result.Rows() {
		if row.Provenance != ProvenanceSubmitted || row.Code == "" || row.Invalid() {
			continue
		}
		if stored, ok := result.Stored(row); ok && stored.SameContent(row) {
			continue
		}
		pending = append(pending, row)
	}
	return pending
}

// Sync writes pending rows back to the store in a single transaction and
// returns how many were written. On failure nothing is written and the error
// is a *PersistenceError.
func Sync(ctx context.Context, result *Result, store RowStore) (int, error) {
	pending := PendingWrites(result)
	if len(pending) == 0 {
		return 0, nil
	}

	err := store.WithinTransaction(ctx, func(w RowWriter) error {
		for _, row := range pending {
			if err := w.UpsertRow(ctx, row); err != nil {
				return &PersistenceError{Code: row.Code, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		if IsPersistenceFailure(err) {
			return 0, err
		}
		return 0, &PersistenceError{Err: err}
	}
	return len(pending), nil
}
