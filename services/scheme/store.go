package scheme

import "context"

// RowStore is the durable home of scheme rows.
type RowStore interface {
	FetchRows(ctx context.Context, branchID uint, year, semester int) ([]CourseRow, error)
	// WithinTransaction runs fn in one transaction. Every write made through
	// the RowWriter is rolled back when fn returns an error.
	WithinTransaction(ctx context.Context, fn func(w RowWriter) error) error
}

// RowWriter upserts one row keyed by branch, year, semester and course code.
type RowWriter interface {
	UpsertRow(ctx context.Context, row CourseRow) error
}

// Catalog lists courses defined outside any scheme. Rows with BranchID 0
// apply to every branch.
type Catalog interface {
	FetchCatalog(ctx context.Context, branchID uint, semester int) ([]CourseRow, error)
}

// NoCatalog is the Catalog of a deployment without catalog courses.
type NoCatalog struct{}

func (NoCatalog) FetchCatalog(context.Context, uint, int) ([]CourseRow, error) {
	return nil, nil
}

// CatalogOrEmpty returns c, or NoCatalog when c is nil.
func CatalogOrEmpty(c Catalog) Catalog {
	if c == nil {
		return NoCatalog{}
	}
	return c
}
