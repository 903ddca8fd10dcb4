package audit

import (
	"context"
	"fmt"
)

// Pagination describes one page of audit history.
type Pagination struct {
	Total       int `json:"total"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	TotalPages  int `json:"totalPages"`
}

// Page is the reader's result: one page of records plus pagination facts.
type Page struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Reader is the paginated query surface over the audit table.
type Reader struct {
	store           Store
	resolver        LabelResolver
	defaultPageSize int
}

// NewReader builds a reader. resolver may be nil when referrable labels are
// not needed (tests).
func NewReader(store Store, resolver LabelResolver, defaultPageSize int) *Reader {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &Reader{store: store, resolver: resolver, defaultPageSize: defaultPageSize}
}

// List returns one page of an employee's audit history, newest first.
// page defaults to 1 and perPage to the configured default; referrableTypeID
// optionally narrows the history to one child record.
func (r *Reader) List(ctx context.Context, employeeID int64, referrableTypeID *int64, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = r.defaultPageSize
	}

	records, total, err := r.store.List(ctx, Query{
		EmployeeID:       employeeID,
		ReferrableTypeID: referrableTypeID,
		Offset:           (page - 1) * perPage,
		Limit:            perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	if r.resolver != nil {
		for i := range records {
			if records[i].ReferrableTypeID == nil {
				continue
			}
			records[i].ReferrableName = r.resolver.Label(ctx,
				records[i].ReferrableType, *records[i].ReferrableTypeID)
		}
	}

	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}

	if records == nil {
		records = []Record{}
	}

	return &Page{
		Data: records,
		Pagination: Pagination{
			Total:       total,
			CurrentPage: page,
			PerPage:     perPage,
			TotalPages:  totalPages,
		},
	}, nil
}
