package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/audit"
	"hrcore/internal/audit/handler"
	"hrcore/internal/changelog"
	"hrcore/internal/snapshot"
)

type stubReader struct {
	page *audit.Page
	err  error

	gotEmployeeID       int64
	gotReferrableTypeID *int64
	gotPage, gotPerPage int
}

func (s *stubReader) List(_ context.Context, employeeID int64, referrableTypeID *int64, page, perPage int) (*audit.Page, error) {
	s.gotEmployeeID = employeeID
	s.gotReferrableTypeID = referrableTypeID
	s.gotPage = page
	s.gotPerPage = perPage
	return s.page, s.err
}

func newRouter(reader *stubReader) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	handler.New(reader, logger).Register(r)
	return r
}

func TestListActivityReturnsPage(t *testing.T) {
	recordID := int64(5)
	reader := &stubReader{
		page: &audit.Page{
			Data: []audit.Record{{
				ID:               1,
				EmployeeID:       42,
				ReferrableType:   snapshot.KindBankAccount,
				ReferrableTypeID: &recordID,
				ActionType:       changelog.ActionUpdated,
				Activity:         "User Profile > Bank Accounts",
				ChangeLog: []changelog.ChangeEntry{{
					LabelName: "Account Number",
					OldValue:  "111",
					NewValue:  "222",
				}},
				ReferrableName: "Chase",
			}},
			Pagination: audit.Pagination{Total: 1, CurrentPage: 1, PerPage: 10, TotalPages: 1},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/employees/42/activity?page=2&per_page=5", nil)
	rec := httptest.NewRecorder()
	newRouter(reader).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), reader.gotEmployeeID)
	assert.Equal(t, 2, reader.gotPage)
	assert.Equal(t, 5, reader.gotPerPage)
	assert.Nil(t, reader.gotReferrableTypeID)

	var page audit.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Chase", page.Data[0].ReferrableName)
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestListActivityFiltersByReferrableID(t *testing.T) {
	reader := &stubReader{page: &audit.Page{Data: []audit.Record{}}}

	req := httptest.NewRequest(http.MethodGet, "/employees/42/activity?referrable_type_id=7", nil)
	rec := httptest.NewRecorder()
	newRouter(reader).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, reader.gotReferrableTypeID)
	assert.Equal(t, int64(7), *reader.gotReferrableTypeID)
}

func TestListActivityRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"non-numeric employee id", "/employees/abc/activity"},
		{"non-numeric page", "/employees/42/activity?page=x"},
		{"non-numeric per_page", "/employees/42/activity?per_page=x"},
		{"non-numeric referrable id", "/employees/42/activity?referrable_type_id=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &stubReader{page: &audit.Page{}}
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			newRouter(reader).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
