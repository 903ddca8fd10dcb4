package document_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/dispatch"
	"hrcore/internal/document"
	"hrcore/internal/document/store/memory"
	"hrcore/internal/snapshot"
	"hrcore/pkg/platform/sentinel"
)

func newTestService(t *testing.T, fs afero.Fs) (*document.Service, *memory.InMemoryStore) {
	t.Helper()
	store := memory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := document.NewService(fs, store, nil, "/var/docs", "https://files.example.com", logger)
	return svc, store
}

func stageAndAttach(t *testing.T, svc *document.Service, fileName, content string) *document.Record {
	t.Helper()
	ctx := context.Background()

	temp, err := svc.StageUpload(ctx, fileName, strings.NewReader(content), 7)
	require.NoError(t, err)

	rec, err := svc.Attach(ctx, temp.ID, 42, snapshot.KindPersonalDocument, 0)
	require.NoError(t, err)
	return rec
}

func TestStageUploadWritesTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, store := newTestService(t, fs)

	temp, err := svc.StageUpload(context.Background(), "statement.pdf", strings.NewReader("pdf bytes"), 7)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(temp.Path, svc.TempDir()))
	assert.Equal(t, "statement.pdf", temp.FileName)
	assert.Equal(t, int64(7), temp.UploadedBy)

	data, err := afero.ReadFile(fs, temp.Path)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	stored, err := store.GetTemp(context.Background(), temp.ID)
	require.NoError(t, err)
	assert.Equal(t, temp.Path, stored.Path)
}

func TestAttachSharesTempID(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, _ := newTestService(t, fs)
	ctx := context.Background()

	temp, err := svc.StageUpload(ctx, "visa.png", strings.NewReader("img"), 7)
	require.NoError(t, err)

	rec, err := svc.Attach(ctx, temp.ID, 42, snapshot.KindVisa, 3)
	require.NoError(t, err)
	assert.Equal(t, temp.ID, rec.ID)
	assert.Equal(t, temp.Path, rec.DocumentPath)
	assert.Equal(t, int64(42), rec.EmployeeID)
	assert.Equal(t, int64(3), rec.ReferrableTypeID)

	// Second attach is a no-op returning the existing record.
	again, err := svc.Attach(ctx, temp.ID, 99, snapshot.KindPassport, 8)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, int64(42), again.EmployeeID)
}

func TestPromoteMovesBytesAndRepointsRecord(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, store := newTestService(t, fs)
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	tempPath := rec.DocumentPath

	res, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.NoError(t, err)

	assert.Equal(t, "statement.pdf", res.FinalName)
	assert.Equal(t, "/var/docs/employees/42/statement.pdf", res.FinalPath)
	assert.Equal(t, "https://files.example.com/employees/42/statement.pdf", res.FinalURL)

	data, err := afero.ReadFile(fs, res.FinalPath)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	exists, err := afero.Exists(fs, tempPath)
	require.NoError(t, err)
	assert.False(t, exists, "temp file should be removed after promotion")

	_, err = store.GetTemp(ctx, rec.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	updated, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "employees/42", updated.Folder)
	assert.Equal(t, res.FinalPath, updated.DocumentPath)
	assert.Equal(t, res.FinalURL, updated.DocumentURL)
}

func TestPromoteDeduplicatesName(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, _ := newTestService(t, fs)
	ctx := context.Background()

	first := stageAndAttach(t, svc, "statement.pdf", "v1")
	_, err := svc.Promote(ctx, first.ID, "employees/42", "")
	require.NoError(t, err)

	second := stageAndAttach(t, svc, "statement.pdf", "v2")
	res, err := svc.Promote(ctx, second.ID, "employees/42", "")
	require.NoError(t, err)

	assert.Equal(t, "statement - (1).pdf", res.FinalName)
	assert.Equal(t, "/var/docs/employees/42/statement - (1).pdf", res.FinalPath)

	data, err := afero.ReadFile(fs, "/var/docs/employees/42/statement.pdf")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "first document must be untouched")

	data, err = afero.ReadFile(fs, res.FinalPath)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestPromoteUsesOverrideName(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, _ := newTestService(t, fs)

	rec := stageAndAttach(t, svc, "upload-tmp-19.pdf", "bytes")
	res, err := svc.Promote(context.Background(), rec.ID, "employees/42", "Work Permit.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Work Permit.pdf", res.FinalName)
	assert.Equal(t, "https://files.example.com/employees/42/Work%20Permit.pdf", res.FinalURL)
}

// failingCreateFs rejects writes outside the temp directory, simulating a
// full or unreachable permanent volume.
type failingCreateFs struct {
	afero.Fs
	tempDir string
}

func (f *failingCreateFs) Create(name string) (afero.File, error) {
	if !strings.HasPrefix(name, f.tempDir) {
		return nil, errors.New("volume unavailable")
	}
	return f.Fs.Create(name)
}

func TestPromoteMoveFailureLeavesRecordOnTempPath(t *testing.T) {
	base := afero.NewMemMapFs()
	svc, store := newTestService(t, &failingCreateFs{Fs: base, tempDir: "/var/docs/temp"})
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	tempPath := rec.DocumentPath

	_, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.ErrorIs(t, err, document.ErrMoveFailed)

	// Record and temp artifacts are untouched, so the caller's transaction
	// can roll back and the promotion can be retried.
	after, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, tempPath, after.DocumentPath)

	_, err = store.GetTemp(ctx, rec.ID)
	require.NoError(t, err)

	exists, err := afero.Exists(base, tempPath)
	require.NoError(t, err)
	assert.True(t, exists, "temp bytes must survive a failed move")
}

// failingLocationStore rejects the record repoint, simulating a database
// failure after the bytes were copied.
type failingLocationStore struct {
	*memory.InMemoryStore
	fail bool
}

func (s *failingLocationStore) SetLocation(ctx context.Context, id uuid.UUID, folder, name, url, path string, now time.Time) error {
	if s.fail {
		return errors.New("connection reset")
	}
	return s.InMemoryStore.SetLocation(ctx, id, folder, name, url, path, now)
}

func TestPromoteStoreFailureKeepsTempBytesForRetry(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := &failingLocationStore{InMemoryStore: memory.NewInMemoryStore(), fail: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := document.NewService(fs, store, nil, "/var/docs", "https://files.example.com", logger)
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	tempPath := rec.DocumentPath

	_, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.Error(t, err)

	exists, err := afero.Exists(fs, tempPath)
	require.NoError(t, err)
	assert.True(t, exists, "temp bytes must survive a failed record repoint")

	_, err = store.GetTemp(ctx, rec.ID)
	require.NoError(t, err)

	store.fail = false
	res, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.NoError(t, err)
	assert.Equal(t, "statement.pdf", res.FinalName)

	data, err := afero.ReadFile(fs, res.FinalPath)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	exists, err = afero.Exists(fs, tempPath)
	require.NoError(t, err)
	assert.False(t, exists, "retry completes the move")
}

func TestPromoteIdempotentAfterCompletion(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, _ := newTestService(t, fs)
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	first, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.NoError(t, err)

	second, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDestroyRemovesBytesAndSoftDeletes(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, store := newTestService(t, fs)
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	_, err := svc.Promote(ctx, rec.ID, "employees/42", "")
	require.NoError(t, err)

	promoted, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, promoted))

	exists, err := afero.Exists(fs, promoted.DocumentPath)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDestroyToleratesMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, store := newTestService(t, fs)
	ctx := context.Background()

	rec := stageAndAttach(t, svc, "statement.pdf", "pdf bytes")
	require.NoError(t, fs.Remove(rec.DocumentPath))

	require.NoError(t, svc.Destroy(ctx, rec))

	_, err := store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPromotePublishesCreatedEvent(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := memory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := dispatch.New(8, logger, nil)
	seen := make(chan dispatch.Event, 1)
	d.Subscribe(dispatch.SignalEntityCreated, func(_ context.Context, ev dispatch.Event) error {
		seen <- ev
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	svc := document.NewService(fs, store, d, "/var/docs", "https://files.example.com", logger)

	temp, err := svc.StageUpload(context.Background(), "statement.pdf", strings.NewReader("pdf"), 7)
	require.NoError(t, err)
	rec, err := svc.Attach(context.Background(), temp.ID, 42, snapshot.KindPersonalDocument, 0)
	require.NoError(t, err)
	_, err = svc.Promote(context.Background(), rec.ID, "employees/42", "")
	require.NoError(t, err)

	select {
	case ev := <-seen:
		assert.Equal(t, dispatch.SignalEntityCreated, ev.Signal)
		assert.Equal(t, int64(42), ev.EmployeeID)
		assert.Equal(t, "User Profile > Documents", ev.ActivityPath)
		require.Len(t, ev.Entries, 1)
		assert.Equal(t, "document", ev.Entries[0].Slug)
		assert.Equal(t, "statement.pdf", ev.Entries[0].Value)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		folder string
		file   string
		want   string
	}{
		{
			name:   "plain name",
			base:   "https://files.example.com",
			folder: "employees/42",
			file:   "statement.pdf",
			want:   "https://files.example.com/employees/42/statement.pdf",
		},
		{
			name:   "spaces are percent encoded",
			base:   "https://files.example.com",
			folder: "employees/42",
			file:   "Work Permit - (1).pdf",
			want:   "https://files.example.com/employees/42/Work%20Permit%20-%20(1).pdf",
		},
		{
			name:   "trailing slash on base",
			base:   "https://files.example.com/",
			folder: "employees/42",
			file:   "statement.pdf",
			want:   "https://files.example.com/employees/42/statement.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, document.BuildURL(tt.base, tt.folder, tt.file))
		})
	}
}
