package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"hrcore/internal/changelog"
	"hrcore/internal/dispatch"
	"hrcore/internal/snapshot"
	"hrcore/pkg/platform/sentinel"
)

// ErrMoveFailed wraps physical file failures during promotion. Unlike audit
// errors this one propagates: a record pointing at missing bytes is
// user-visible, so the enclosing business transaction must roll back.
var ErrMoveFailed = errors.New("document move failed")

// PromoteResult reports where a promoted document ended up.
type PromoteResult struct {
	FinalURL  string `json:"final_url"`
	FinalPath string `json:"final_path"`
	FinalName string `json:"final_name"`
}

// Service coordinates document rows with their bytes on the filesystem
// abstraction. All paths are derived, never human-entered.
type Service struct {
	fs         afero.Fs
	store      Store
	dispatcher *dispatch.Dispatcher
	root       string
	urlBase    string
	logger     *slog.Logger
}

// NewService builds the lifecycle manager. dispatcher may be nil when change
// logging is not wired (tests).
func NewService(fs afero.Fs, store Store, dispatcher *dispatch.Dispatcher, root, urlBase string, logger *slog.Logger) *Service {
	return &Service{
		fs:         fs,
		store:      store,
		dispatcher: dispatcher,
		root:       root,
		urlBase:    urlBase,
		logger:     logger,
	}
}

// Get returns a live document record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Get(ctx, id)
}

// TempDir is the staging directory under the document root.
func (s *Service) TempDir() string {
	return path.Join(s.root, "temp")
}

// StageUpload writes uploaded bytes into temp storage and records them, the
// entry point of the lifecycle.
func (s *Service) StageUpload(ctx context.Context, fileName string, content io.Reader, uploadedBy int64) (*TempDocument, error) {
	id := uuid.New()
	tempPath := path.Join(s.TempDir(), id.String()+"-"+fileName)

	if err := s.fs.MkdirAll(s.TempDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	f, err := s.fs.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		_ = s.fs.Remove(tempPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	doc := &TempDocument{
		ID:         id,
		FileName:   fileName,
		Path:       tempPath,
		UploadedBy: uploadedBy,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateTemp(ctx, doc); err != nil {
		_ = s.fs.Remove(tempPath)
		return nil, fmt.Errorf("record temp upload: %w", err)
	}
	return doc, nil
}

// LifecycleOption adjusts one Promote or Destroy call.
type LifecycleOption func(*lifecycleOptions)

type lifecycleOptions struct {
	silent bool
}

// WithoutEvent suppresses the lifecycle signal. Used when the promotion or
// deletion happens inside a business write whose own event already covers the
// document change.
func WithoutEvent() LifecycleOption {
	return func(o *lifecycleOptions) {
		o.silent = true
	}
}

// Attach creates the document record for a staged upload, pointing at the
// temp path and sharing the temp document's id. Called inside the owning
// entity's transaction so an aborted business write leaves no orphan row.
// Attaching twice returns the existing record.
func (s *Service) Attach(ctx context.Context, tempDocID uuid.UUID, employeeID int64, kind snapshot.Kind, recordID int64) (*Record, error) {
	if existing, err := s.store.Get(ctx, tempDocID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("check document record: %w", err)
	}

	temp, err := s.store.GetTemp(ctx, tempDocID)
	if err != nil {
		return nil, fmt.Errorf("load temp document: %w", err)
	}

	now := time.Now()
	rec := &Record{
		ID:               temp.ID,
		DocumentName:     temp.FileName,
		DocumentURL:      BuildURL(s.urlBase, "temp", path.Base(temp.Path)),
		DocumentPath:     temp.Path,
		Folder:           "temp",
		EmployeeID:       employeeID,
		ReferrableType:   kind,
		ReferrableTypeID: recordID,
		CreatedBy:        temp.UploadedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	return rec, nil
}

// Promote moves a staged document into its permanent folder, de-duplicating
// the name against existing records, and repoints the owning record.
//
// Retry-safe: the collision count comes from stored rows, not the
// filesystem, so re-running after a partial failure recomputes the same
// final name and overwrites the same destination instead of duplicating it.
// If the temp row is already gone but the record points at a permanent path,
// the earlier run completed and its result is returned as-is.
func (s *Service) Promote(ctx context.Context, tempDocID uuid.UUID, destFolder, overrideName string, opts ...LifecycleOption) (*PromoteResult, error) {
	var o lifecycleOptions
	for _, opt := range opts {
		opt(&o)
	}

	rec, err := s.store.Get(ctx, tempDocID)
	if err != nil {
		return nil, fmt.Errorf("load document record: %w", err)
	}

	temp, err := s.store.GetTemp(ctx, tempDocID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) && !strings.HasPrefix(rec.DocumentPath, s.TempDir()) {
			return &PromoteResult{
				FinalURL:  rec.DocumentURL,
				FinalPath: rec.DocumentPath,
				FinalName: rec.DocumentName,
			}, nil
		}
		return nil, fmt.Errorf("load temp document: %w", err)
	}

	desiredName := overrideName
	if desiredName == "" {
		desiredName = temp.FileName
	}

	finalName, err := s.dedupeName(ctx, destFolder, desiredName)
	if err != nil {
		return nil, err
	}

	destPath := path.Join(s.root, destFolder, finalName)
	if err := s.copyBytes(temp.Path, destPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMoveFailed, err)
	}

	now := time.Now()
	finalURL := BuildURL(s.urlBase, destFolder, finalName)
	if err := s.store.SetLocation(ctx, rec.ID, destFolder, finalName, finalURL, destPath, now); err != nil {
		return nil, fmt.Errorf("repoint document record: %w", err)
	}
	if err := s.store.DeleteTemp(ctx, tempDocID); err != nil {
		return nil, fmt.Errorf("delete temp record: %w", err)
	}

	// The source goes last so a store failure above leaves the temp bytes in
	// place and the promotion retryable. When Promote runs inside a business
	// transaction the store writes are still pending here; if the enclosing
	// commit then fails, the destination copy is orphaned and the upload has
	// to be re-staged. Filesystem coordination is best-effort either way.
	if err := s.fs.Remove(temp.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("temp file removal failed after promotion",
			"path", temp.Path, "error", err)
	}

	if !o.silent {
		s.publish(dispatch.SignalEntityCreated, rec, changelog.ActionCreated, finalName, now)
	}

	return &PromoteResult{FinalURL: finalURL, FinalPath: destPath, FinalName: finalName}, nil
}

// Destroy removes the bytes, then marks the row deleted. Physical deletion
// goes first so a failed delete leaves the row recoverable for retry; a
// file that is already gone counts as success.
func (s *Service) Destroy(ctx context.Context, rec *Record, opts ...LifecycleOption) error {
	var o lifecycleOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := s.fs.Remove(rec.DocumentPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove document bytes: %w", err)
	}

	now := time.Now()
	if err := s.store.SoftDelete(ctx, rec.ID, now); err != nil {
		return fmt.Errorf("mark document deleted: %w", err)
	}

	if !o.silent {
		s.publish(dispatch.SignalEntityDeleted, rec, changelog.ActionDeleted, rec.DocumentName, now)
	}
	return nil
}

// dedupeName suffixes the name with " - (N)" before the extension when N
// records in the folder already match it. Best-effort collision avoidance:
// two concurrent uploads may still race the count.
func (s *Service) dedupeName(ctx context.Context, folder, name string) (string, error) {
	count, err := s.store.CountNameMatches(ctx, folder, name)
	if err != nil {
		return "", fmt.Errorf("count name matches: %w", err)
	}
	if count == 0 {
		return name, nil
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s - (%d)%s", base, count, ext), nil
}

// copyBytes copies temp bytes to the destination, leaving the source in
// place. A half-written destination is cleaned up so a failure leaves only
// the original temp file behind.
func (s *Service) copyBytes(srcPath, destPath string) error {
	src, err := s.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	if err := s.fs.MkdirAll(path.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	dest, err := s.fs.Create(destPath)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		_ = s.fs.Remove(destPath)
		return fmt.Errorf("copy bytes: %w", err)
	}
	if err := dest.Close(); err != nil {
		_ = s.fs.Remove(destPath)
		return fmt.Errorf("flush destination: %w", err)
	}
	return nil
}

func (s *Service) publish(signal dispatch.Signal, rec *Record, action changelog.ActionType, displayName string, at time.Time) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(dispatch.Event{
		Signal:     signal,
		EmployeeID: rec.EmployeeID,
		Kind:       rec.ReferrableType,
		RecordID:   rec.ReferrableTypeID,
		Action:     action,
		Entries: []changelog.ChangeEntry{{
			LabelName:     rec.DocumentName,
			Value:         displayName,
			ActionType:    action,
			ReferenceName: displayName,
			Slug:          "document",
		}},
		ActivityPath: "User Profile > Documents",
		ActorID:      rec.CreatedBy,
		OccurredAt:   at,
	})
}

// BuildURL derives a document URL from its storage coordinates. Only spaces
// are percent-encoded; the rest of the name is stored as uploaded.
func BuildURL(base, folder, name string) string {
	u := strings.TrimRight(base, "/") + "/" + path.Join(folder, name)
	return strings.ReplaceAll(u, " ", "%20")
}
