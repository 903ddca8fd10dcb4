// Package settings resolves per-tenant configuration consumed by the audit
// pipeline, currently the display date format. Lookups read through Redis
// when it is configured and fall back to the database, then to a default, so
// a cache outage never blocks snapshot building.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	platformredis "hrcore/internal/platform/redis"
	"hrcore/pkg/requestcontext"
)

// DefaultDateFormat is used when a tenant has no configured format.
const DefaultDateFormat = "MM/DD/YYYY"

const cacheTTL = 10 * time.Minute

// layoutReplacer converts the tenant-facing format tokens into a Go time
// layout. Tenants configure formats like "DD-MM-YYYY"; the tokens are the
// only contract, not Go reference dates.
var layoutReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MMM", "Jan",
	"MM", "01",
	"DD", "02",
)

// Service looks up tenant settings.
type Service struct {
	db     *sql.DB
	cache  *platformredis.Client
	logger *slog.Logger
}

// NewService builds a settings service. cache may be nil when Redis is not
// configured.
func NewService(db *sql.DB, cache *platformredis.Client, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

// DateFormat returns the tenant's configured date format tokens.
func (s *Service) DateFormat(ctx context.Context, tenantID int64) string {
	key := fmt.Sprintf("tenant:%d:date_format", tenantID)

	if s.cache != nil {
		if format, err := s.cache.Get(ctx, key).Result(); err == nil && format != "" {
			return format
		}
	}

	format := DefaultDateFormat
	if s.db != nil {
		var stored string
		err := s.db.QueryRowContext(ctx,
			`SELECT date_format FROM tenant_settings WHERE tenant_id = $1`, tenantID,
		).Scan(&stored)
		switch {
		case err == nil && stored != "":
			format = stored
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			s.logger.WarnContext(ctx, "tenant date format lookup failed",
				"tenant_id", tenantID, "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, format, cacheTTL).Err(); err != nil {
			s.logger.DebugContext(ctx, "tenant date format cache write failed",
				"tenant_id", tenantID, "error", err)
		}
	}

	return format
}

// FormatDate renders a nullable date in the tenant's configured format. The
// tenant is taken from the request context; nil dates render as the dash
// placeholder so change logs never show "null".
func (s *Service) FormatDate(ctx context.Context, t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	format := s.DateFormat(ctx, requestcontext.TenantID(ctx))
	return t.Format(Layout(format))
}

// Layout converts tenant format tokens into a Go time layout.
func Layout(format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	return layoutReplacer.Replace(format)
}
