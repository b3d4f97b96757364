package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/quaddelta/catalog/internal/domain"
)

const (
	// DefaultAuditTake is applied when the caller does not say how many
	// entries it wants (or sends something non-numeric).
	DefaultAuditTake = 100
	// MaxAuditTake caps a single audit page.
	MaxAuditTake = 500
)

// ClampTake forces an explicit numeric take into [1, MaxAuditTake].
func ClampTake(take int) int {
	if take < 1 {
		return 1
	}
	if take > MaxAuditTake {
		return MaxAuditTake
	}
	return take
}

// AuditListQuery filters the audit history. The zero value lists the newest
// DefaultAuditTake entries across all tables.
type AuditListQuery struct {
	Table  string
	Action string
	From   time.Time
	To     time.Time
	Take   int
}

// AuditRecorder appends change records and serves audit history. It never
// mutates or removes existing entries.
type AuditRecorder struct {
	db *gorm.DB
}

func NewAuditRecorder(db *gorm.DB) *AuditRecorder {
	return &AuditRecorder{db: db}
}

// Record appends one audit row on the caller's transaction handle. The
// recorder has no transaction of its own: the entry commits or rolls back
// together with the mutation that produced it.
func (r *AuditRecorder) Record(tx *gorm.DB, table string, action domain.AuditAction, data domain.RowData, at time.Time) (*domain.AuditLog, error) {
	entry := &domain.AuditLog{
		Table:     table,
		Action:    action,
		RowData:   data,
		ChangedAt: at,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, errors.Wrap(err, "append audit entry")
	}
	return entry, nil
}

// List returns audit entries newest first (descending id). The table filter
// is an exact case-insensitive match.
func (r *AuditRecorder) List(ctx context.Context, q AuditListQuery) ([]domain.AuditLog, error) {
	take := q.Take
	if take <= 0 {
		take = DefaultAuditTake
	}
	if take > MaxAuditTake {
		take = MaxAuditTake
	}

	db := r.db.WithContext(ctx).Model(&domain.AuditLog{})
	if table := strings.TrimSpace(q.Table); table != "" {
		db = db.Where("LOWER(table_name) = ?", strings.ToLower(table))
	}
	if action := strings.TrimSpace(q.Action); action != "" {
		db = db.Where("action = ?", strings.ToUpper(action))
	}
	if !q.From.IsZero() {
		db = db.Where("changed_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("changed_at <= ?", q.To)
	}

	var rows []domain.AuditLog
	if err := db.Order("id DESC").Limit(take).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query audit log")
	}
	return rows, nil
}
