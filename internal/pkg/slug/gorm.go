package slug

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// GormChecker looks slugs up including soft-deleted rows, which keep
// their slug reserved under the unique index.
type GormChecker struct{ db *gorm.DB }

func NewGormChecker(db *gorm.DB) *GormChecker { return &GormChecker{db: db} }

func (c *GormChecker) Taken(ctx context.Context, scope Scope, base, separator string) ([]string, error) {
	col := scope.column()
	q := c.db.WithContext(ctx).Unscoped().
		Table(scope.Entity).
		Scopes(tenant.Scope(scope.Tenant)).
		Where(col+" = ? OR "+col+" LIKE ? ESCAPE '!'", base, escapeLike(base+separator)+"%")
	if scope.ExcludeID != 0 {
		q = q.Where("id <> ?", scope.ExcludeID)
	}

	var slugs []string
	if err := q.Pluck(col, &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// IsDuplicateKey reports whether err is a unique constraint violation from
// gorm's translated errors, MySQL or SQLite.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
