package tenant

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Table holds one row per tenant.
const Table = "tenants"

// Lookup resolves public identifiers (slug, host domain) to tenant ids.
// It reads the tenants table directly so callers need not load the model.
type Lookup struct {
	db *gorm.DB
}

func NewLookup(db *gorm.DB) *Lookup { return &Lookup{db: db} }

// BySlug returns 0 for unknown, inactive or deleted tenants.
func (l *Lookup) BySlug(ctx context.Context, slug string) (ID, error) {
	return l.find(ctx, "slug", strings.TrimSpace(slug))
}

// ByDomain matches the host without port, case-insensitively.
func (l *Lookup) ByDomain(ctx context.Context, host string) (ID, error) {
	return l.find(ctx, "domain", normalizeHost(host))
}

// Active lists every active tenant id in ascending order.
func (l *Lookup) Active(ctx context.Context) ([]ID, error) {
	var ids []uint64
	err := l.db.WithContext(ctx).
		Table(Table).
		Where("is_active = ?", true).
		Where("deleted_at IS NULL").
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make([]ID, len(ids))
	for i, id := range ids {
		out[i] = ID(id)
	}
	return out, nil
}

func (l *Lookup) find(ctx context.Context, column, value string) (ID, error) {
	if value == "" {
		return 0, nil
	}
	var row struct{ ID uint64 }
	err := l.db.WithContext(ctx).
		Table(Table).
		Select("id").
		Where(column+" = ?", value).
		Where("is_active = ?", true).
		Where("deleted_at IS NULL").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ID(row.ID), nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		if i := strings.Index(host, "]"); i >= 0 {
			return host[1:i]
		}
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}
