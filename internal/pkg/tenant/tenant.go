// Package tenant binds every query and write to exactly one tenant id.
//
// Callers hold either a resolved tenant (anything implementing Ref, such as
// *models.TenantModel) or a raw ID. Both are normalized by Resolve at the
// boundary; downstream code only ever sees an ID.
package tenant

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Column is the tenant foreign key shared by every tenant-owned table.
const Column = "tenant_id"

// ID is the normalized tenant identifier. The zero value matches no tenant.
type ID uint64

// Ref is anything that identifies a tenant.
type Ref interface {
	TenantID() ID
}

// TenantID makes a raw ID usable as a Ref.
func (id ID) TenantID() ID { return id }

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Resolve normalizes ref to an ID. A nil ref resolves to 0.
func Resolve(ref Ref) ID {
	if ref == nil {
		return 0
	}
	return ref.TenantID()
}

// Parse converts an untrusted identifier into an ID. Anything that is not a
// positive base-10 integer yields 0, which scopes to nothing.
func Parse(raw string) ID {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return ID(v)
}

// Scope restricts a gorm query to rows owned by ref. The column is qualified
// with the statement's table so joined queries stay unambiguous.
func Scope(ref Ref) func(db *gorm.DB) *gorm.DB {
	id := Resolve(ref)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(qualified(db)+" = ?", uint64(id))
	}
}

// Stamp returns the raw column value a writer must set on a new row.
func Stamp(ref Ref) uint64 { return uint64(Resolve(ref)) }

// Assign overwrites a row's tenant_id field with ref, discarding whatever
// the caller put there.
func Assign(ref Ref, field *uint64) {
	if field != nil {
		*field = Stamp(ref)
	}
}

// Owns reports whether a row's tenant_id belongs to ref. Zero never owns anything.
func Owns(ref Ref, rowTenantID uint64) bool {
	id := Resolve(ref)
	return id != 0 && uint64(id) == rowTenantID
}

func qualified(db *gorm.DB) string {
	stmt := db.Statement
	if stmt == nil {
		return Column
	}
	if stmt.Table != "" {
		return stmt.Table + "." + Column
	}
	for _, model := range []interface{}{stmt.Model, stmt.Dest} {
		if model == nil {
			continue
		}
		if err := stmt.Parse(model); err == nil && stmt.Schema != nil {
			return stmt.Schema.Table + "." + Column
		}
	}
	return Column
}
