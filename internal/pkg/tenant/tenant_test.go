package tenant_test

import (
	"fmt"
	"testing"

	"github.com/mx-space/publisher/internal/database/dbtest"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTenantTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func seedTenant(t *testing.T, db *gorm.DB, slug string) *models.TenantModel {
	t.Helper()
	return dbtest.SeedTenant(t, db, slug)
}

func seedPost(t *testing.T, db *gorm.DB, owner tenant.Ref, slug string) *models.PostModel {
	t.Helper()
	p := &models.PostModel{TenantID: tenant.Stamp(owner), Title: slug, Slug: slug, Content: "body", Status: models.PostDraft}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestResolve(t *testing.T) {
	t.Run("raw id and handle normalize to the same id", func(t *testing.T) {
		tn := &models.TenantModel{Base: models.Base{ID: 42}}
		assert.Equal(t, tenant.ID(42), tenant.Resolve(tn))
		assert.Equal(t, tenant.ID(42), tenant.Resolve(tenant.ID(42)))
	})

	t.Run("nil refs resolve to zero", func(t *testing.T) {
		var tn *models.TenantModel
		assert.Equal(t, tenant.ID(0), tenant.Resolve(tn))
		assert.Equal(t, tenant.ID(0), tenant.Resolve(nil))
	})
}

func TestParse(t *testing.T) {
	cases := map[string]tenant.ID{
		"7":         7,
		" 12 ":      12,
		"":          0,
		"-1":        0,
		"1 OR 1=1":  0,
		"0x10":      0,
		"999999999": 999999999,
	}
	for raw, want := range cases {
		assert.Equal(t, want, tenant.Parse(raw), "raw=%q", raw)
	}
}

func TestScope_Isolation(t *testing.T) {
	db := setupTenantTestDB(t)
	t1 := seedTenant(t, db, "alpha")
	t2 := seedTenant(t, db, "beta")
	for i := 0; i < 3; i++ {
		seedPost(t, db, t1, fmt.Sprintf("a-%d", i))
		seedPost(t, db, t2, fmt.Sprintf("b-%d", i))
	}

	t.Run("handle scope returns only own rows", func(t *testing.T) {
		var posts []models.PostModel
		require.NoError(t, db.Scopes(tenant.Scope(t1)).Find(&posts).Error)
		require.Len(t, posts, 3)
		for _, p := range posts {
			assert.Equal(t, t1.ID, p.TenantID)
		}
	})

	t.Run("raw id scope matches handle scope", func(t *testing.T) {
		var posts []models.PostModel
		require.NoError(t, db.Model(&models.PostModel{}).Scopes(tenant.Scope(tenant.ID(t2.ID))).Find(&posts).Error)
		require.Len(t, posts, 3)
		for _, p := range posts {
			assert.Equal(t, t2.ID, p.TenantID)
		}
	})

	t.Run("unknown tenant yields empty result without error", func(t *testing.T) {
		var posts []models.PostModel
		err := db.Scopes(tenant.Scope(tenant.ID(9999))).Find(&posts).Error
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("zero tenant never falls back to unscoped", func(t *testing.T) {
		var posts []models.PostModel
		require.NoError(t, db.Scopes(tenant.Scope(tenant.Parse("not-a-number"))).Find(&posts).Error)
		assert.Empty(t, posts)
	})

	t.Run("scoped update cannot touch another tenant", func(t *testing.T) {
		var victim models.PostModel
		require.NoError(t, db.Where("tenant_id = ?", t2.ID).First(&victim).Error)

		res := db.Model(&models.PostModel{}).Scopes(tenant.Scope(t1)).
			Where("id = ?", victim.ID).
			Update("title", "hijacked")
		require.NoError(t, res.Error)
		assert.Zero(t, res.RowsAffected)

		var reloaded models.PostModel
		require.NoError(t, db.First(&reloaded, victim.ID).Error)
		assert.Equal(t, victim.Title, reloaded.Title)
	})
}

func TestOwns(t *testing.T) {
	assert.True(t, tenant.Owns(tenant.ID(3), 3))
	assert.False(t, tenant.Owns(tenant.ID(3), 4))
	assert.False(t, tenant.Owns(tenant.ID(0), 0))
}

func TestAssign(t *testing.T) {
	p := models.PostModel{TenantID: 99}
	tenant.Assign(tenant.ID(5), &p.TenantID)
	assert.Equal(t, uint64(5), p.TenantID)
	tenant.Assign(tenant.ID(5), nil)
}
