package tenant_test

import (
	"context"
	"testing"

	"github.com/mx-space/publisher/internal/database/dbtest"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	active := dbtest.SeedTenant(t, db, "acme")
	inactive := dbtest.SeedTenant(t, db, "sleepy")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	gone := dbtest.SeedTenant(t, db, "gone")
	require.NoError(t, db.Delete(&models.TenantModel{}, gone.ID).Error)

	lookup := tenant.NewLookup(db)

	cases := []struct {
		name string
		find func() (tenant.ID, error)
		want tenant.ID
	}{
		{"slug", func() (tenant.ID, error) { return lookup.BySlug(ctx, "acme") }, tenant.ID(active.ID)},
		{"domain with port", func() (tenant.ID, error) { return lookup.ByDomain(ctx, "ACME.example.com:8080") }, tenant.ID(active.ID)},
		{"unknown slug", func() (tenant.ID, error) { return lookup.BySlug(ctx, "nobody") }, 0},
		{"empty host", func() (tenant.ID, error) { return lookup.ByDomain(ctx, "") }, 0},
		{"inactive", func() (tenant.ID, error) { return lookup.BySlug(ctx, "sleepy") }, 0},
		{"soft deleted", func() (tenant.ID, error) { return lookup.ByDomain(ctx, "gone.example.com") }, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := tc.find()
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestLookup_Active(t *testing.T) {
	db := dbtest.Open(t)
	a := dbtest.SeedTenant(t, db, "acme")
	off := dbtest.SeedTenant(t, db, "sleepy")
	require.NoError(t, db.Model(off).Update("is_active", false).Error)
	b := dbtest.SeedTenant(t, db, "globex")

	ids, err := tenant.NewLookup(db).Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []tenant.ID{tenant.ID(a.ID), tenant.ID(b.ID)}, ids)
}
