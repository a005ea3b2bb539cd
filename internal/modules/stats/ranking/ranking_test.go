package ranking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mx-space/publisher/internal/database/dbtest"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var refNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type postSeed struct {
	slug   string
	status models.PostStatus
	age    time.Duration
	total  int64
	weekly int64
	pinned bool
	tenant tenant.Ref
}

func seed(t *testing.T, db *gorm.DB, seeds ...postSeed) map[string]uint64 {
	t.Helper()
	ids := map[string]uint64{}
	for _, s := range seeds {
		p := &models.PostModel{
			TenantID:    tenant.Stamp(s.tenant),
			Title:       s.slug,
			Slug:        s.slug,
			Content:     "x",
			Status:      s.status,
			ViewsTotal:  s.total,
			ViewsWeekly: s.weekly,
			IsPinned:    s.pinned,
		}
		if s.status == models.PostPublished {
			at := refNow.Add(-s.age)
			p.PublishedAt = &at
		}
		require.NoError(t, db.Create(p).Error)
		ids[s.slug] = p.ID
	}
	return ids
}

func slugs(posts []models.PostModel) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}

func TestTrending_RollingWindow(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	day := 24 * time.Hour
	seed(t, db,
		postSeed{slug: "one-day", status: models.PostPublished, age: 1 * day, weekly: 1, tenant: tn},
		postSeed{slug: "ten-days", status: models.PostPublished, age: 10 * day, weekly: 100, tenant: tn},
		postSeed{slug: "thirty-days", status: models.PostPublished, age: 30 * day, weekly: 1000, tenant: tn},
	)
	e := NewEngine(db, WithClock(func() time.Time { return refNow }))

	got, err := e.Trending(context.Background(), tn, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"one-day"}, slugs(got))

	got, err = e.Trending(context.Background(), tn, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"one-day"}, slugs(got), "non-positive window falls back to 7 days")

	got, err = e.Trending(context.Background(), tn, 14, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ten-days", "one-day"}, slugs(got))
}

func TestLatestAndPopular_Ordering(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	other := dbtest.SeedTenant(t, db, "other")
	hour := time.Hour
	seed(t, db,
		postSeed{slug: "a", status: models.PostPublished, age: 3 * hour, total: 10, tenant: tn},
		postSeed{slug: "b", status: models.PostPublished, age: 1 * hour, total: 10, tenant: tn},
		postSeed{slug: "c", status: models.PostPublished, age: 1 * hour, total: 50, tenant: tn},
		postSeed{slug: "draft", status: models.PostDraft, total: 999, tenant: tn},
		postSeed{slug: "foreign", status: models.PostPublished, age: 0, total: 999, tenant: other},
	)
	e := NewEngine(db, WithClock(func() time.Time { return refNow }))
	ctx := context.Background()

	latest, err := e.Latest(ctx, tn, 10)
	require.NoError(t, err)
	// b and c share published_at; the higher id wins.
	assert.Equal(t, []string{"c", "b", "a"}, slugs(latest))

	popular, err := e.Popular(ctx, tn, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, slugs(popular))

	popular, err = e.Popular(ctx, tn, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, slugs(popular), "limit 0 clamps to 1")
}

func TestQueries_ClampToMaxPage(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	var batch []postSeed
	for i := 0; i < 8; i++ {
		batch = append(batch, postSeed{slug: fmt.Sprintf("p%d", i), status: models.PostPublished, age: time.Duration(i) * time.Hour, tenant: tn})
	}
	seed(t, db, batch...)

	e := NewEngine(db, WithMaxPage(5))
	got, err := e.Latest(context.Background(), tn, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestQueries_EmptyAndUnknownTenant(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	seed(t, db, postSeed{slug: "a", status: models.PostPublished, tenant: tn})
	e := NewEngine(db)
	ctx := context.Background()

	for _, ref := range []tenant.Ref{tenant.ID(0), tenant.ID(4242), tenant.Parse("1 OR 1=1")} {
		got, err := e.Latest(ctx, ref, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestPinned(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	seed(t, db,
		postSeed{slug: "pinned-old", status: models.PostPublished, age: 48 * time.Hour, pinned: true, tenant: tn},
		postSeed{slug: "pinned-new", status: models.PostPublished, age: time.Hour, pinned: true, tenant: tn},
		postSeed{slug: "plain", status: models.PostPublished, tenant: tn},
		postSeed{slug: "pinned-draft", status: models.PostDraft, pinned: true, tenant: tn},
	)
	got, err := NewEngine(db).Pinned(context.Background(), tn, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"pinned-new", "pinned-old"}, slugs(got))
}

func TestQueries_HideFuturePublishedAt(t *testing.T) {
	db := dbtest.Open(t)
	tn := dbtest.SeedTenant(t, db, "acme")
	seed(t, db,
		postSeed{slug: "live", status: models.PostPublished, age: time.Hour, total: 1, pinned: true, tenant: tn},
		postSeed{slug: "embargoed", status: models.PostPublished, age: -time.Hour, total: 99, weekly: 99, pinned: true, tenant: tn},
	)
	e := NewEngine(db, WithClock(func() time.Time { return refNow }))
	ctx := context.Background()

	latest, err := e.Latest(ctx, tn, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, slugs(latest))

	popular, err := e.Popular(ctx, tn, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, slugs(popular))

	trending, err := e.Trending(ctx, tn, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, slugs(trending))

	pinned, err := e.Pinned(ctx, tn, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, slugs(pinned))
}
