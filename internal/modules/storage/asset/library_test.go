package asset

import (
	"context"
	"errors"
	"testing"

	"github.com/mx-space/publisher/internal/database/dbtest"
	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/objectstore"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// stickyStore refuses to delete the listed paths.
type stickyStore struct {
	objectstore.Store
	sticky map[string]bool
}

func (s *stickyStore) Delete(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if s.sticky[p] {
			return errors.New("object locked")
		}
	}
	return s.Store.Delete(ctx, paths...)
}

type libraryFixture struct {
	db      *gorm.DB
	store   *stickyStore
	library *Library
	acme    *models.TenantModel
	globex  *models.TenantModel
}

func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()
	db := dbtest.Open(t)
	store := &stickyStore{Store: objectstore.NewMemory("https://cdn.example.com"), sticky: map[string]bool{}}
	logger := zaptest.NewLogger(t)
	return &libraryFixture{
		db:      db,
		store:   store,
		library: NewLibrary(db, NewPipeline(store, WithLogger(logger)), logger),
		acme:    dbtest.SeedTenant(t, db, "acme"),
		globex:  dbtest.SeedTenant(t, db, "globex"),
	}
}

func (f *libraryFixture) post(t *testing.T, owner tenant.Ref, slug string) *models.PostModel {
	t.Helper()
	p := &models.PostModel{TenantID: tenant.Stamp(owner), Title: slug, Slug: slug, Content: "body", Status: models.PostDraft}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func pdfUpload(name string) Upload {
	return Upload{Data: pdfDoc, DeclaredName: name + ".pdf", MimeType: "application/pdf", Folder: "docs", Name: name}
}

func TestLibrary_UploadAndList(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	post := f.post(t, f.acme, "launch")

	attached, err := f.library.Upload(ctx, f.acme, &post.ID, pdfUpload("brief"))
	require.NoError(t, err)
	assert.Equal(t, f.acme.ID, attached.TenantID)
	assert.Equal(t, "docs/brief.pdf", attached.Path)
	assert.Equal(t, "brief.pdf", attached.FileName)
	assert.Equal(t, "https://cdn.example.com/docs/brief.pdf", attached.BackingStorePath)
	assert.Equal(t, int64(len(pdfDoc)), attached.FileSize)

	loose, err := f.library.Upload(ctx, f.acme, nil, pdfUpload("misc"))
	require.NoError(t, err)
	_, err = f.library.Upload(ctx, f.globex, nil, pdfUpload("other"))
	require.NoError(t, err)

	all, err := f.library.List(ctx, f.acme, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, loose.ID, all[0].ID, "newest first")

	forPost, err := f.library.List(ctx, f.acme, &post.ID)
	require.NoError(t, err)
	require.Len(t, forPost, 1)
	assert.Equal(t, attached.ID, forPost[0].ID)

	none, err := f.library.List(ctx, tenant.ID(999), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLibrary_UploadGuards(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	foreign := f.post(t, f.globex, "theirs")

	_, err := f.library.Upload(ctx, tenant.ID(0), nil, pdfUpload("a"))
	assert.ErrorIs(t, err, ErrTenantNeeded)

	_, err = f.library.Upload(ctx, f.acme, &foreign.ID, pdfUpload("b"))
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.library.Upload(ctx, f.acme, nil, Upload{Data: []byte("MZ"), DeclaredName: "x.exe", MimeType: "application/x-msdownload"})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)

	files, err := f.store.Files(ctx, "", true)
	require.NoError(t, err)
	assert.Empty(t, files, "nothing stored for rejected uploads")
}

func TestLibrary_FailedInsertRemovesObject(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Migrator().DropTable(&models.MediaModel{}))

	_, err := f.library.Upload(ctx, f.acme, nil, pdfUpload("lost"))
	require.ErrorIs(t, err, apperr.ErrStorage)

	ok, err := f.store.Exists(ctx, "docs/lost.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLibrary_GetAndDelete(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	media, err := f.library.Upload(ctx, f.acme, nil, pdfUpload("gone"))
	require.NoError(t, err)

	_, err = f.library.Get(ctx, f.globex, media.ID)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	assert.ErrorIs(t, f.library.Delete(ctx, f.globex, media.ID), ErrMediaNotFound)

	got, err := f.library.Get(ctx, f.acme, media.ID)
	require.NoError(t, err)
	assert.Equal(t, media.Path, got.Path)

	require.NoError(t, f.library.Delete(ctx, f.acme, media.ID))
	_, err = f.library.Get(ctx, f.acme, media.ID)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	ok, err := f.store.Exists(ctx, media.Path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLibrary_DeleteForPost(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	post := f.post(t, f.acme, "doomed")
	keep := f.post(t, f.acme, "kept")

	for _, name := range []string{"one", "two", "three"} {
		_, err := f.library.Upload(ctx, f.acme, &post.ID, pdfUpload(name))
		require.NoError(t, err)
	}
	other, err := f.library.Upload(ctx, f.acme, &keep.ID, pdfUpload("other"))
	require.NoError(t, err)
	f.store.sticky["docs/two.pdf"] = true

	removed, err := f.library.DeleteForPost(ctx, f.acme, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := f.library.List(ctx, f.acme, &post.ID)
	require.NoError(t, err)
	require.Len(t, left, 1, "row kept when its object survives")
	assert.Equal(t, "docs/two.pdf", left[0].Path)

	untouched, err := f.library.List(ctx, f.acme, &keep.ID)
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, other.ID, untouched[0].ID)

	removed, err = f.library.DeleteForPost(ctx, f.globex, keep.ID)
	require.NoError(t, err)
	assert.Zero(t, removed, "other tenants cannot clear the post")
}

func TestLibrary_WithDB(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if _, err := f.library.WithDB(tx).Upload(ctx, f.acme, nil, pdfUpload("tx")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	items, err := f.library.List(ctx, f.acme, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
