package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_backend/internal/feature/catalog/domain/entity"
	"catalog_backend/internal/shared/validation"
)

// pngBytes is a minimal payload that sniffs as image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "0000IHDR")

// mockProductRepository is a mock implementation of the ProductRepository interface.
type mockProductRepository struct {
	CreateFunc   func(ctx context.Context, p *entity.Product) error
	FindByIDFunc func(ctx context.Context, id uint) (*entity.Product, error)
	UpdateFunc   func(ctx context.Context, p *entity.Product) error
	DeleteFunc   func(ctx context.Context, id uint) error
	ListFunc     func(ctx context.Context, offset, limit int) ([]entity.Product, int64, error)
}

func (m *mockProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrProductNotFound
}

func (m *mockProductRepository) Update(ctx context.Context, p *entity.Product) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, offset, limit int) ([]entity.Product, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	return nil, 0, nil
}

// mockBlobStore records Save/Delete calls in order.
type mockBlobStore struct {
	SaveFunc   func(ctx context.Context, name string, data []byte) error
	DeleteFunc func(ctx context.Context, name string) error
	saved      []string
	deleted    []string
}

func (m *mockBlobStore) Save(ctx context.Context, name string, data []byte) error {
	m.saved = append(m.saved, name)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, data)
	}
	return nil
}

func (m *mockBlobStore) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

func fieldMessages(t *testing.T, err error, field string) []string {
	t.Helper()
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	return vErr.Fields[field]
}

func validCreateInput() CreateInput {
	return CreateInput{
		Image:       pngBytes,
		Title:       "Widget",
		Description: "A fine widget",
		Price:       "19.99",
		Stock:       "3",
	}
}

func TestProductUsecase_Create(t *testing.T) {
	t.Run("success: blob saved then row created, status derived", func(t *testing.T) {
		blobs := &mockBlobStore{}
		var created *entity.Product
		repo := &mockProductRepository{
			CreateFunc: func(_ context.Context, p *entity.Product) error {
				p.ID = 1
				created = p
				return nil
			},
		}
		uc := NewProductUsecase(repo, blobs)

		product, err := uc.Create(context.Background(), validCreateInput())
		require.NoError(t, err)

		// ファイル名はUUID+スニッフィング由来の拡張子
		require.Len(t, blobs.saved, 1)
		assert.True(t, strings.HasSuffix(blobs.saved[0], ".png"), "extension should come from sniffing")
		assert.Equal(t, blobs.saved[0], product.Image)

		assert.Equal(t, "Widget", created.Title)
		assert.Equal(t, 19.99, created.Price)
		assert.Equal(t, 3, created.Stock)
		assert.Equal(t, entity.StatusAvailable, created.Status)
	})

	t.Run("success: zero stock derives unavailable", func(t *testing.T) {
		uc := NewProductUsecase(&mockProductRepository{}, &mockBlobStore{})

		in := validCreateInput()
		in.Stock = "0"
		product, err := uc.Create(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusUnavailable, product.Status)
	})

	t.Run("failure: validation short-circuits with no side effects", func(t *testing.T) {
		blobs := &mockBlobStore{}
		createCalled := false
		repo := &mockProductRepository{
			CreateFunc: func(_ context.Context, _ *entity.Product) error {
				createCalled = true
				return nil
			},
		}
		uc := NewProductUsecase(repo, blobs)

		_, err := uc.Create(context.Background(), CreateInput{
			Image:       nil,
			Title:       "",
			Description: "",
			Price:       "abc",
			Stock:       "-1",
		})

		assert.Contains(t, fieldMessages(t, err, "image"), "The image field is required.")
		assert.Contains(t, fieldMessages(t, err, "title"), "The title field is required.")
		assert.Contains(t, fieldMessages(t, err, "description"), "The description field is required.")
		assert.Contains(t, fieldMessages(t, err, "price"), "The price must be a number.")
		assert.Contains(t, fieldMessages(t, err, "stock"), "The stock must be at least 0.")
		assert.Empty(t, blobs.saved, "no blob may be written on validation failure")
		assert.False(t, createCalled, "no row may be written on validation failure")
	})

	t.Run("failure: unsupported image type", func(t *testing.T) {
		uc := NewProductUsecase(&mockProductRepository{}, &mockBlobStore{})

		in := validCreateInput()
		in.Image = []byte("%PDF-1.4 not an image")
		_, err := uc.Create(context.Background(), in)

		assert.Contains(t, fieldMessages(t, err, "image"), "The image must be a file of type: jpeg, png, jpg, gif, svg.")
	})

	t.Run("failure: oversized image", func(t *testing.T) {
		uc := NewProductUsecase(&mockProductRepository{}, &mockBlobStore{})

		in := validCreateInput()
		in.Image = append(append([]byte{}, pngBytes...), make([]byte, 2048*1024)...)
		_, err := uc.Create(context.Background(), in)

		assert.Contains(t, fieldMessages(t, err, "image"), "The image may not be greater than 2048 kilobytes.")
	})

	t.Run("failure: blob save aborts before the row", func(t *testing.T) {
		blobs := &mockBlobStore{
			SaveFunc: func(_ context.Context, _ string, _ []byte) error {
				return errors.New("disk full")
			},
		}
		createCalled := false
		repo := &mockProductRepository{
			CreateFunc: func(_ context.Context, _ *entity.Product) error {
				createCalled = true
				return nil
			},
		}
		uc := NewProductUsecase(repo, blobs)

		_, err := uc.Create(context.Background(), validCreateInput())
		assert.Error(t, err)
		assert.False(t, createCalled, "row must not be created when the blob save fails")
	})

	t.Run("failure: row insert cleans up the orphaned blob", func(t *testing.T) {
		blobs := &mockBlobStore{}
		repo := &mockProductRepository{
			CreateFunc: func(_ context.Context, _ *entity.Product) error {
				return errors.New("db gone")
			},
		}
		uc := NewProductUsecase(repo, blobs)

		_, err := uc.Create(context.Background(), validCreateInput())
		assert.Error(t, err)
		require.Len(t, blobs.saved, 1)
		assert.Equal(t, blobs.saved, blobs.deleted, "orphaned blob must be removed")
	})
}

func TestProductUsecase_Update(t *testing.T) {
	existing := func() *entity.Product {
		return &entity.Product{
			ID:          1,
			Image:       "old.png",
			Title:       "Widget",
			Description: "A fine widget",
			Price:       19.99,
			Stock:       3,
			Status:      entity.StatusAvailable,
		}
	}

	strPtr := func(s string) *string { return &s }

	t.Run("success: partial update keeps omitted fields", func(t *testing.T) {
		var updated *entity.Product
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing(), nil },
			UpdateFunc: func(_ context.Context, p *entity.Product) error {
				updated = p
				return nil
			},
		}
		uc := NewProductUsecase(repo, &mockBlobStore{})

		product, err := uc.Update(context.Background(), 1, UpdateInput{Stock: strPtr("0")})
		require.NoError(t, err)

		// 在庫だけ変わり、statusが再導出される
		assert.Equal(t, 0, updated.Stock)
		assert.Equal(t, entity.StatusUnavailable, updated.Status)
		assert.Equal(t, "Widget", updated.Title)
		assert.Equal(t, 19.99, updated.Price)
		assert.Equal(t, "old.png", product.Image, "image is untouched without a new upload")
	})

	t.Run("success: image replacement deletes the old blob last", func(t *testing.T) {
		blobs := &mockBlobStore{}
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing(), nil },
		}
		uc := NewProductUsecase(repo, blobs)

		product, err := uc.Update(context.Background(), 1, UpdateInput{Image: pngBytes})
		require.NoError(t, err)

		require.Len(t, blobs.saved, 1)
		assert.Equal(t, blobs.saved[0], product.Image)
		assert.Equal(t, []string{"old.png"}, blobs.deleted, "replaced blob is deleted after the row update")
	})

	t.Run("failure: row update cleans up the new blob, old reference survives", func(t *testing.T) {
		blobs := &mockBlobStore{}
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing(), nil },
			UpdateFunc: func(_ context.Context, _ *entity.Product) error {
				return errors.New("db gone")
			},
		}
		uc := NewProductUsecase(repo, blobs)

		_, err := uc.Update(context.Background(), 1, UpdateInput{Image: pngBytes})
		assert.Error(t, err)
		require.Len(t, blobs.saved, 1)
		assert.Equal(t, blobs.saved, blobs.deleted, "new blob must be cleaned up, not the old one")
	})

	t.Run("failure: unknown product", func(t *testing.T) {
		uc := NewProductUsecase(&mockProductRepository{}, &mockBlobStore{})

		_, err := uc.Update(context.Background(), 999, UpdateInput{Stock: strPtr("1")})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("failure: invalid field leaves everything untouched", func(t *testing.T) {
		blobs := &mockBlobStore{}
		updateCalled := false
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing(), nil },
			UpdateFunc: func(_ context.Context, _ *entity.Product) error {
				updateCalled = true
				return nil
			},
		}
		uc := NewProductUsecase(repo, blobs)

		_, err := uc.Update(context.Background(), 1, UpdateInput{Image: pngBytes, Price: strPtr("-5")})

		assert.Contains(t, fieldMessages(t, err, "price"), "The price must be at least 0.")
		assert.Empty(t, blobs.saved, "no blob may be written on validation failure")
		assert.False(t, updateCalled)
	})
}

func TestProductUsecase_Delete(t *testing.T) {
	existing := &entity.Product{ID: 1, Image: "img.png", Title: "Widget", Stock: 1}

	t.Run("success: blob then row", func(t *testing.T) {
		blobs := &mockBlobStore{}
		var order []string
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing, nil },
			DeleteFunc: func(_ context.Context, id uint) error {
				order = append(order, "row")
				return nil
			},
		}
		blobs.DeleteFunc = func(_ context.Context, _ string) error {
			order = append(order, "blob")
			return nil
		}
		uc := NewProductUsecase(repo, blobs)

		require.NoError(t, uc.Delete(context.Background(), 1))
		assert.Equal(t, []string{"blob", "row"}, order, "blob is deleted before the row")
		assert.Equal(t, []string{"img.png"}, blobs.deleted)
	})

	t.Run("success: blob failure is logged, row still deleted", func(t *testing.T) {
		blobs := &mockBlobStore{
			DeleteFunc: func(_ context.Context, _ string) error { return errors.New("io error") },
		}
		rowDeleted := false
		repo := &mockProductRepository{
			FindByIDFunc: func(_ context.Context, _ uint) (*entity.Product, error) { return existing, nil },
			DeleteFunc: func(_ context.Context, _ uint) error {
				rowDeleted = true
				return nil
			},
		}
		uc := NewProductUsecase(repo, blobs)

		require.NoError(t, uc.Delete(context.Background(), 1))
		assert.True(t, rowDeleted, "row deletion proceeds past a blob failure")
	})

	t.Run("failure: unknown product", func(t *testing.T) {
		blobs := &mockBlobStore{}
		uc := NewProductUsecase(&mockProductRepository{}, blobs)

		err := uc.Delete(context.Background(), 999)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Empty(t, blobs.deleted, "no blob may be touched for a missing product")
	})
}

func TestProductUsecase_List(t *testing.T) {
	t.Run("fixed page size and offset", func(t *testing.T) {
		var gotOffset, gotLimit int
		repo := &mockProductRepository{
			ListFunc: func(_ context.Context, offset, limit int) ([]entity.Product, int64, error) {
				gotOffset, gotLimit = offset, limit
				return []entity.Product{{ID: 6}}, 6, nil
			},
		}
		uc := NewProductUsecase(repo, &mockBlobStore{})

		out, err := uc.List(context.Background(), 2)
		require.NoError(t, err)

		assert.Equal(t, 5, gotLimit)
		assert.Equal(t, 5, gotOffset)
		assert.Equal(t, 2, out.Page)
		assert.Equal(t, 5, out.PerPage)
		assert.Equal(t, int64(6), out.Total)
	})

	t.Run("page below 1 is clamped", func(t *testing.T) {
		var gotOffset int
		repo := &mockProductRepository{
			ListFunc: func(_ context.Context, offset, _ int) ([]entity.Product, int64, error) {
				gotOffset = offset
				return nil, 0, nil
			},
		}
		uc := NewProductUsecase(repo, &mockBlobStore{})

		out, err := uc.List(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, gotOffset)
		assert.Equal(t, 1, out.Page)
	})
}
