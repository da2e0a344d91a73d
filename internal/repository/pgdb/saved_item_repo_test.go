package pgdb

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/repository/pgdb/converter"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var savedItemColumns = []string{"id", "user_id", "item_id", "category", "name", "image_url", "location", "created_at"}

func TestSavedItemRepo_Add(t *testing.T) {
	pool := newMockPool(t)
	repo := NewFavoriteRepo(pool, converter.SavedItemConverterImpl{})
	ctx := txCtx(t, pool)
	now := time.Now()

	item := &domain.SavedItem{
		UserID: 5, ItemID: "A1", Category: domain.CategoryAttraction,
		Name: "Taipei 101", ImageURL: "https://img/a1.jpg", Location: "Taipei Xinyi",
	}

	pool.ExpectQuery("INSERT INTO favorites").
		WithArgs(int64(5), "A1", "attraction", "Taipei 101", "https://img/a1.jpg", "Taipei Xinyi").
		WillReturnRows(pgxmock.NewRows(append(savedItemColumns, "created")).
			AddRow(int64(1), int64(5), "A1", "attraction", "Taipei 101", "https://img/a1.jpg", "Taipei Xinyi", now, true))
	pool.ExpectQuery("INSERT INTO favorites").
		WithArgs(int64(5), "A1", "attraction", "Taipei 101", "https://img/a1.jpg", "Taipei Xinyi").
		WillReturnRows(pgxmock.NewRows(append(savedItemColumns, "created")).
			AddRow(int64(1), int64(5), "A1", "attraction", "Taipei 101", "https://img/a1.jpg", "Taipei Xinyi", now, false))

	saved, created, err := repo.Add(ctx, item)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, domain.CategoryAttraction, saved.Category)

	again, created, err := repo.Add(ctx, item)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, saved.ID, again.ID)
}

func TestSavedItemRepo_ListAndRemove(t *testing.T) {
	pool := newMockPool(t)
	repo := NewCartRepo(pool, converter.SavedItemConverterImpl{})
	now := time.Now()

	pool.ExpectQuery("FROM cart_items").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(savedItemColumns).
			AddRow(int64(2), int64(5), "H1", "hotel", "Grand Hotel", "", "Taipei", now).
			AddRow(int64(1), int64(5), "R1", "restaurant", "Din Tai Fung", "", "Taipei", now))

	items, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "H1", items[0].ItemID)
	assert.Equal(t, domain.CategoryRestaurant, items[1].Category)

	ctx := txCtx(t, pool)
	pool.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(5), "H1", "hotel").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(5), "H1", "hotel").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	pool.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := repo.Remove(ctx, 5, "H1", domain.CategoryHotel)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, 5, "H1", domain.CategoryHotel)
	require.NoError(t, err)
	assert.False(t, removed)

	cleared, err := repo.Clear(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
}
