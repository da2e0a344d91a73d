package pgdb

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	itineraryColumns = []string{"id", "user_id", "title", "start_date", "end_date", "created_at"}
	detailColumns    = []string{
		"id", "itinerary_id", "day_number", "item_id", "name", "category", "image_url", "location",
		"sort_order", "start_time", "end_time",
	}
)

func TestItineraryRepo_Create(t *testing.T) {
	pool := newMockPool(t)
	repo := NewItineraryRepo(pool, converter.ItineraryConverterImpl{})
	ctx := txCtx(t, pool)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	pool.ExpectQuery("INSERT INTO itineraries").
		WithArgs(int64(5), "Taipei weekend", &start, (*time.Time)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), now))

	it, err := repo.Create(ctx, &domain.Itinerary{UserID: 5, Title: "Taipei weekend", StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, int64(9), it.ID)
	assert.Equal(t, &start, it.StartDate)
	assert.Nil(t, it.EndDate)
}

func TestItineraryRepo_GetWithDetails(t *testing.T) {
	pool := newMockPool(t)
	repo := NewItineraryRepo(pool, converter.ItineraryConverterImpl{})
	now := time.Now()

	pool.ExpectQuery("FROM itineraries").
		WithArgs(int64(9), int64(5)).
		WillReturnRows(pgxmock.NewRows(itineraryColumns).
			AddRow(int64(9), int64(5), "Taipei weekend", nil, nil, now))
	pool.ExpectQuery("FROM itinerary_details").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(detailColumns).
			AddRow(int64(1), int64(9), int32(1), "A1", "Taipei 101", "attraction", "", "Taipei", int32(0), "09:00", "11:00").
			AddRow(int64(2), int64(9), int32(1), "R1", "Din Tai Fung", "restaurant", "", "Taipei", int32(1), "12:00", ""))

	it, err := repo.Get(context.Background(), 5, 9)
	require.NoError(t, err)
	assert.Equal(t, "Taipei weekend", it.Title)
	require.Len(t, it.Details, 2)
	assert.Equal(t, 1, it.Details[1].SortOrder)
	assert.Equal(t, domain.CategoryRestaurant, it.Details[1].Category)
	assert.Equal(t, "09:00", it.Details[0].StartTime)
}

func TestItineraryRepo_GetForeign(t *testing.T) {
	pool := newMockPool(t)
	repo := NewItineraryRepo(pool, converter.ItineraryConverterImpl{})

	pool.ExpectQuery("FROM itineraries").
		WithArgs(int64(9), int64(6)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), 6, 9)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestItineraryRepo_DeleteAndDetails(t *testing.T) {
	pool := newMockPool(t)
	repo := NewItineraryRepo(pool, converter.ItineraryConverterImpl{})
	ctx := txCtx(t, pool)

	pool.ExpectQuery("INSERT INTO itinerary_details").
		WithArgs(int64(9), int32(2), "A2", "Elephant Mountain", "attraction", "", "Taipei Xinyi", int32(0), "06:00", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	detail, err := repo.AddDetail(ctx, &domain.ItineraryDetail{
		ItineraryID: 9, DayNumber: 2, ItemID: "A2", Name: "Elephant Mountain",
		Category: domain.CategoryAttraction, Location: "Taipei Xinyi", StartTime: "06:00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.ID)
	assert.Equal(t, 2, detail.DayNumber)

	pool.ExpectExec("UPDATE itinerary_details").
		WithArgs(int32(1), int32(0), int64(3), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec("UPDATE itinerary_details").
		WithArgs(int32(1), int32(1), int64(77), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdatePositions(ctx, 9, []usecase.DetailPosition{
		{DetailID: 3, DayNumber: 1, SortOrder: 0},
		{DetailID: 77, DayNumber: 1, SortOrder: 1},
	})
	assert.ErrorIs(t, err, e.ErrNotFound)

	pool.ExpectExec("DELETE FROM itineraries").
		WithArgs(int64(9), int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec("DELETE FROM itineraries").
		WithArgs(int64(9), int64(6)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(ctx, 5, 9))
	assert.ErrorIs(t, repo.Delete(ctx, 6, 9), e.ErrNotFound)
}
