package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poiIDs(pois []domain.POI) []string {
	out := make([]string, 0, len(pois))
	for _, p := range pois {
		out = append(out, p.ID)
	}
	return out
}

func TestCatalogUseCase_ListPOIs(t *testing.T) {
	uc := NewCatalogUC(testCatalog())
	ctx := context.Background()

	all, err := uc.ListPOIs(ctx, &ListPOIsReq{})
	require.NoError(t, err)
	assert.Len(t, all, 11)

	pois, err := uc.ListPOIs(ctx, &ListPOIsReq{City: "Taipei", Categories: []domain.Category{domain.CategoryHotel}})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2", "H3"}, poiIDs(pois))

	pois, err = uc.ListPOIs(ctx, &ListPOIsReq{Keyword: "lake"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A3"}, poiIDs(pois))

	pois, err = uc.ListPOIs(ctx, &ListPOIsReq{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, poiIDs(pois))

	_, err = uc.ListPOIs(ctx, &ListPOIsReq{Limit: -1})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestCatalogUseCase_PlanAttractions(t *testing.T) {
	uc := NewCatalogUC(testCatalog())
	ctx := context.Background()

	collect := func(list []domain.Attraction) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	res, err := uc.PlanAttractions(ctx, &AttractionFilter{FreeOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3"}, collect(res))

	res, err = uc.PlanAttractions(ctx, &AttractionFilter{Classes: []string{"自然風景類"}, RequireTraffic: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, collect(res))

	res, err = uc.PlanAttractions(ctx, &AttractionFilter{RequireParking: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, collect(res))
}

func TestCatalogUseCase_PlanEvents(t *testing.T) {
	uc := NewCatalogUC(testCatalog())
	ctx := context.Background()

	collect := func(list []domain.Event) []string {
		out := make([]string, 0, len(list))
		for _, ev := range list {
			out = append(out, ev.ID)
		}
		return out
	}

	res, err := uc.PlanEvents(ctx, &EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2", "E3"}, collect(res))

	from := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
	res, err = uc.PlanEvents(ctx, &EventFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2"}, collect(res))

	res, err = uc.PlanEvents(ctx, &EventFilter{From: &from, Classes: []string{"節慶"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, collect(res))

	_, err = uc.PlanEvents(ctx, &EventFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, e.ErrInvalidDateRange)
}

func TestCatalogUseCase_PlanHotels(t *testing.T) {
	uc := NewCatalogUC(testCatalog())
	ctx := context.Background()

	collect := func(list []domain.Hotel) []string {
		out := make([]string, 0, len(list))
		for _, h := range list {
			out = append(out, h.ID)
		}
		return out
	}

	res, err := uc.PlanHotels(ctx, &HotelFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2"}, collect(res), "hotels without a positive price are never listed")

	low, high := decimal.RequireFromString("900"), decimal.RequireFromString("1000")
	res, err = uc.PlanHotels(ctx, &HotelFilter{MinPrice: &high, MaxPrice: &low})
	require.NoError(t, err)
	assert.Equal(t, []string{"H2"}, collect(res))

	res, err = uc.PlanHotels(ctx, &HotelFilter{Types: []string{"國際觀光旅館"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1"}, collect(res))

	negative := decimal.RequireFromString("-1")
	_, err = uc.PlanHotels(ctx, &HotelFilter{MinPrice: &negative})
	assert.ErrorIs(t, err, e.ErrInvalidPrice)
}

func TestCatalogUseCase_PlanRestaurants(t *testing.T) {
	uc := NewCatalogUC(testCatalog())
	ctx := context.Background()

	res, err := uc.PlanRestaurants(ctx, &RestaurantFilter{City: "Tainan"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "R2", res[0].ID)

	res, err = uc.PlanRestaurants(ctx, &RestaurantFilter{Cuisines: []string{"中式"}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "R1", res[0].ID)
}

func TestCatalogUseCase_PlannerLimit(t *testing.T) {
	attractions := make([]domain.Attraction, 0, 70)
	for i := 0; i < 70; i++ {
		attractions = append(attractions, domain.Attraction{POI: domain.POI{ID: "A", Category: domain.CategoryAttraction}})
	}
	uc := NewCatalogUC(domain.NewCatalog(attractions, nil, nil, nil))

	res, err := uc.PlanAttractions(context.Background(), &AttractionFilter{})
	require.NoError(t, err)
	assert.Len(t, res, PlannerLimit)
}

func TestCatalogUseCase_Stats(t *testing.T) {
	uc := NewCatalogUC(testCatalog())

	stats := uc.Stats(context.Background())
	assert.Equal(t, 3, stats.Attractions)
	assert.Equal(t, 3, stats.Events)
	assert.Equal(t, 3, stats.Hotels)
	assert.Equal(t, 2, stats.Restaurants)
	assert.Equal(t, 3, stats.Cities)
}
