package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// PlannerLimit — максимум строк в ответе планировщика.
const PlannerLimit = 50

// CatalogUseCase — просмотр каталога и фильтры планировщика поездки.
type CatalogUseCase struct {
	catalog *domain.Catalog
}

func NewCatalogUC(catalog *domain.Catalog) *CatalogUseCase {
	return &CatalogUseCase{catalog: catalog}
}

func (c *CatalogUseCase) ListPOIs(ctx context.Context, req *ListPOIsReq) ([]domain.POI, error) {
	const op = "CatalogUseCase.ListPOIs"

	limit, err := normalizeLimit(req.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	pois := filterPOIs(c.catalog.All(), req.City, req.Categories, req.Keyword)
	if len(pois) > limit {
		pois = pois[:limit]
	}

	return pois, nil
}

func (c *CatalogUseCase) Stats(ctx context.Context) domain.Stats {
	return c.catalog.Stats()
}

// PlanAttractions: бесплатные — отмеченные как бесплатные или без информации о стоимости.
// Класс сравнивается с основным (первым) классом достопримечательности.
func (c *CatalogUseCase) PlanAttractions(ctx context.Context, f *AttractionFilter) ([]domain.Attraction, error) {
	out := make([]domain.Attraction, 0, PlannerLimit)
	for _, a := range c.catalog.Attractions {
		if len(out) == PlannerLimit {
			break
		}
		if f.FreeOnly && !a.IsAccessibleForFree && strings.TrimSpace(a.FeeInfo) != "" {
			continue
		}
		if len(f.Classes) > 0 && !containsExact(f.Classes, a.ClassName) {
			continue
		}
		if f.RequireParking && strings.TrimSpace(a.ParkingInfo) == "" {
			continue
		}
		if f.RequireTraffic && strings.TrimSpace(a.TrafficInfo) == "" {
			continue
		}
		out = append(out, a)
	}

	return out, nil
}

// PlanEvents оставляет мероприятия, период которых пересекается с [From, To].
// Мероприятие без дат не проходит фильтр по периоду.
func (c *CatalogUseCase) PlanEvents(ctx context.Context, f *EventFilter) ([]domain.Event, error) {
	const op = "CatalogUseCase.PlanEvents"

	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, e.Wrap(op, e.ErrInvalidDateRange)
	}

	out := make([]domain.Event, 0, PlannerLimit)
	for _, ev := range c.catalog.Events {
		if len(out) == PlannerLimit {
			break
		}
		if !overlaps(ev.Start, ev.End, f.From, f.To) {
			continue
		}
		if len(f.Classes) > 0 && !anySubstring(ev.ClassNames, f.Classes) {
			continue
		}
		out = append(out, ev)
	}

	return out, nil
}

// PlanHotels учитывает только отели с известной минимальной ценой. Границы включительные,
// перепутанные местами границы меняются.
func (c *CatalogUseCase) PlanHotels(ctx context.Context, f *HotelFilter) ([]domain.Hotel, error) {
	const op = "CatalogUseCase.PlanHotels"

	minPrice, maxPrice := f.MinPrice, f.MaxPrice
	if minPrice != nil && minPrice.IsNegative() || maxPrice != nil && maxPrice.IsNegative() {
		return nil, e.Wrap(op, e.ErrInvalidPrice)
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		minPrice, maxPrice = maxPrice, minPrice
	}

	out := make([]domain.Hotel, 0, PlannerLimit)
	for _, h := range c.catalog.Hotels {
		if len(out) == PlannerLimit {
			break
		}
		if h.LowestPrice == nil || *h.LowestPrice <= 0 {
			continue
		}

		price := decimal.NewFromFloat(*h.LowestPrice)
		if minPrice != nil && price.LessThan(*minPrice) {
			continue
		}
		if maxPrice != nil && price.GreaterThan(*maxPrice) {
			continue
		}
		if len(f.Types) > 0 && !containsExact(f.Types, h.ClassName) {
			continue
		}
		out = append(out, h)
	}

	return out, nil
}

func (c *CatalogUseCase) PlanRestaurants(ctx context.Context, f *RestaurantFilter) ([]domain.Restaurant, error) {
	city := strings.TrimSpace(f.City)

	out := make([]domain.Restaurant, 0, PlannerLimit)
	for _, r := range c.catalog.Restaurants {
		if len(out) == PlannerLimit {
			break
		}
		if city != "" && r.City != city {
			continue
		}
		if len(f.Cuisines) > 0 && !anySubstring(r.CuisineNames, f.Cuisines) {
			continue
		}
		out = append(out, r)
	}

	return out, nil
}

func containsExact(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}

	return false
}

// anySubstring: хотя бы одно имя содержит хотя бы один из образцов.
func anySubstring(names, patterns []string) bool {
	for _, name := range names {
		for _, p := range patterns {
			if p != "" && strings.Contains(name, p) {
				return true
			}
		}
	}

	return false
}

func overlaps(start, end, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if start == nil && end == nil {
		return false
	}
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}

	if from != nil && end.Before(*from) {
		return false
	}
	if to != nil && start.After(*to) {
		return false
	}

	return true
}
