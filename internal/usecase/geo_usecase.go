package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/search"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// GeoUseCase ищет точки интереса вокруг координат или именованного якоря.
type GeoUseCase struct {
	catalog *domain.Catalog
	cache   *cache.Cache
	logger  logger.Logger
}

func NewGeoUC(catalog *domain.Catalog, cacheTTL time.Duration, logger logger.Logger) *GeoUseCase {
	return &GeoUseCase{
		catalog: catalog,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		logger:  logger,
	}
}

// Nearby определяет центр, фильтрует кандидатов по категориям и ключевому слову и выполняет поиск по радиусу.
func (g *GeoUseCase) Nearby(ctx context.Context, req *NearbyReq) (*NearbyRes, error) {
	const op = "GeoUseCase.Nearby"

	limit, err := normalizeLimit(req.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	center, anchor, err := g.resolveCenter(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key := nearbyCacheKey(center, req.RadiusKm, req.Categories, req.Keyword, limit)
	if cached, ok := g.cache.Get(key); ok {
		res := *cached.(*NearbyRes)
		res.Anchor = anchor
		return &res, nil
	}

	candidates := filterPOIs(g.catalog.All(), "", req.Categories, req.Keyword)

	found, err := search.RadiusSearch(center, req.RadiusKm, candidates)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if found.Skipped > 0 {
		g.logger.Debugf("Nearby search skipped %d candidates without coordinates", found.Skipped)
	}

	res := &NearbyRes{
		Center:  center,
		Anchor:  anchor,
		Items:   found.Items,
		Total:   len(found.Items),
		Skipped: found.Skipped,
	}
	if len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}

	g.cache.Set(key, res, cache.DefaultExpiration)

	return res, nil
}

func (g *GeoUseCase) resolveCenter(req *NearbyReq) (domain.Point, *AnchorInfo, error) {
	// половина пары координат не переключает запрос на якорь
	if (req.Lat == nil) != (req.Lon == nil) {
		return domain.Point{}, nil, e.Wrap("lat and lon must be given together", e.ErrInvalidCoordinates)
	}
	if req.Lat != nil {
		center := domain.NewPoint(*req.Lat, *req.Lon)
		if !center.Valid() {
			return domain.Point{}, nil, e.ErrInvalidCoordinates
		}
		return center, nil, nil
	}

	if strings.TrimSpace(req.Anchor) == "" {
		return domain.Point{}, nil, e.ErrMissingFields
	}

	resolved, err := search.ResolveAnchor(req.Anchor, g.catalog.All())
	if err != nil {
		return domain.Point{}, nil, err
	}

	center, ok := resolved.POI.Location()
	if !ok {
		return domain.Point{}, nil, e.Wrap(resolved.POI.ID, e.ErrInvalidCoordinates)
	}
	if resolved.Matches > 1 {
		g.logger.Debugf("Anchor %q matched %d points, using %s", req.Anchor, resolved.Matches, resolved.POI.ID)
	}

	return center, NewAnchorInfo(resolved.POI, resolved.Matches), nil
}

func nearbyCacheKey(center domain.Point, radiusKm float64, categories []domain.Category, keyword string, limit int) string {
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	return fmt.Sprintf("%.6f:%.6f:%g:%s:%s:%d",
		center.Lat, center.Lon, radiusKm, strings.Join(cats, ","), strings.ToLower(strings.TrimSpace(keyword)), limit)
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, fmt.Errorf("%w: limit must be positive", e.ErrInvalidInput)
	case limit == 0:
		return DefaultListLimit, nil
	case limit > MaxListLimit:
		return MaxListLimit, nil
	default:
		return limit, nil
	}
}

// filterPOIs оставляет точки с совпадающим городом, одной из категорий и ключевым словом в имени.
// Пустой фильтр ничего не отсекает.
func filterPOIs(pois []domain.POI, city string, categories []domain.Category, keyword string) []domain.POI {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	city = strings.TrimSpace(city)

	allowed := make(map[domain.Category]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	out := make([]domain.POI, 0, len(pois))
	for _, p := range pois {
		if city != "" && p.City != city {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[p.Category]; !ok {
				continue
			}
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		out = append(out, p)
	}

	return out
}
