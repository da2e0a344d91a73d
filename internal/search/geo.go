// Package search содержит чистые функции поиска: по радиусу вокруг точки и по визуальному сходству.
// Функции не имеют состояния и безопасны для конкурентного вызова над неизменяемыми данными.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

// RadiusSearchResult — результат поиска по радиусу.
type RadiusSearchResult struct {
	Items []domain.POIDistance
	// Skipped — число кандидатов без пригодных координат.
	Skipped int
}

// RadiusSearch возвращает кандидатов, расстояние до которых не превышает radiusKm,
// отсортированных по возрастанию расстояния. При равенстве сохраняется исходный порядок.
func RadiusSearch(center domain.Point, radiusKm float64, candidates []domain.POI) (*RadiusSearchResult, error) {
	if !center.Valid() {
		return nil, e.ErrInvalidCoordinates
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, e.ErrInvalidRadius
	}

	res := &RadiusSearchResult{Items: make([]domain.POIDistance, 0)}
	for _, candidate := range candidates {
		loc, ok := candidate.Location()
		if !ok {
			res.Skipped++
			continue
		}

		dist := domain.HaversineKm(center, loc)
		if dist <= radiusKm {
			res.Items = append(res.Items, domain.POIDistance{POI: candidate, DistanceKm: dist})
		}
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].DistanceKm < res.Items[j].DistanceKm
	})

	return res, nil
}

// AnchorResolution — результат разрешения якоря по имени.
type AnchorResolution struct {
	POI     domain.POI
	Matches int
}

// ResolveAnchor ищет первую точку интереса, имя которой содержит name без учёта регистра.
// При нескольких совпадениях берётся первое в порядке датасета, Matches сообщает их число.
func ResolveAnchor(name string, candidates []domain.POI) (*AnchorResolution, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, e.ErrMissingFields
	}

	res := &AnchorResolution{}
	for _, candidate := range candidates {
		if !strings.Contains(strings.ToLower(candidate.Name), needle) {
			continue
		}
		if res.Matches == 0 {
			res.POI = candidate
		}
		res.Matches++
	}

	if res.Matches == 0 {
		return nil, e.ErrAnchorNotFound
	}

	return res, nil
}
