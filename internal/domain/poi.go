package domain

import (
	"strings"

	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

// Category — вид точки интереса.
type Category string

const (
	CategoryAttraction Category = "attraction"
	CategoryEvent      Category = "event"
	CategoryHotel      Category = "hotel"
	CategoryRestaurant Category = "restaurant"
)

// AllCategories возвращает категории в порядке загрузки датасетов.
func AllCategories() []Category {
	return []Category{CategoryAttraction, CategoryEvent, CategoryHotel, CategoryRestaurant}
}

// ParseCategory принимает как единственное, так и множественное число ("hotels").
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	switch c {
	case CategoryAttraction, CategoryEvent, CategoryHotel, CategoryRestaurant:
		return c, nil
	default:
		return "", e.Wrap(s, e.ErrInvalidCategory)
	}
}

// POI — общая форма записи из любого из четырёх датасетов.
type POI struct {
	ID           string
	Name         string
	Category     Category
	ClassName    string // человекочитаемый класс записи из справочника датасета
	City         string
	Town         string
	Lat          *float64
	Lon          *float64
	ThumbnailURL string
	Description  string
}

// Location возвращает координаты, если они заданы и корректны.
// Некорректные координаты никогда не подменяются нулями.
func (p *POI) Location() (Point, bool) {
	if p.Lat == nil || p.Lon == nil {
		return Point{}, false
	}

	pt := NewPoint(*p.Lat, *p.Lon)
	if !pt.Valid() {
		return Point{}, false
	}

	return pt, true
}

// POIDistance — точка интереса с вычисленным расстоянием до центра поиска.
type POIDistance struct {
	POI        POI
	DistanceKm float64
}
