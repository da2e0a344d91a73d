// Package dataset загружает четыре JSON-датасета точек интереса в неизменяемый domain.Catalog.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	AttractionsFile = "AttractionList.json"
	EventsFile      = "EventList.json"
	HotelsFile      = "HotelList.json"
	RestaurantsFile = "RestaurantList.json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader читает датасеты из каталога.
type Loader struct {
	dir    string
	logger logger.Logger
}

func NewLoader(dir string, logger logger.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load читает все четыре файла. Отсутствующий файл даёт пустую категорию и предупреждение,
// файл, который не удалось разобрать, — ошибку.
func (l *Loader) Load() (*domain.Catalog, error) {
	var (
		attractions []rawAttraction
		events      []rawEvent
		hotels      []rawHotel
		restaurants []rawRestaurant
	)

	if err := l.readList(AttractionsFile, "Attractions", &attractions); err != nil {
		return nil, err
	}
	if err := l.readList(EventsFile, "Events", &events); err != nil {
		return nil, err
	}
	if err := l.readList(HotelsFile, "Hotels", &hotels); err != nil {
		return nil, err
	}
	if err := l.readList(RestaurantsFile, "Restaurants", &restaurants); err != nil {
		return nil, err
	}

	catalog := domain.NewCatalog(
		toAttractions(attractions),
		toEvents(events),
		toHotels(hotels),
		toRestaurants(restaurants),
	)

	missing := 0
	for _, p := range catalog.All() {
		if _, ok := p.Location(); !ok {
			missing++
		}
	}

	stats := catalog.Stats()
	l.logger.Infof(
		"dataset loaded: attractions=%d events=%d hotels=%d restaurants=%d without_coordinates=%d",
		stats.Attractions, stats.Events, stats.Hotels, stats.Restaurants, missing,
	)

	return catalog, nil
}

// readList читает файл вида {"<key>": [...]} в dst.
func (l *Loader) readList(name, key string, dst any) error {
	path := filepath.Join(l.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warnf("dataset file %s not found, category will be empty", path)
			return nil
		}

		return e.Wrap(whereami.WhereAmI(), err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return e.Wrap(path, err)
	}

	list, ok := envelope[key]
	if !ok {
		return e.Wrap(path, fmt.Errorf("key %q not found", key))
	}

	if err := json.Unmarshal(list, dst); err != nil {
		return e.Wrap(path, err)
	}

	return nil
}

func newPOI(id, name string, category domain.Category, addr rawAddress, lat, lon optFloat, images []rawImage, description string) domain.POI {
	return domain.POI{
		ID:           strings.TrimSpace(id),
		Name:         strings.TrimSpace(name),
		Category:     category,
		City:         strings.TrimSpace(addr.City),
		Town:         strings.TrimSpace(addr.Town),
		Lat:          lat.v,
		Lon:          lon.v,
		ThumbnailURL: thumbnail(images),
		Description:  description,
	}
}

func toAttractions(raw []rawAttraction) []domain.Attraction {
	out := make([]domain.Attraction, 0, len(raw))
	for _, r := range raw {
		poi := newPOI(r.AttractionID, r.AttractionName, domain.CategoryAttraction, r.PostalAddress,
			r.PositionLat, r.PositionLon, r.Images, r.Description)
		names := classNames(r.AttractionClasses, attractionClasses)
		poi.ClassName = first(names)

		out = append(out, domain.Attraction{
			POI:                 poi,
			ClassNames:          names,
			IsAccessibleForFree: r.IsAccessibleForFree != nil && *r.IsAccessibleForFree,
			FeeInfo:             strings.TrimSpace(r.FeeInfo),
			ParkingInfo:         strings.TrimSpace(r.ParkingInfo),
			TrafficInfo:         strings.TrimSpace(r.TrafficInfo),
			WebsiteURL:          r.WebsiteURL,
		})
	}

	return out
}

func toEvents(raw []rawEvent) []domain.Event {
	out := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		poi := newPOI(r.EventID, r.EventName, domain.CategoryEvent, r.PostalAddress,
			r.PositionLat, r.PositionLon, r.Images, r.Description)
		names := classNames(r.EventClasses, eventClasses)
		poi.ClassName = first(names)

		var status string
		if r.EventStatus.v != nil {
			status = strconv.Itoa(*r.EventStatus.v)
		}

		out = append(out, domain.Event{
			POI:        poi,
			ClassNames: names,
			Start:      parseTime(r.StartDateTime),
			End:        parseTime(r.EndDateTime),
			Status:     status,
		})
	}

	return out
}

func toHotels(raw []rawHotel) []domain.Hotel {
	out := make([]domain.Hotel, 0, len(raw))
	for _, r := range raw {
		poi := newPOI(r.HotelID, r.HotelName, domain.CategoryHotel, r.PostalAddress,
			r.PositionLat, r.PositionLon, r.Images, r.Description)

		poi.ClassName = unknownHotelClass
		if len(r.HotelClasses) > 0 {
			if name, ok := hotelClasses[r.HotelClasses[0]]; ok {
				poi.ClassName = name
			}
		}

		var stars string
		if r.HotelStars.v != nil {
			stars = hotelStars[*r.HotelStars.v]
		}

		out = append(out, domain.Hotel{
			POI:          poi,
			LowestPrice:  r.LowestPrice.v,
			CeilingPrice: r.CeilingPrice.v,
			Stars:        stars,
			ServiceInfo:  r.ServiceInfo,
			ParkingInfo:  strings.TrimSpace(r.ParkingInfo),
		})
	}

	return out
}

func toRestaurants(raw []rawRestaurant) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(raw))
	for _, r := range raw {
		poi := newPOI(r.RestaurantID, r.RestaurantName, domain.CategoryRestaurant, r.PostalAddress,
			r.PositionLat, r.PositionLon, r.Images, r.Description)
		cuisines := classNames(r.CuisineClasses, cuisineClasses)
		poi.ClassName = first(cuisines)

		out = append(out, domain.Restaurant{
			POI:          poi,
			CuisineNames: cuisines,
			FeatureNames: classNames(r.RestaurantFeatures, restaurantFeatures),
			ServiceTime:  r.ServiceTime,
		})
	}

	return out
}
