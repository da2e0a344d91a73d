package domain

import "time"

// Attraction — достопримечательность.
type Attraction struct {
	POI
	ClassNames          []string
	IsAccessibleForFree bool
	FeeInfo             string
	ParkingInfo         string
	TrafficInfo         string
	WebsiteURL          string
}

// Event — мероприятие.
type Event struct {
	POI
	ClassNames []string
	Start      *time.Time
	End        *time.Time
	Status     string
}

// Hotel — средство размещения.
type Hotel struct {
	POI
	LowestPrice  *float64
	CeilingPrice *float64
	Stars        string
	ServiceInfo  string
	ParkingInfo  string
}

// Restaurant — заведение питания.
type Restaurant struct {
	POI
	CuisineNames []string
	FeatureNames []string
	ServiceTime  string
}

// Catalog — загруженные один раз при старте датасеты. Только для чтения.
type Catalog struct {
	Attractions []Attraction
	Events      []Event
	Hotels      []Hotel
	Restaurants []Restaurant

	all  []POI
	byID map[string]int
}

// NewCatalog строит объединённое представление в порядке: достопримечательности,
// мероприятия, отели, рестораны. Этот порядок определяет «порядок датасета».
func NewCatalog(attractions []Attraction, events []Event, hotels []Hotel, restaurants []Restaurant) *Catalog {
	c := &Catalog{
		Attractions: attractions,
		Events:      events,
		Hotels:      hotels,
		Restaurants: restaurants,
	}

	total := len(attractions) + len(events) + len(hotels) + len(restaurants)
	c.all = make([]POI, 0, total)
	for _, a := range attractions {
		c.all = append(c.all, a.POI)
	}
	for _, ev := range events {
		c.all = append(c.all, ev.POI)
	}
	for _, h := range hotels {
		c.all = append(c.all, h.POI)
	}
	for _, r := range restaurants {
		c.all = append(c.all, r.POI)
	}

	c.byID = make(map[string]int, total)
	for i, p := range c.all {
		if _, ok := c.byID[p.ID]; !ok {
			c.byID[p.ID] = i
		}
	}

	return c
}

// All возвращает все точки интереса. Срез нельзя изменять.
func (c *Catalog) All() []POI {
	return c.all
}

// ByID ищет точку интереса по идентификатору.
func (c *Catalog) ByID(id string) (POI, bool) {
	i, ok := c.byID[id]
	if !ok {
		return POI{}, false
	}

	return c.all[i], true
}

// Stats — сводные показатели для обзорной страницы.
type Stats struct {
	Attractions int
	Events      int
	Hotels      int
	Restaurants int
	Cities      int
	Towns       int
}

func (c *Catalog) Stats() Stats {
	cities := make(map[string]struct{})
	towns := make(map[string]struct{})
	for _, p := range c.all {
		if p.City != "" {
			cities[p.City] = struct{}{}
		}
		if p.Town != "" {
			towns[p.Town] = struct{}{}
		}
	}

	return Stats{
		Attractions: len(c.Attractions),
		Events:      len(c.Events),
		Hotels:      len(c.Hotels),
		Restaurants: len(c.Restaurants),
		Cities:      len(cities),
		Towns:       len(towns),
	}
}
