package dataset

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// optFloat — координата или цена, которая в датасете бывает числом, строкой или отсутствует.
// Нечисловая строка даёт пустое значение, а не ошибку разбора всего файла.
type optFloat struct {
	v *float64
}

func (o *optFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	o.v = &f

	return nil
}

// optInt — целое, которое бывает строкой.
type optInt struct {
	v *int
}

func (o *optInt) UnmarshalJSON(data []byte) error {
	var f optFloat
	if err := f.UnmarshalJSON(data); err != nil || f.v == nil {
		return err
	}

	i := int(*f.v)
	o.v = &i

	return nil
}

type rawImage struct {
	URL string `json:"URL"`
}

type rawAddress struct {
	City string `json:"City"`
	Town string `json:"Town"`
}

type rawAttraction struct {
	AttractionID        string     `json:"AttractionID"`
	AttractionName      string     `json:"AttractionName"`
	Description         string     `json:"Description"`
	PositionLat         optFloat   `json:"PositionLat"`
	PositionLon         optFloat   `json:"PositionLon"`
	PostalAddress       rawAddress `json:"PostalAddress"`
	AttractionClasses   []int      `json:"AttractionClasses"`
	Images              []rawImage `json:"Images"`
	IsAccessibleForFree *bool      `json:"IsAccessibleForFree"`
	FeeInfo             string     `json:"FeeInfo"`
	ParkingInfo         string     `json:"ParkingInfo"`
	TrafficInfo         string     `json:"TrafficInfo"`
	WebsiteURL          string     `json:"WebsiteURL"`
}

type rawEvent struct {
	EventID       string     `json:"EventID"`
	EventName     string     `json:"EventName"`
	Description   string     `json:"Description"`
	PositionLat   optFloat   `json:"PositionLat"`
	PositionLon   optFloat   `json:"PositionLon"`
	PostalAddress rawAddress `json:"PostalAddress"`
	EventClasses  []int      `json:"EventClasses"`
	Images        []rawImage `json:"Images"`
	StartDateTime string     `json:"StartDateTime"`
	EndDateTime   string     `json:"EndDateTime"`
	EventStatus   optInt     `json:"EventStatus"`
}

type rawHotel struct {
	HotelID       string     `json:"HotelID"`
	HotelName     string     `json:"HotelName"`
	Description   string     `json:"Description"`
	PositionLat   optFloat   `json:"PositionLat"`
	PositionLon   optFloat   `json:"PositionLon"`
	PostalAddress rawAddress `json:"PostalAddress"`
	HotelClasses  []int      `json:"HotelClasses"`
	HotelStars    optInt     `json:"HotelStars"`
	Images        []rawImage `json:"Images"`
	LowestPrice   optFloat   `json:"LowestPrice"`
	CeilingPrice  optFloat   `json:"CeilingPrice"`
	ServiceInfo   string     `json:"ServiceInfo"`
	ParkingInfo   string     `json:"ParkingInfo"`
}

type rawRestaurant struct {
	RestaurantID       string     `json:"RestaurantID"`
	RestaurantName     string     `json:"RestaurantName"`
	Description        string     `json:"Description"`
	PositionLat        optFloat   `json:"PositionLat"`
	PositionLon        optFloat   `json:"PositionLon"`
	PostalAddress      rawAddress `json:"PostalAddress"`
	CuisineClasses     []int      `json:"CuisineClasses"`
	RestaurantFeatures []int      `json:"RestaurantFeatures"`
	Images             []rawImage `json:"Images"`
	ServiceStatus      optInt     `json:"ServiceStatus"`
	ServiceTime        string     `json:"ServiceTime"`
}

func thumbnail(images []rawImage) string {
	if len(images) == 0 {
		return ""
	}

	return images[0].URL
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// parseTime возвращает nil для пустой или нераспознанной даты.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	return nil
}
