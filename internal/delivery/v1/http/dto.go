package http

import (
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
)

// REQUESTS

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type SaveItemRequest struct {
	ItemID   string `json:"item_id"`
	Category string `json:"category"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Location string `json:"location,omitempty"`
}

type CreateItineraryRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`
}

type AddDetailRequest struct {
	DayNumber int    `json:"day_number"`
	ItemID    string `json:"item_id"`
	Category  string `json:"category,omitempty"`
	Name      string `json:"name,omitempty"`
	StartTime string `json:"start_time,omitempty"` // HH:MM
	EndTime   string `json:"end_time,omitempty"`
}

type PositionRequest struct {
	DetailID  int64 `json:"detail_id"`
	DayNumber int   `json:"day_number"`
	SortOrder int   `json:"sort_order"`
}

type ReorderRequest struct {
	Positions []PositionRequest `json:"positions"`
}

// RESPONSES

type POIResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	ClassName    string   `json:"class_name,omitempty"`
	City         string   `json:"city,omitempty"`
	Town         string   `json:"town,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Description  string   `json:"description,omitempty"`
}

type NearbyItemResponse struct {
	POIResponse
	DistanceKm float64 `json:"distance_km"`
}

type AnchorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Matches   int    `json:"matches"`
	Ambiguous bool   `json:"ambiguous"`
}

type NearbyResponse struct {
	Center  domain.Point         `json:"center"`
	Anchor  *AnchorResponse      `json:"anchor,omitempty"`
	Items   []NearbyItemResponse `json:"items"`
	Total   int                  `json:"total"`
	Skipped int                  `json:"skipped"`
}

type SimilarItemResponse struct {
	ID    string       `json:"id"`
	Score float64      `json:"score"`
	POI   *POIResponse `json:"poi,omitempty"`
}

type SimilarResponse struct {
	Model  string                `json:"model"`
	Cached bool                  `json:"cached"`
	Items  []SimilarItemResponse `json:"items"`
}

type StatsResponse struct {
	Attractions int `json:"attractions"`
	Events      int `json:"events"`
	Hotels      int `json:"hotels"`
	Restaurants int `json:"restaurants"`
	Cities      int `json:"cities"`
	Towns       int `json:"towns"`
}

type AttractionResponse struct {
	POIResponse
	ClassNames          []string `json:"class_names,omitempty"`
	IsAccessibleForFree bool     `json:"is_accessible_for_free"`
	FeeInfo             string   `json:"fee_info,omitempty"`
	ParkingInfo         string   `json:"parking_info,omitempty"`
	TrafficInfo         string   `json:"traffic_info,omitempty"`
	WebsiteURL          string   `json:"website_url,omitempty"`
}

type EventResponse struct {
	POIResponse
	ClassNames []string   `json:"class_names,omitempty"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	Status     string     `json:"status,omitempty"`
}

type HotelResponse struct {
	POIResponse
	LowestPrice  *float64 `json:"lowest_price,omitempty"`
	CeilingPrice *float64 `json:"ceiling_price,omitempty"`
	Stars        string   `json:"stars,omitempty"`
	ServiceInfo  string   `json:"service_info,omitempty"`
	ParkingInfo  string   `json:"parking_info,omitempty"`
}

type RestaurantResponse struct {
	POIResponse
	CuisineNames []string `json:"cuisine_names,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty"`
	ServiceTime  string   `json:"service_time,omitempty"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type SavedItemResponse struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ItineraryDetailResponse struct {
	ID        int64  `json:"id"`
	DayNumber int    `json:"day_number"`
	SortOrder int    `json:"sort_order"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImageURL  string `json:"image_url,omitempty"`
	Location  string `json:"location,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type ItineraryResponse struct {
	ID        int64                     `json:"id"`
	Title     string                    `json:"title"`
	StartDate string                    `json:"start_date,omitempty"`
	EndDate   string                    `json:"end_date,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	Details   []ItineraryDetailResponse `json:"details"`
}

// MAPPERS

func toPOIResponse(p domain.POI) POIResponse {
	return POIResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     string(p.Category),
		ClassName:    p.ClassName,
		City:         p.City,
		Town:         p.Town,
		Lat:          p.Lat,
		Lon:          p.Lon,
		ThumbnailURL: p.ThumbnailURL,
		Description:  p.Description,
	}
}

func toArrPOIResponse(pois []domain.POI) []POIResponse {
	res := make([]POIResponse, 0, len(pois))
	for _, p := range pois {
		res = append(res, toPOIResponse(p))
	}

	return res
}

func toNearbyResponse(res *usecase.NearbyRes) NearbyResponse {
	out := NearbyResponse{
		Center:  res.Center,
		Items:   make([]NearbyItemResponse, 0, len(res.Items)),
		Total:   res.Total,
		Skipped: res.Skipped,
	}
	if res.Anchor != nil {
		out.Anchor = &AnchorResponse{
			ID:        res.Anchor.ID,
			Name:      res.Anchor.Name,
			Matches:   res.Anchor.Matches,
			Ambiguous: res.Anchor.Ambiguous,
		}
	}
	for _, item := range res.Items {
		out.Items = append(out.Items, NearbyItemResponse{
			POIResponse: toPOIResponse(item.POI),
			DistanceKm:  item.DistanceKm,
		})
	}

	return out
}

func toSimilarResponse(res *usecase.SimilarImagesRes) SimilarResponse {
	out := SimilarResponse{
		Model:  res.Model,
		Cached: res.Cached,
		Items:  make([]SimilarItemResponse, 0, len(res.Items)),
	}
	for _, item := range res.Items {
		resp := SimilarItemResponse{ID: item.ID, Score: item.Score}
		if item.POI != nil {
			poi := toPOIResponse(*item.POI)
			resp.POI = &poi
		}
		out.Items = append(out.Items, resp)
	}

	return out
}

func toStatsResponse(s domain.Stats) StatsResponse {
	return StatsResponse{
		Attractions: s.Attractions,
		Events:      s.Events,
		Hotels:      s.Hotels,
		Restaurants: s.Restaurants,
		Cities:      s.Cities,
		Towns:       s.Towns,
	}
}

func toArrAttractionResponse(items []domain.Attraction) []AttractionResponse {
	res := make([]AttractionResponse, 0, len(items))
	for _, a := range items {
		res = append(res, AttractionResponse{
			POIResponse:         toPOIResponse(a.POI),
			ClassNames:          a.ClassNames,
			IsAccessibleForFree: a.IsAccessibleForFree,
			FeeInfo:             a.FeeInfo,
			ParkingInfo:         a.ParkingInfo,
			TrafficInfo:         a.TrafficInfo,
			WebsiteURL:          a.WebsiteURL,
		})
	}

	return res
}

func toArrEventResponse(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, ev := range items {
		res = append(res, EventResponse{
			POIResponse: toPOIResponse(ev.POI),
			ClassNames:  ev.ClassNames,
			Start:       ev.Start,
			End:         ev.End,
			Status:      ev.Status,
		})
	}

	return res
}

func toArrHotelResponse(items []domain.Hotel) []HotelResponse {
	res := make([]HotelResponse, 0, len(items))
	for _, h := range items {
		res = append(res, HotelResponse{
			POIResponse:  toPOIResponse(h.POI),
			LowestPrice:  h.LowestPrice,
			CeilingPrice: h.CeilingPrice,
			Stars:        h.Stars,
			ServiceInfo:  h.ServiceInfo,
			ParkingInfo:  h.ParkingInfo,
		})
	}

	return res
}

func toArrRestaurantResponse(items []domain.Restaurant) []RestaurantResponse {
	res := make([]RestaurantResponse, 0, len(items))
	for _, r := range items {
		res = append(res, RestaurantResponse{
			POIResponse:  toPOIResponse(r.POI),
			CuisineNames: r.CuisineNames,
			FeatureNames: r.FeatureNames,
			ServiceTime:  r.ServiceTime,
		})
	}

	return res
}

func toAuthResponse(res *usecase.AuthRes) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:        res.User.ID,
			Username:  res.User.Username,
			Email:     res.User.Email,
			CreatedAt: res.User.CreatedAt,
		},
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}
}

func toSavedItemResponse(item domain.SavedItem) SavedItemResponse {
	return SavedItemResponse{
		ID:        item.ID,
		ItemID:    item.ItemID,
		Category:  string(item.Category),
		Name:      item.Name,
		ImageURL:  item.ImageURL,
		Location:  item.Location,
		CreatedAt: item.CreatedAt,
	}
}

func toArrSavedItemResponse(items []domain.SavedItem) []SavedItemResponse {
	res := make([]SavedItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, toSavedItemResponse(item))
	}

	return res
}

func toDetailResponse(d domain.ItineraryDetail) ItineraryDetailResponse {
	return ItineraryDetailResponse{
		ID:        d.ID,
		DayNumber: d.DayNumber,
		SortOrder: d.SortOrder,
		ItemID:    d.ItemID,
		Name:      d.Name,
		Category:  string(d.Category),
		ImageURL:  d.ImageURL,
		Location:  d.Location,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
	}
}

func toItineraryResponse(it domain.Itinerary) ItineraryResponse {
	res := ItineraryResponse{
		ID:        it.ID,
		Title:     it.Title,
		StartDate: formatDate(it.StartDate),
		EndDate:   formatDate(it.EndDate),
		CreatedAt: it.CreatedAt,
		Details:   make([]ItineraryDetailResponse, 0, len(it.Details)),
	}
	for _, d := range it.Details {
		res.Details = append(res.Details, toDetailResponse(d))
	}

	return res
}

func toArrItineraryResponse(items []domain.Itinerary) []ItineraryResponse {
	res := make([]ItineraryResponse, 0, len(items))
	for _, it := range items {
		res = append(res, toItineraryResponse(it))
	}

	return res
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(dateLayout)
}
