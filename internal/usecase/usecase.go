package usecase

import (
	"context"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
)

type GeoUC interface {
	Nearby(ctx context.Context, req *NearbyReq) (*NearbyRes, error)
}

type VisualUC interface {
	SimilarImages(ctx context.Context, req *SimilarImagesReq) (*SimilarImagesRes, error)
}

type CatalogUC interface {
	ListPOIs(ctx context.Context, req *ListPOIsReq) ([]domain.POI, error)
	Stats(ctx context.Context) domain.Stats
	PlanAttractions(ctx context.Context, f *AttractionFilter) ([]domain.Attraction, error)
	PlanEvents(ctx context.Context, f *EventFilter) ([]domain.Event, error)
	PlanHotels(ctx context.Context, f *HotelFilter) ([]domain.Hotel, error)
	PlanRestaurants(ctx context.Context, f *RestaurantFilter) ([]domain.Restaurant, error)
}

type MemberUC interface {
	Register(ctx context.Context, req *RegisterReq) (*AuthRes, error)
	Login(ctx context.Context, req *LoginReq) (*AuthRes, error)

	AddFavorite(ctx context.Context, req *SaveItemReq) (*domain.SavedItem, error)
	ListFavorites(ctx context.Context, userID int64) ([]domain.SavedItem, error)
	RemoveFavorite(ctx context.Context, userID int64, itemID string, category domain.Category) error

	AddToCart(ctx context.Context, req *SaveItemReq) (*domain.SavedItem, error)
	ListCart(ctx context.Context, userID int64) ([]domain.SavedItem, error)
	RemoveFromCart(ctx context.Context, userID int64, itemID string, category domain.Category) error
	ClearCart(ctx context.Context, userID int64) error

	CreateItinerary(ctx context.Context, req *CreateItineraryReq) (*domain.Itinerary, error)
	ListItineraries(ctx context.Context, userID int64) ([]domain.Itinerary, error)
	GetItinerary(ctx context.Context, userID, itineraryID int64) (*domain.Itinerary, error)
	DeleteItinerary(ctx context.Context, userID, itineraryID int64) error
	AddItineraryDetail(ctx context.Context, req *AddDetailReq) (*domain.ItineraryDetail, error)
	ReorderItinerary(ctx context.Context, userID, itineraryID int64, positions []DetailPosition) (*domain.Itinerary, error)
}

type IndexUC interface {
	BuildIndex(ctx context.Context, req *BuildIndexReq) (*BuildIndexRes, error)
}
