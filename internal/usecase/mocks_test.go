package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/imageproc"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockSavedItemRepo struct{ mock.Mock }

func (m *MockSavedItemRepo) Add(ctx context.Context, item *domain.SavedItem) (*domain.SavedItem, bool, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.SavedItem), args.Bool(1), args.Error(2)
}

func (m *MockSavedItemRepo) List(ctx context.Context, userID int64) ([]domain.SavedItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavedItem), args.Error(1)
}

func (m *MockSavedItemRepo) Remove(ctx context.Context, userID int64, itemID string, category domain.Category) (bool, error) {
	args := m.Called(ctx, userID, itemID, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockSavedItemRepo) Clear(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockItineraryRepo struct{ mock.Mock }

func (m *MockItineraryRepo) Create(ctx context.Context, itinerary *domain.Itinerary) (*domain.Itinerary, error) {
	args := m.Called(ctx, itinerary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Itinerary), args.Error(1)
}

func (m *MockItineraryRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Itinerary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Itinerary), args.Error(1)
}

func (m *MockItineraryRepo) Get(ctx context.Context, userID, itineraryID int64) (*domain.Itinerary, error) {
	args := m.Called(ctx, userID, itineraryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Itinerary), args.Error(1)
}

func (m *MockItineraryRepo) Delete(ctx context.Context, userID, itineraryID int64) error {
	return m.Called(ctx, userID, itineraryID).Error(0)
}

func (m *MockItineraryRepo) AddDetail(ctx context.Context, detail *domain.ItineraryDetail) (*domain.ItineraryDetail, error) {
	args := m.Called(ctx, detail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ItineraryDetail), args.Error(1)
}

func (m *MockItineraryRepo) UpdatePositions(ctx context.Context, itineraryID int64, positions []DetailPosition) error {
	return m.Called(ctx, itineraryID, positions).Error(0)
}

type MockOutboxRepo struct{ mock.Mock }

func (m *MockOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepo) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type MockTokenManager struct{ mock.Mock }

func (m *MockTokenManager) Issue(userID int64, username string) (string, time.Time, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, tensor *imageproc.Tensor) (domain.Vector, error) {
	args := m.Called(ctx, tensor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Vector), args.Error(1)
}

type MockSimilarityCache struct{ mock.Mock }

func (m *MockSimilarityCache) GetMatches(ctx context.Context, key string) ([]domain.Match, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Match), args.Bool(1), args.Error(2)
}

func (m *MockSimilarityCache) SetMatches(ctx context.Context, key string, matches []domain.Match) error {
	return m.Called(ctx, key, matches).Error(0)
}

type MockEmbeddingRepo struct{ mock.Mock }

func (m *MockEmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	return m.Called(ctx, vectors).Error(0)
}

func (m *MockEmbeddingRepo) Search(ctx context.Context, query domain.Vector, k int) ([]domain.Match, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

type MockImagesInfra struct{ mock.Mock }

func (m *MockImagesInfra) UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadImagesRes), args.Error(1)
}

func (m *MockImagesInfra) CleanupImages(keys []string) {
	m.Called(keys)
}

type MockIndexStorage struct{ mock.Mock }

func (m *MockIndexStorage) PublishIndex(ctx context.Context, path string, createdAt time.Time) (string, error) {
	args := m.Called(ctx, path, createdAt)
	return args.String(0), args.Error(1)
}

func (m *MockIndexStorage) FetchIndex(ctx context.Context, objectKey string, path string) error {
	return m.Called(ctx, objectKey, path).Error(0)
}

type MockProducer struct{ mock.Mock }

func (m *MockProducer) WriteMessage(ctx context.Context, req *WriteMessageReq) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockProducer) WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error {
	return m.Called(ctx, req).Error(0)
}

func ptr[T any](v T) *T {
	return &v
}

// testCatalog — небольшой каталог вокруг Тайбэя.
func testCatalog() *domain.Catalog {
	return domain.NewCatalog(
		[]domain.Attraction{
			{
				POI: domain.POI{ID: "A1", Name: "Taipei 101 Observatory", Category: domain.CategoryAttraction,
					ClassName: "文化類", City: "Taipei", Town: "Xinyi", Lat: ptr(25.0340), Lon: ptr(121.5645),
					ThumbnailURL: "https://img/a1.jpg"},
				ClassNames:  []string{"文化類", "其他"},
				FeeInfo:     "600 TWD",
				ParkingInfo: "B1-B5",
				TrafficInfo: "MRT Taipei 101",
			},
			{
				POI: domain.POI{ID: "A2", Name: "Elephant Mountain", Category: domain.CategoryAttraction,
					ClassName: "自然風景類", City: "Taipei", Town: "Xinyi", Lat: ptr(25.0275), Lon: ptr(121.5770)},
				ClassNames:          []string{"自然風景類"},
				IsAccessibleForFree: true,
				TrafficInfo:         "MRT Xiangshan",
			},
			{
				POI: domain.POI{ID: "A3", Name: "Sun Moon Lake", Category: domain.CategoryAttraction,
					ClassName: "自然風景類", City: "Nantou", Lat: ptr(23.8600), Lon: ptr(120.9160)},
				ClassNames: []string{"自然風景類"},
			},
		},
		[]domain.Event{
			{
				POI:        domain.POI{ID: "E1", Name: "Taipei Lantern Festival", Category: domain.CategoryEvent, City: "Taipei"},
				ClassNames: []string{"節慶活動"},
				Start:      ptr(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
				End:        ptr(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)),
			},
			{
				POI:        domain.POI{ID: "E2", Name: "Jazz Night", Category: domain.CategoryEvent, City: "Taipei"},
				ClassNames: []string{"藝文活動"},
				Start:      ptr(time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)),
			},
			{
				POI:        domain.POI{ID: "E3", Name: "Undated Fair", Category: domain.CategoryEvent, City: "Taipei"},
				ClassNames: []string{"節慶活動"},
			},
		},
		[]domain.Hotel{
			{POI: domain.POI{ID: "H1", Name: "Grand Hotel", Category: domain.CategoryHotel, ClassName: "國際觀光旅館",
				City: "Taipei", Lat: ptr(25.0790), Lon: ptr(121.5260)}, LowestPrice: ptr(4800.0)},
			{POI: domain.POI{ID: "H2", Name: "Backpackers Inn", Category: domain.CategoryHotel, ClassName: "民宿",
				City: "Taipei"}, LowestPrice: ptr(900.0)},
			{POI: domain.POI{ID: "H3", Name: "Mystery Hotel", Category: domain.CategoryHotel, ClassName: "民宿",
				City: "Taipei"}, LowestPrice: ptr(0.0)},
		},
		[]domain.Restaurant{
			{POI: domain.POI{ID: "R1", Name: "Din Tai Fung Xinyi", Category: domain.CategoryRestaurant, City: "Taipei",
				Lat: ptr(25.0335), Lon: ptr(121.5650)}, CuisineNames: []string{"中式美食"}},
			{POI: domain.POI{ID: "R2", Name: "Tainan Rice Cake", Category: domain.CategoryRestaurant, City: "Tainan"},
				CuisineNames: []string{"地方特產", "小吃"}},
		},
	)
}
