package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// GetByLogin ищет пользователя по имени или email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
}

// SavedItemRepository обслуживает избранное и корзину: у них одинаковая форма записей.
type SavedItemRepository interface {
	// Add идемпотентен по (UserID, ItemID, Category). created=false, если запись уже была.
	Add(ctx context.Context, item *domain.SavedItem) (saved *domain.SavedItem, created bool, err error)
	List(ctx context.Context, userID int64) ([]domain.SavedItem, error)
	Remove(ctx context.Context, userID int64, itemID string, category domain.Category) (bool, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *domain.Itinerary) (*domain.Itinerary, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Itinerary, error)
	// Get возвращает маршрут с пунктами. Чужой маршрут неотличим от отсутствующего.
	Get(ctx context.Context, userID, itineraryID int64) (*domain.Itinerary, error)
	Delete(ctx context.Context, userID, itineraryID int64) error
	AddDetail(ctx context.Context, detail *domain.ItineraryDetail) (*domain.ItineraryDetail, error)
	UpdatePositions(ctx context.Context, itineraryID int64, positions []DetailPosition) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// ReleaseStale возвращает в очередь события, застрявшие в обработке.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SimilarityCacheRepository кэширует результаты визуального поиска.
type SimilarityCacheRepository interface {
	GetMatches(ctx context.Context, key string) ([]domain.Match, bool, error)
	SetMatches(ctx context.Context, key string, matches []domain.Match) error
}

// EmbeddingRepository — внешнее векторное хранилище эталонных эмбеддингов.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	Search(ctx context.Context, query domain.Vector, k int) ([]domain.Match, error)
}

type ObjectRepository interface {
	Upload(ctx context.Context, object *domain.Object) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
