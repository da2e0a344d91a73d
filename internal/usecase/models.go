package usecase

import (
	"image"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// GEO USECASE

// NearbyReq — запрос поиска точек интереса в радиусе.
// Центр задаётся либо координатами (Lat и Lon), либо именем якоря.
type NearbyReq struct {
	Lat        *float64
	Lon        *float64
	Anchor     string
	RadiusKm   float64
	Categories []domain.Category
	Keyword    string
	Limit      int
}

// AnchorInfo описывает, какая точка была выбрана якорем.
type AnchorInfo struct {
	ID        string
	Name      string
	Matches   int
	Ambiguous bool
}

// NearbyRes — результат поиска в радиусе.
type NearbyRes struct {
	Center  domain.Point
	Anchor  *AnchorInfo
	Items   []domain.POIDistance
	Total   int // до применения Limit
	Skipped int // кандидаты без координат
}

// VISUAL USECASE

// SimilarImagesReq — запрос поиска похожих эталонных изображений.
type SimilarImagesReq struct {
	Image image.Image
	K     int
}

// SimilarItem — найденное эталонное изображение. POI заполнен, если ID есть в каталоге.
type SimilarItem struct {
	ID    string
	Score float64
	POI   *domain.POI
}

// SimilarImagesRes — ответ визуального поиска.
type SimilarImagesRes struct {
	Model  string
	Cached bool
	Items  []SimilarItem
}

// CATALOG USECASE

// ListPOIsReq — фильтр карты точек интереса.
type ListPOIsReq struct {
	City       string
	Categories []domain.Category
	Keyword    string
	Limit      int
}

// AttractionFilter — фильтр планировщика достопримечательностей.
type AttractionFilter struct {
	FreeOnly       bool
	Classes        []string
	RequireParking bool
	RequireTraffic bool
}

// EventFilter — фильтр мероприятий по пересечению с периодом и по темам.
type EventFilter struct {
	From    *time.Time
	To      *time.Time
	Classes []string
}

// HotelFilter — фильтр отелей по минимальной цене и типу.
type HotelFilter struct {
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Types    []string
}

// RestaurantFilter — фильтр ресторанов по городу и кухне.
type RestaurantFilter struct {
	City     string
	Cuisines []string
}

// MEMBER USECASE

// RegisterReq — регистрация пользователя.
type RegisterReq struct {
	Username string
	Email    string
	Password string
}

// LoginReq — вход по имени пользователя или email.
type LoginReq struct {
	Login    string
	Password string
}

// AuthRes — выданный токен доступа.
type AuthRes struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// SaveItemReq — добавление точки интереса в избранное или корзину.
// Поля снимка берутся из каталога, если ItemID в нём найден.
type SaveItemReq struct {
	UserID   int64
	ItemID   string
	Category domain.Category
	Name     string
	ImageURL string
	Location string
}

// CreateItineraryReq — создание маршрута.
type CreateItineraryReq struct {
	UserID    int64
	Title     string
	StartDate *time.Time
	EndDate   *time.Time
}

// AddDetailReq — добавление пункта в маршрут.
type AddDetailReq struct {
	UserID      int64
	ItineraryID int64
	DayNumber   int
	ItemID      string
	Category    domain.Category
	Name        string
	StartTime   string
	EndTime     string
}

// DetailPosition — новое место пункта маршрута после перетаскивания.
type DetailPosition struct {
	DetailID  int64
	DayNumber int
	SortOrder int
}

// INDEX USECASE

// BuildIndexReq — параметры офлайн-построения индекса.
type BuildIndexReq struct {
	ImagesDir  string
	OutputPath string
	Model      string
	Workers    int
	// Синхронизация с внешними хранилищами
	UploadObjects bool
	SyncQdrant    bool
	Publish       bool
}

// BuildIndexRes — итог построения индекса.
type BuildIndexRes struct {
	Index     *domain.EmbeddingIndex
	Skipped   []SkippedImage
	ObjectKey string
}

// SkippedImage — изображение, которое не удалось проиндексировать.
type SkippedImage struct {
	Path   string
	Reason string
}

// INFRASTRUCTURE

// ReferenceImage — эталонное изображение для загрузки в S3.
type ReferenceImage struct {
	ID       string
	Data     []byte
	MimeType string
}

// UploadImagesReq — запрос на загрузку эталонных изображений.
type UploadImagesReq struct {
	Prefix string
	Images []ReferenceImage
}

// UploadImagesRes — ключи загруженных объектов в порядке запроса.
type UploadImagesRes struct {
	ImagesKeys []string
}

// WriteMessageReq — доменное событие для Kafka.
type WriteMessageReq struct {
	Key       string
	EventType OutboxEventType
	Fields    map[string]any
}

// WriteRawMessageReq — уже сериализованное событие (из outbox).
type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// MAPPERS

func NewAnchorInfo(poi domain.POI, matches int) *AnchorInfo {
	return &AnchorInfo{
		ID:        poi.ID,
		Name:      poi.Name,
		Matches:   matches,
		Ambiguous: matches > 1,
	}
}

func NewSimilarItem(id string, score float64, poi *domain.POI) SimilarItem {
	return SimilarItem{ID: id, Score: score, POI: poi}
}

func NewUploadImagesReq(prefix string, images []ReferenceImage) *UploadImagesReq {
	return &UploadImagesReq{Prefix: prefix, Images: images}
}

func NewUploadImagesRes(imagesKeys []string) *UploadImagesRes {
	return &UploadImagesRes{ImagesKeys: imagesKeys}
}

func NewWriteMessageReq(key string, eventType OutboxEventType, fields map[string]any) *WriteMessageReq {
	return &WriteMessageReq{Key: key, EventType: eventType, Fields: fields}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{Key: key, Payload: payload}
}
