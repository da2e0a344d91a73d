package usecase

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	EventUserRegistered     OutboxEventType = "user.registered"
	EventFavoriteAdded      OutboxEventType = "favorite.added"
	EventFavoriteRemoved    OutboxEventType = "favorite.removed"
	EventCartItemAdded      OutboxEventType = "cart.item_added"
	EventCartItemRemoved    OutboxEventType = "cart.item_removed"
	EventCartCleared        OutboxEventType = "cart.cleared"
	EventItineraryCreated   OutboxEventType = "itinerary.created"
	EventItineraryDeleted   OutboxEventType = "itinerary.deleted"
	EventItineraryUpdated   OutboxEventType = "itinerary.updated"
	EventItineraryReordered OutboxEventType = "itinerary.reordered"
	EventIndexPublished     OutboxEventType = "index.published"
)

// OutboxEvent — событие, записанное в той же транзакции, что и изменение данных.
// Воркер outbox публикует его в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID string // ключ партиционирования в Kafka
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewOutboxEvent сериализует поля события в protobuf Struct вместе с конвертом (id, тип, время).
func NewOutboxEvent(eventType OutboxEventType, aggregateID string, fields map[string]any) (*OutboxEvent, error) {
	eventID := uuid.NewString()
	now := time.Now().UTC()

	payload, err := MarshalEventPayload(eventID, eventType, now, fields)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   now,
	}, nil
}

// MarshalEventPayload — общий формат сообщений в Kafka.
func MarshalEventPayload(eventID string, eventType OutboxEventType, at time.Time, fields map[string]any) ([]byte, error) {
	data, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	envelope := &structpb.Struct{Fields: map[string]*structpb.Value{
		"event_id":        structpb.NewStringValue(eventID),
		"event_type":      structpb.NewStringValue(string(eventType)),
		"event_timestamp": structpb.NewNumberValue(float64(at.UnixMilli())),
		"data":            structpb.NewStructValue(data),
	}}

	return proto.Marshal(envelope)
}
