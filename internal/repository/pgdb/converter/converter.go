package converter

import (
	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
)

// UserConverter преобразует User между domain и моделью PostgreSQL.
type UserConverter interface {
	ToModel(entity *domain.User) *UserModel
	ToEntity(model *UserModel) *domain.User
}

// SavedItemConverter преобразует записи избранного и корзины.
type SavedItemConverter interface {
	ToModel(entity *domain.SavedItem) *SavedItemModel
	ToEntity(model *SavedItemModel) *domain.SavedItem
}

// ItineraryConverter преобразует маршруты и их пункты.
type ItineraryConverter interface {
	ToModel(entity *domain.Itinerary) *ItineraryModel
	ToEntity(model *ItineraryModel) *domain.Itinerary
	DetailToModel(entity *domain.ItineraryDetail) *ItineraryDetailModel
	DetailToEntity(model *ItineraryDetailModel) *domain.ItineraryDetail
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type UserConverterImpl struct{}

func (UserConverterImpl) ToModel(entity *domain.User) *UserModel {
	if entity == nil {
		return nil
	}
	return &UserModel{
		ID:           entity.ID,
		Username:     entity.Username,
		Email:        entity.Email,
		PasswordHash: entity.PasswordHash,
		CreatedAt:    entity.CreatedAt,
	}
}

func (UserConverterImpl) ToEntity(model *UserModel) *domain.User {
	if model == nil {
		return nil
	}
	return &domain.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}
}

type SavedItemConverterImpl struct{}

func (SavedItemConverterImpl) ToModel(entity *domain.SavedItem) *SavedItemModel {
	if entity == nil {
		return nil
	}
	return &SavedItemModel{
		ID:        entity.ID,
		UserID:    entity.UserID,
		ItemID:    entity.ItemID,
		Category:  string(entity.Category),
		Name:      entity.Name,
		ImageURL:  entity.ImageURL,
		Location:  entity.Location,
		CreatedAt: entity.CreatedAt,
	}
}

func (SavedItemConverterImpl) ToEntity(model *SavedItemModel) *domain.SavedItem {
	if model == nil {
		return nil
	}
	return &domain.SavedItem{
		ID:        model.ID,
		UserID:    model.UserID,
		ItemID:    model.ItemID,
		Category:  domain.Category(model.Category),
		Name:      model.Name,
		ImageURL:  model.ImageURL,
		Location:  model.Location,
		CreatedAt: model.CreatedAt,
	}
}

type ItineraryConverterImpl struct{}

func (ItineraryConverterImpl) ToModel(entity *domain.Itinerary) *ItineraryModel {
	if entity == nil {
		return nil
	}
	return &ItineraryModel{
		ID:        entity.ID,
		UserID:    entity.UserID,
		Title:     entity.Title,
		StartDate: entity.StartDate,
		EndDate:   entity.EndDate,
		CreatedAt: entity.CreatedAt,
	}
}

func (ItineraryConverterImpl) ToEntity(model *ItineraryModel) *domain.Itinerary {
	if model == nil {
		return nil
	}
	return &domain.Itinerary{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		CreatedAt: model.CreatedAt,
	}
}

func (ItineraryConverterImpl) DetailToModel(entity *domain.ItineraryDetail) *ItineraryDetailModel {
	if entity == nil {
		return nil
	}
	return &ItineraryDetailModel{
		ID:          entity.ID,
		ItineraryID: entity.ItineraryID,
		DayNumber:   int32(entity.DayNumber),
		ItemID:      entity.ItemID,
		Name:        entity.Name,
		Category:    string(entity.Category),
		ImageURL:    entity.ImageURL,
		Location:    entity.Location,
		SortOrder:   int32(entity.SortOrder),
		StartTime:   entity.StartTime,
		EndTime:     entity.EndTime,
	}
}

func (ItineraryConverterImpl) DetailToEntity(model *ItineraryDetailModel) *domain.ItineraryDetail {
	if model == nil {
		return nil
	}
	return &domain.ItineraryDetail{
		ID:          model.ID,
		ItineraryID: model.ItineraryID,
		DayNumber:   int(model.DayNumber),
		ItemID:      model.ItemID,
		Name:        model.Name,
		Category:    domain.Category(model.Category),
		ImageURL:    model.ImageURL,
		Location:    model.Location,
		SortOrder:   int(model.SortOrder),
		StartTime:   model.StartTime,
		EndTime:     model.EndTime,
	}
}

type OutboxEventConverterImpl struct{}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		out = append(out, c.ToEntity(m))
	}
	return out
}
