package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/auth"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/DRSN-tech/tourism-backend/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// MemberUseCase — пользователи, избранное, корзина и маршруты.
// Каждое изменение пишет событие в outbox в той же транзакции.
type MemberUseCase struct {
	userRepo      UserRepository
	favoriteRepo  SavedItemRepository
	cartRepo      SavedItemRepository
	itineraryRepo ItineraryRepository
	outboxRepo    OutboxRepository
	dbPool        transaction.Transactional
	tokens        TokenManager
	catalog       *domain.Catalog
	logger        logger.Logger
}

func NewMemberUC(
	userRepo UserRepository,
	favoriteRepo SavedItemRepository,
	cartRepo SavedItemRepository,
	itineraryRepo ItineraryRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	tokens TokenManager,
	catalog *domain.Catalog,
	logger logger.Logger,
) *MemberUseCase {
	return &MemberUseCase{
		userRepo:      userRepo,
		favoriteRepo:  favoriteRepo,
		cartRepo:      cartRepo,
		itineraryRepo: itineraryRepo,
		outboxRepo:    outboxRepo,
		dbPool:        dbPool,
		tokens:        tokens,
		catalog:       catalog,
		logger:        logger,
	}
}

// USERS

func (m *MemberUseCase) Register(ctx context.Context, req *RegisterReq) (*AuthRes, error) {
	const op = "MemberUseCase.Register"

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegistration(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var user *domain.User
	err = m.inTx(ctx, func(ctx context.Context) error {
		created, err := m.userRepo.Create(ctx, &domain.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		user = created

		return m.writeEvent(ctx, EventUserRegistered, user.ID, map[string]any{
			"user_id":  user.ID,
			"username": user.Username,
		})
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return m.issueToken(user)
}

func (m *MemberUseCase) Login(ctx context.Context, req *LoginReq) (*AuthRes, error) {
	const op = "MemberUseCase.Login"

	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	user, err := m.userRepo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.Wrap(op, e.ErrBadCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, e.Wrap(op, e.ErrBadCredentials)
	}

	return m.issueToken(user)
}

func (m *MemberUseCase) issueToken(user *domain.User) (*AuthRes, error) {
	token, expiresAt, err := m.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, e.Wrap("MemberUseCase.issueToken", err)
	}

	return &AuthRes{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// FAVORITES

func (m *MemberUseCase) AddFavorite(ctx context.Context, req *SaveItemReq) (*domain.SavedItem, error) {
	const op = "MemberUseCase.AddFavorite"

	item, err := m.addSavedItem(ctx, m.favoriteRepo, EventFavoriteAdded, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return item, nil
}

func (m *MemberUseCase) ListFavorites(ctx context.Context, userID int64) ([]domain.SavedItem, error) {
	items, err := m.favoriteRepo.List(ctx, userID)
	if err != nil {
		return nil, e.Wrap("MemberUseCase.ListFavorites", err)
	}

	return items, nil
}

func (m *MemberUseCase) RemoveFavorite(ctx context.Context, userID int64, itemID string, category domain.Category) error {
	const op = "MemberUseCase.RemoveFavorite"

	if err := m.removeSavedItem(ctx, m.favoriteRepo, EventFavoriteRemoved, userID, itemID, category); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// CART

func (m *MemberUseCase) AddToCart(ctx context.Context, req *SaveItemReq) (*domain.SavedItem, error) {
	const op = "MemberUseCase.AddToCart"

	item, err := m.addSavedItem(ctx, m.cartRepo, EventCartItemAdded, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return item, nil
}

func (m *MemberUseCase) ListCart(ctx context.Context, userID int64) ([]domain.SavedItem, error) {
	items, err := m.cartRepo.List(ctx, userID)
	if err != nil {
		return nil, e.Wrap("MemberUseCase.ListCart", err)
	}

	return items, nil
}

func (m *MemberUseCase) RemoveFromCart(ctx context.Context, userID int64, itemID string, category domain.Category) error {
	const op = "MemberUseCase.RemoveFromCart"

	if err := m.removeSavedItem(ctx, m.cartRepo, EventCartItemRemoved, userID, itemID, category); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (m *MemberUseCase) ClearCart(ctx context.Context, userID int64) error {
	const op = "MemberUseCase.ClearCart"

	err := m.inTx(ctx, func(ctx context.Context) error {
		removed, err := m.cartRepo.Clear(ctx, userID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}

		return m.writeEvent(ctx, EventCartCleared, userID, map[string]any{
			"user_id": userID,
			"removed": removed,
		})
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// addSavedItem дополняет снимок данными каталога и сохраняет запись идемпотентно.
// Событие пишется только при реальном добавлении.
func (m *MemberUseCase) addSavedItem(
	ctx context.Context,
	repo SavedItemRepository,
	eventType OutboxEventType,
	req *SaveItemReq,
) (*domain.SavedItem, error) {
	item, err := m.savedItemSnapshot(req)
	if err != nil {
		return nil, err
	}

	var saved *domain.SavedItem
	err = m.inTx(ctx, func(ctx context.Context) error {
		var created bool
		saved, created, err = repo.Add(ctx, item)
		if err != nil || !created {
			return err
		}

		return m.writeEvent(ctx, eventType, item.UserID, map[string]any{
			"user_id":  item.UserID,
			"item_id":  item.ItemID,
			"category": string(item.Category),
		})
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (m *MemberUseCase) removeSavedItem(
	ctx context.Context,
	repo SavedItemRepository,
	eventType OutboxEventType,
	userID int64,
	itemID string,
	category domain.Category,
) error {
	if strings.TrimSpace(itemID) == "" || category == "" {
		return e.ErrMissingFields
	}

	return m.inTx(ctx, func(ctx context.Context) error {
		removed, err := repo.Remove(ctx, userID, itemID, category)
		if err != nil {
			return err
		}
		if !removed {
			return e.ErrNotFound
		}

		return m.writeEvent(ctx, eventType, userID, map[string]any{
			"user_id":  userID,
			"item_id":  itemID,
			"category": string(category),
		})
	})
}

func (m *MemberUseCase) savedItemSnapshot(req *SaveItemReq) (*domain.SavedItem, error) {
	itemID := strings.TrimSpace(req.ItemID)
	if req.UserID == 0 || itemID == "" {
		return nil, e.ErrMissingFields
	}

	item := &domain.SavedItem{
		UserID:   req.UserID,
		ItemID:   itemID,
		Category: req.Category,
		Name:     strings.TrimSpace(req.Name),
		ImageURL: req.ImageURL,
		Location: req.Location,
	}

	if poi, ok := m.catalog.ByID(itemID); ok {
		item.Category = poi.Category
		item.Name = poi.Name
		item.ImageURL = poi.ThumbnailURL
		item.Location = poiLocation(poi)
	}

	if item.Name == "" || item.Category == "" {
		return nil, e.ErrMissingFields
	}

	return item, nil
}

// ITINERARIES

func (m *MemberUseCase) CreateItinerary(ctx context.Context, req *CreateItineraryReq) (*domain.Itinerary, error) {
	const op = "MemberUseCase.CreateItinerary"

	title := strings.TrimSpace(req.Title)
	if req.UserID == 0 || title == "" {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, e.Wrap(op, e.ErrInvalidDateRange)
	}

	var itinerary *domain.Itinerary
	err := m.inTx(ctx, func(ctx context.Context) error {
		created, err := m.itineraryRepo.Create(ctx, &domain.Itinerary{
			UserID:    req.UserID,
			Title:     title,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
		if err != nil {
			return err
		}
		itinerary = created

		return m.writeEvent(ctx, EventItineraryCreated, req.UserID, map[string]any{
			"user_id":      req.UserID,
			"itinerary_id": created.ID,
			"title":        created.Title,
		})
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return itinerary, nil
}

func (m *MemberUseCase) ListItineraries(ctx context.Context, userID int64) ([]domain.Itinerary, error) {
	list, err := m.itineraryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap("MemberUseCase.ListItineraries", err)
	}

	return list, nil
}

func (m *MemberUseCase) GetItinerary(ctx context.Context, userID, itineraryID int64) (*domain.Itinerary, error) {
	itinerary, err := m.itineraryRepo.Get(ctx, userID, itineraryID)
	if err != nil {
		return nil, e.Wrap("MemberUseCase.GetItinerary", err)
	}

	return itinerary, nil
}

func (m *MemberUseCase) DeleteItinerary(ctx context.Context, userID, itineraryID int64) error {
	const op = "MemberUseCase.DeleteItinerary"

	err := m.inTx(ctx, func(ctx context.Context) error {
		if err := m.itineraryRepo.Delete(ctx, userID, itineraryID); err != nil {
			return err
		}

		return m.writeEvent(ctx, EventItineraryDeleted, userID, map[string]any{
			"user_id":      userID,
			"itinerary_id": itineraryID,
		})
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// AddItineraryDetail добавляет пункт в конец указанного дня.
func (m *MemberUseCase) AddItineraryDetail(ctx context.Context, req *AddDetailReq) (*domain.ItineraryDetail, error) {
	const op = "MemberUseCase.AddItineraryDetail"

	if err := validateDetail(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	snapshot, err := m.savedItemSnapshot(&SaveItemReq{
		UserID:   req.UserID,
		ItemID:   req.ItemID,
		Category: req.Category,
		Name:     req.Name,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var detail *domain.ItineraryDetail
	err = m.inTx(ctx, func(ctx context.Context) error {
		itinerary, err := m.itineraryRepo.Get(ctx, req.UserID, req.ItineraryID)
		if err != nil {
			return err
		}

		nextOrder := 0
		for _, d := range itinerary.Details {
			if d.DayNumber == req.DayNumber && d.SortOrder >= nextOrder {
				nextOrder = d.SortOrder + 1
			}
		}

		detail, err = m.itineraryRepo.AddDetail(ctx, &domain.ItineraryDetail{
			ItineraryID: itinerary.ID,
			DayNumber:   req.DayNumber,
			ItemID:      snapshot.ItemID,
			Name:        snapshot.Name,
			Category:    snapshot.Category,
			ImageURL:    snapshot.ImageURL,
			Location:    snapshot.Location,
			SortOrder:   nextOrder,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
		})
		if err != nil {
			return err
		}

		return m.writeEvent(ctx, EventItineraryUpdated, req.UserID, map[string]any{
			"user_id":      req.UserID,
			"itinerary_id": itinerary.ID,
			"detail_id":    detail.ID,
			"item_id":      detail.ItemID,
		})
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return detail, nil
}

// ReorderItinerary сохраняет порядок пунктов после перетаскивания одной транзакцией.
func (m *MemberUseCase) ReorderItinerary(
	ctx context.Context,
	userID, itineraryID int64,
	positions []DetailPosition,
) (*domain.Itinerary, error) {
	const op = "MemberUseCase.ReorderItinerary"

	if len(positions) == 0 {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	var reordered *domain.Itinerary
	err := m.inTx(ctx, func(ctx context.Context) error {
		itinerary, err := m.itineraryRepo.Get(ctx, userID, itineraryID)
		if err != nil {
			return err
		}
		if err := validatePositions(itinerary, positions); err != nil {
			return err
		}

		if err := m.itineraryRepo.UpdatePositions(ctx, itinerary.ID, positions); err != nil {
			return err
		}

		if err := m.writeEvent(ctx, EventItineraryReordered, userID, map[string]any{
			"user_id":      userID,
			"itinerary_id": itinerary.ID,
			"moved":        len(positions),
		}); err != nil {
			return err
		}

		reordered, err = m.itineraryRepo.Get(ctx, userID, itineraryID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return reordered, nil
}

// inTx выполняет fn в транзакции; при ошибке транзакция откатывается.
func (m *MemberUseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				m.logger.Warnf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()
	ctx = tr.WithTx(ctx, tx.Transaction())

	if err = fn(ctx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *MemberUseCase) writeEvent(ctx context.Context, eventType OutboxEventType, userID int64, fields map[string]any) error {
	event, err := NewOutboxEvent(eventType, strconv.FormatInt(userID, 10), fields)
	if err != nil {
		return err
	}

	_, err = m.outboxRepo.Create(ctx, event)
	return err
}

func validateRegistration(req *RegisterReq) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return e.ErrMissingFields
	}
	if n := utf8.RuneCountInString(req.Username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", e.ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: invalid email", e.ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", e.ErrInvalidInput, minPasswordLen)
	}

	return nil
}

func validateDetail(req *AddDetailReq) error {
	if req.UserID == 0 || req.ItineraryID == 0 || strings.TrimSpace(req.ItemID) == "" {
		return e.ErrMissingFields
	}
	if req.DayNumber < 1 {
		return fmt.Errorf("%w: day number must be at least 1", e.ErrInvalidInput)
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end time is before start time", e.ErrInvalidInput)
	}

	return nil
}

func validatePositions(itinerary *domain.Itinerary, positions []DetailPosition) error {
	known := make(map[int64]struct{}, len(itinerary.Details))
	for _, d := range itinerary.Details {
		known[d.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(positions))
	for _, p := range positions {
		if _, ok := known[p.DetailID]; !ok {
			return fmt.Errorf("%w: detail %d", e.ErrNotFound, p.DetailID)
		}
		if _, dup := seen[p.DetailID]; dup {
			return fmt.Errorf("%w: detail %d listed twice", e.ErrInvalidInput, p.DetailID)
		}
		if p.DayNumber < 1 || p.SortOrder < 0 {
			return fmt.Errorf("%w: invalid position for detail %d", e.ErrInvalidInput, p.DetailID)
		}
		seen[p.DetailID] = struct{}{}
	}

	return nil
}

// parseClock принимает пустую строку или время в формате HH:MM.
func parseClock(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, e.ErrInvalidTime
	}

	return &t, nil
}

func poiLocation(poi domain.POI) string {
	return strings.TrimSpace(poi.City + " " + poi.Town)
}
