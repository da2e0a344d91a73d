package http

import (
	"net/http"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type MemberHandler struct {
	memberUC usecase.MemberUC
	logger   logger.Logger
}

func NewMemberHandler(memberUC usecase.MemberUC, logger logger.Logger) *MemberHandler {
	return &MemberHandler{memberUC: memberUC, logger: logger}
}

// register
//
//	@Summary	Регистрация
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RegisterRequest	true	"Данные пользователя"
//	@Success	201		{object}	AuthResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"Пользователь уже существует"
//	@Router		/auth/register [post]
func (h *MemberHandler) register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.memberUC.Register(r.Context(), &usecase.RegisterReq{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.logger.Warnf("register %q: %v", body.Username, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toAuthResponse(res))
}

// login
//
//	@Summary	Вход
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"Имя пользователя или email и пароль"
//	@Success	200		{object}	AuthResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/auth/login [post]
func (h *MemberHandler) login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.memberUC.Login(r.Context(), &usecase.LoginReq{Login: body.Login, Password: body.Password})
	if err != nil {
		h.logger.Warnf("login %q: %v", body.Login, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAuthResponse(res))
}

// listFavorites
//
//	@Summary	Избранное
//	@Tags		favorites
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		SavedItemResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/me/favorites [get]
func (h *MemberHandler) listFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.memberUC.ListFavorites(r.Context(), userID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrSavedItemResponse(items))
}

// addFavorite
//
//	@Summary	Добавить в избранное
//	@Tags		favorites
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		SaveItemRequest	true	"Точка интереса"
//	@Success	201		{object}	SavedItemResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/me/favorites [post]
func (h *MemberHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	req, err := parseSaveItem(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	item, err := h.memberUC.AddFavorite(r.Context(), req)
	if err != nil {
		h.logger.Warnf("add favorite: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toSavedItemResponse(*item))
}

// removeFavorite
//
//	@Summary	Удалить из избранного
//	@Tags		favorites
//	@Security	BearerAuth
//	@Param		category	path	string	true	"Категория"
//	@Param		itemID		path	string	true	"Идентификатор точки интереса"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/me/favorites/{category}/{itemID} [delete]
func (h *MemberHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.memberUC.RemoveFavorite(r.Context(), userID(r), chi.URLParam(r, "itemID"), category); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listCart
//
//	@Summary	Корзина
//	@Tags		cart
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	SavedItemResponse
//	@Router		/me/cart [get]
func (h *MemberHandler) listCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.memberUC.ListCart(r.Context(), userID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrSavedItemResponse(items))
}

// addToCart
//
//	@Summary	Добавить в корзину
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		SaveItemRequest	true	"Точка интереса"
//	@Success	201		{object}	SavedItemResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/me/cart [post]
func (h *MemberHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	req, err := parseSaveItem(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	item, err := h.memberUC.AddToCart(r.Context(), req)
	if err != nil {
		h.logger.Warnf("add to cart: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toSavedItemResponse(*item))
}

// removeFromCart
//
//	@Summary	Удалить из корзины
//	@Tags		cart
//	@Security	BearerAuth
//	@Param		category	path	string	true	"Категория"
//	@Param		itemID		path	string	true	"Идентификатор точки интереса"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/me/cart/{category}/{itemID} [delete]
func (h *MemberHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.memberUC.RemoveFromCart(r.Context(), userID(r), chi.URLParam(r, "itemID"), category); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// clearCart
//
//	@Summary	Очистить корзину
//	@Tags		cart
//	@Security	BearerAuth
//	@Success	204
//	@Router		/me/cart [delete]
func (h *MemberHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.memberUC.ClearCart(r.Context(), userID(r)); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listItineraries
//
//	@Summary	Маршруты пользователя
//	@Tags		itineraries
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	ItineraryResponse
//	@Router		/me/itineraries [get]
func (h *MemberHandler) listItineraries(w http.ResponseWriter, r *http.Request) {
	items, err := h.memberUC.ListItineraries(r.Context(), userID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrItineraryResponse(items))
}

// createItinerary
//
//	@Summary	Создать маршрут
//	@Tags		itineraries
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		CreateItineraryRequest	true	"Название и даты"
//	@Success	201		{object}	ItineraryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/me/itineraries [post]
func (h *MemberHandler) createItinerary(w http.ResponseWriter, r *http.Request) {
	var body CreateItineraryRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	start, err := parseDate(body.StartDate)
	if err != nil {
		WriteError(w, err)
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	it, err := h.memberUC.CreateItinerary(r.Context(), &usecase.CreateItineraryReq{
		UserID:    userID(r),
		Title:     body.Title,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.logger.Warnf("create itinerary: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toItineraryResponse(*it))
}

// getItinerary
//
//	@Summary	Маршрут с пунктами
//	@Tags		itineraries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Идентификатор маршрута"
//	@Success	200	{object}	ItineraryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/me/itineraries/{id} [get]
func (h *MemberHandler) getItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	it, err := h.memberUC.GetItinerary(r.Context(), userID(r), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toItineraryResponse(*it))
}

// deleteItinerary
//
//	@Summary	Удалить маршрут
//	@Tags		itineraries
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Идентификатор маршрута"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/me/itineraries/{id} [delete]
func (h *MemberHandler) deleteItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.memberUC.DeleteItinerary(r.Context(), userID(r), id); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// addDetail
//
//	@Summary	Добавить пункт в маршрут
//	@Tags		itineraries
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int					true	"Идентификатор маршрута"
//	@Param		body	body		AddDetailRequest	true	"Пункт маршрута"
//	@Success	201		{object}	ItineraryDetailResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/me/itineraries/{id}/details [post]
func (h *MemberHandler) addDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var body AddDetailRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	var category domain.Category
	if body.Category != "" {
		if category, err = domain.ParseCategory(body.Category); err != nil {
			WriteError(w, err)
			return
		}
	}

	detail, err := h.memberUC.AddItineraryDetail(r.Context(), &usecase.AddDetailReq{
		UserID:      userID(r),
		ItineraryID: id,
		DayNumber:   body.DayNumber,
		ItemID:      body.ItemID,
		Category:    category,
		Name:        body.Name,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
	})
	if err != nil {
		h.logger.Warnf("add itinerary detail: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toDetailResponse(*detail))
}

// reorderItinerary
//
//	@Summary		Переставить пункты маршрута
//	@Description	Применяет новые дни и порядок пунктов одной транзакцией
//	@Tags			itineraries
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"Идентификатор маршрута"
//	@Param			body	body		ReorderRequest	true	"Новые позиции"
//	@Success		200		{object}	ItineraryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/me/itineraries/{id}/order [put]
func (h *MemberHandler) reorderItinerary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	var body ReorderRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}
	if len(body.Positions) == 0 {
		WriteError(w, e.Wrap("positions", e.ErrMissingFields))
		return
	}

	positions := make([]usecase.DetailPosition, 0, len(body.Positions))
	for _, p := range body.Positions {
		positions = append(positions, usecase.DetailPosition{
			DetailID:  p.DetailID,
			DayNumber: p.DayNumber,
			SortOrder: p.SortOrder,
		})
	}

	it, err := h.memberUC.ReorderItinerary(r.Context(), userID(r), id, positions)
	if err != nil {
		h.logger.Warnf("reorder itinerary %d: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toItineraryResponse(*it))
}

func parseSaveItem(r *http.Request) (*usecase.SaveItemReq, error) {
	var body SaveItemRequest
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}

	category, err := domain.ParseCategory(body.Category)
	if err != nil {
		return nil, err
	}

	return &usecase.SaveItemReq{
		UserID:   userID(r),
		ItemID:   body.ItemID,
		Category: category,
		Name:     body.Name,
		ImageURL: body.ImageURL,
		Location: body.Location,
	}, nil
}

// userID доступен только под Authenticate.
func userID(r *http.Request) int64 {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		return 0
	}

	return claims.UserID
}
