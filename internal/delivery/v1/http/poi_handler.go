package http

import (
	"net/http"

	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
)

// defaultRadiusKm подставляется, если radius_km не передан.
const defaultRadiusKm = 5.0

type POIHandler struct {
	geoUC     usecase.GeoUC
	catalogUC usecase.CatalogUC
	logger    logger.Logger
}

func NewPOIHandler(geoUC usecase.GeoUC, catalogUC usecase.CatalogUC, logger logger.Logger) *POIHandler {
	return &POIHandler{geoUC: geoUC, catalogUC: catalogUC, logger: logger}
}

// nearby
//
//	@Summary		Точки интереса рядом
//	@Description	Ищет точки интереса в радиусе от координат или от именованного якоря
//	@Tags			pois
//	@Produce		json
//	@Param			lat			query		number	false	"Широта центра"
//	@Param			lon			query		number	false	"Долгота центра"
//	@Param			anchor		query		string	false	"Имя точки интереса вместо координат"
//	@Param			radius_km	query		number	false	"Радиус поиска, км (по умолчанию 5)"
//	@Param			categories	query		string	false	"Категории через запятую"
//	@Param			keyword		query		string	false	"Подстрока в названии"
//	@Param			limit		query		int		false	"Максимум результатов"
//	@Success		200			{object}	NearbyResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse	"Якорь не найден"
//	@Router			/pois/nearby [get]
func (h *POIHandler) nearby(w http.ResponseWriter, r *http.Request) {
	req, err := parseNearbyReq(r)
	if err != nil {
		h.logger.Warnf("%d nearby: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	res, err := h.geoUC.Nearby(r.Context(), req)
	if err != nil {
		h.logger.Warnf("nearby: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toNearbyResponse(res))
}

func parseNearbyReq(r *http.Request) (*usecase.NearbyReq, error) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		return nil, err
	}
	if (lat == nil) != (lon == nil) {
		return nil, e.Wrap("lat and lon must be given together", e.ErrInvalidCoordinates)
	}
	radius, err := queryFloat(r, "radius_km")
	if err != nil {
		return nil, err
	}
	categories, err := queryCategories(r)
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return nil, err
	}

	req := &usecase.NearbyReq{
		Lat:        lat,
		Lon:        lon,
		Anchor:     r.URL.Query().Get("anchor"),
		RadiusKm:   defaultRadiusKm,
		Categories: categories,
		Keyword:    r.URL.Query().Get("keyword"),
		Limit:      limit,
	}
	if radius != nil {
		req.RadiusKm = *radius
	}

	return req, nil
}

// listPOIs
//
//	@Summary		Точки интереса для карты
//	@Tags			pois
//	@Produce		json
//	@Param			city		query		string	false	"Город"
//	@Param			categories	query		string	false	"Категории через запятую"
//	@Param			keyword		query		string	false	"Подстрока в названии"
//	@Param			limit		query		int		false	"Максимум результатов"
//	@Success		200			{array}		POIResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/pois [get]
func (h *POIHandler) listPOIs(w http.ResponseWriter, r *http.Request) {
	categories, err := queryCategories(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	pois, err := h.catalogUC.ListPOIs(r.Context(), &usecase.ListPOIsReq{
		City:       r.URL.Query().Get("city"),
		Categories: categories,
		Keyword:    r.URL.Query().Get("keyword"),
		Limit:      limit,
	})
	if err != nil {
		h.logger.Warnf("list pois: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrPOIResponse(pois))
}

// stats
//
//	@Summary	Размер каталога
//	@Tags		pois
//	@Produce	json
//	@Success	200	{object}	StatsResponse
//	@Router		/stats [get]
func (h *POIHandler) stats(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, toStatsResponse(h.catalogUC.Stats(r.Context())))
}

// planAttractions
//
//	@Summary	Подбор достопримечательностей
//	@Tags		planner
//	@Produce	json
//	@Param		free_only		query		bool	false	"Только бесплатные"
//	@Param		classes			query		string	false	"Классы через запятую"
//	@Param		require_parking	query		bool	false	"Есть информация о парковке"
//	@Param		require_traffic	query		bool	false	"Есть информация о транспорте"
//	@Success	200				{array}		AttractionResponse
//	@Failure	400				{object}	ErrorResponse
//	@Router		/planner/attractions [get]
func (h *POIHandler) planAttractions(w http.ResponseWriter, r *http.Request) {
	freeOnly, err := queryBool(r, "free_only")
	if err != nil {
		WriteError(w, err)
		return
	}
	parking, err := queryBool(r, "require_parking")
	if err != nil {
		WriteError(w, err)
		return
	}
	traffic, err := queryBool(r, "require_traffic")
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.catalogUC.PlanAttractions(r.Context(), &usecase.AttractionFilter{
		FreeOnly:       freeOnly,
		Classes:        queryList(r, "classes"),
		RequireParking: parking,
		RequireTraffic: traffic,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrAttractionResponse(items))
}

// planEvents
//
//	@Summary	Подбор мероприятий
//	@Tags		planner
//	@Produce	json
//	@Param		from	query		string	false	"Начало периода, YYYY-MM-DD"
//	@Param		to		query		string	false	"Конец периода, YYYY-MM-DD"
//	@Param		classes	query		string	false	"Темы через запятую"
//	@Success	200		{array}		EventResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/planner/events [get]
func (h *POIHandler) planEvents(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		WriteError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.catalogUC.PlanEvents(r.Context(), &usecase.EventFilter{
		From:    from,
		To:      to,
		Classes: queryList(r, "classes"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrEventResponse(items))
}

// planHotels
//
//	@Summary	Подбор отелей
//	@Tags		planner
//	@Produce	json
//	@Param		min_price	query		number	false	"Минимальная цена"
//	@Param		max_price	query		number	false	"Максимальная цена"
//	@Param		types		query		string	false	"Типы через запятую"
//	@Success	200			{array}		HotelResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/planner/hotels [get]
func (h *POIHandler) planHotels(w http.ResponseWriter, r *http.Request) {
	minPrice, err := queryDecimal(r, "min_price")
	if err != nil {
		WriteError(w, err)
		return
	}
	maxPrice, err := queryDecimal(r, "max_price")
	if err != nil {
		WriteError(w, err)
		return
	}

	items, err := h.catalogUC.PlanHotels(r.Context(), &usecase.HotelFilter{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Types:    queryList(r, "types"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrHotelResponse(items))
}

// planRestaurants
//
//	@Summary	Подбор ресторанов
//	@Tags		planner
//	@Produce	json
//	@Param		city		query	string	false	"Город"
//	@Param		cuisines	query	string	false	"Кухни через запятую"
//	@Success	200			{array}	RestaurantResponse
//	@Router		/planner/restaurants [get]
func (h *POIHandler) planRestaurants(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogUC.PlanRestaurants(r.Context(), &usecase.RestaurantFilter{
		City:     r.URL.Query().Get("city"),
		Cuisines: queryList(r, "cuisines"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrRestaurantResponse(items))
}
