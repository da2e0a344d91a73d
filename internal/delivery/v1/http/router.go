package http

import (
	"net/http"

	_ "github.com/DRSN-tech/tourism-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/internal/usecase"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// UseCases — всё, что нужно роутеру для регистрации обработчиков.
type UseCases struct {
	Geo     usecase.GeoUC
	Visual  usecase.VisualUC
	Catalog usecase.CatalogUC
	Member  usecase.MemberUC
	Tokens  TokenParser
}

type Router struct {
	router *chi.Mux
	cfg    *cfg.HTTPConfig
	logger logger.Logger
}

func NewRouter(router *chi.Mux, cfg *cfg.HTTPConfig, logger logger.Logger) *Router {
	return &Router{router: router, cfg: cfg, logger: logger}
}

func (r *Router) Init(uc UseCases) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(AccessLog(r.logger.Slog()))
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: r.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(Metrics)

		poiHandler := NewPOIHandler(uc.Geo, uc.Catalog, r.logger)
		registerPOIRoutes(v1, poiHandler)

		imageHandler := NewImageHandler(uc.Visual, r.cfg.MaxUploadBytes, r.logger)
		v1.Post("/images/similar", imageHandler.similarImages)

		memberHandler := NewMemberHandler(uc.Member, r.logger)
		registerMemberRoutes(v1, memberHandler, Authenticate(uc.Tokens, r.logger))
	})
}

func registerPOIRoutes(router chi.Router, h *POIHandler) {
	router.Get("/stats", h.stats)
	router.Route("/pois", func(pr chi.Router) {
		pr.Get("/", h.listPOIs)
		pr.Get("/nearby", h.nearby)
	})
	router.Route("/planner", func(pr chi.Router) {
		pr.Get("/attractions", h.planAttractions)
		pr.Get("/events", h.planEvents)
		pr.Get("/hotels", h.planHotels)
		pr.Get("/restaurants", h.planRestaurants)
	})
}

func registerMemberRoutes(router chi.Router, h *MemberHandler, auth func(http.Handler) http.Handler) {
	router.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", h.register)
		ar.Post("/login", h.login)
	})

	router.Route("/me", func(me chi.Router) {
		me.Use(auth)

		me.Route("/favorites", func(fr chi.Router) {
			fr.Get("/", h.listFavorites)
			fr.Post("/", h.addFavorite)
			fr.Delete("/{category}/{itemID}", h.removeFavorite)
		})

		me.Route("/cart", func(cr chi.Router) {
			cr.Get("/", h.listCart)
			cr.Post("/", h.addToCart)
			cr.Delete("/", h.clearCart)
			cr.Delete("/{category}/{itemID}", h.removeFromCart)
		})

		me.Route("/itineraries", func(ir chi.Router) {
			ir.Get("/", h.listItineraries)
			ir.Post("/", h.createItinerary)
			ir.Route("/{id}", func(one chi.Router) {
				one.Get("/", h.getItinerary)
				one.Delete("/", h.deleteItinerary)
				one.Post("/details", h.addDetail)
				one.Put("/order", h.reorderItinerary)
			})
		})
	})
}
