package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seblak-bageur/api/internal/config"
	"github.com/seblak-bageur/api/internal/database"
	"github.com/seblak-bageur/api/internal/handler"
	mw "github.com/seblak-bageur/api/internal/middleware"
	"github.com/seblak-bageur/api/internal/service"
	"github.com/seblak-bageur/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	loc := cfg.Location()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:3000",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Toppings
		toppingHandler := handler.NewToppingHandler(queries)
		r.Route("/api/toppings", toppingHandler.RegisterRoutes)

		// Packages
		packageHandler := handler.NewPackageHandler(
			queries,
			pool,
			func(db database.DBTX) handler.PackageStore {
				return database.New(db)
			},
		)
		r.Route("/api/packages", packageHandler.RegisterRoutes)

		// Orders
		orderService := service.NewOrderService(
			pool,
			queries,
			func(db database.DBTX) service.OrderStore {
				return database.New(db)
			},
			loc,
		)
		orderHandler := handler.NewOrderHandler(orderService, queries, hub, cfg.StoreName, loc)
		r.Route("/api/orders", orderHandler.RegisterRoutes)
		r.Get("/api/queue-number", orderHandler.QueueNumber)

		// Reports
		reportService := service.NewReportService(queries, loc)
		reportHandler := handler.NewReportHandler(reportService, loc)
		r.Route("/api/reports", reportHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
