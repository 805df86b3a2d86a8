package main

import (
	"log"
	"net/http"
	"time"

	"stocklens/internal/auth"
	"stocklens/internal/config"
	"stocklens/internal/db"
	"stocklens/internal/events"
	"stocklens/internal/handlers"
	"stocklens/internal/jobs"
	"stocklens/internal/live"
	"stocklens/internal/middleware"
	"stocklens/internal/notify"
	"stocklens/internal/settings"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer db.DB.Close()
	log.Printf("💾 Database ready (%s)", cfg.DBPath)

	if err := settings.InitSettingsTable(db.DB); err != nil {
		log.Fatalf("❌ Settings init failed: %v", err)
	}
	if err := notify.Migrate(db.DB); err != nil {
		log.Fatalf("❌ Notification migration failed: %v", err)
	}

	if cfg.AuthEnabled {
		auth.CreateDefaultAdmin(cfg)
	} else {
		log.Println("🔓 Authentication disabled")
	}

	// Event plumbing: handlers and jobs publish, the dispatcher and
	// websocket hub consume
	bus := events.NewBus()
	handlers.Bus = bus

	dispatcher := notify.NewDispatcher(db.DB, bus, nil)
	dispatcher.Start()
	defer dispatcher.Stop()

	hub := live.NewHub(bus)

	runner := jobs.New(bus)
	if err := runner.Start(); err != nil {
		log.Fatalf("❌ Scheduler start failed: %v", err)
	}
	defer runner.Stop()

	// Role tiers: protect = any signed-in account, manage = store
	// staff, adminOnly = administrators
	protect := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.Middleware(cfg, next)
	}
	manage := auth.RequireRole(cfg, "admin", "owner")
	adminOnly := auth.RequireRole(cfg, "admin")

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	mux := http.NewServeMux()
	auth.RegisterAuthRoutes(mux, cfg, loginLimiter.Limit)
	handlers.RegisterItemRoutes(mux, protect, manage)
	handlers.RegisterCategoryRoutes(mux, protect, manage)
	handlers.RegisterStockRoutes(mux, protect, manage)
	handlers.RegisterOrderRoutes(mux, protect, manage)
	handlers.RegisterUserRoutes(mux, protect, adminOnly)
	handlers.RegisterDashboardRoutes(mux, protect)
	handlers.RegisterReportRoutes(mux, protect)
	handlers.RegisterNotificationRoutes(mux, adminOnly)
	settings.NewHandler(db.DB).RegisterRoutes(mux, adminOnly)

	mux.HandleFunc("GET /api/live", protect(hub.HandleConnection))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("StockLens is online 📦"))
	})

	handler := middleware.CORS(middleware.Logging(mux))

	log.Printf("📦 StockLens listening on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}
