package handlers

import (
	"log"
	"net/http"
	"strconv"

	"stocklens/internal/db"
	"stocklens/internal/forecast"
	"stocklens/internal/settings"
)

// DashboardStats returns the headline counters, a year of monthly
// movement and a short outflow projection for the dashboard chart.
// GET /api/dashboard/stats
func DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := db.GetDashboardStats()
	if err != nil {
		log.Printf("❌ Dashboard stats: %v", err)
		JSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	monthly, err := db.MonthlyTotals(12)
	if err != nil {
		log.Printf("❌ Monthly totals: %v", err)
		JSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	// Project the aggregate monthly outflow a few periods ahead so the
	// chart can extend past today
	values := make([]float64, len(monthly))
	for i, m := range monthly {
		values[i] = float64(m.TotalOut)
	}
	periods := settings.GetIntSettingWithDefault(db.DB, "forecast", "dashboard_periods", 6)
	projection := forecast.New(forecast.SeriesFromValues(values)).Predict(periods)

	JSONResponse(w, map[string]interface{}{
		"stats":    stats,
		"monthly":  monthly,
		"forecast": projection,
	})
}

// ItemForecast fits an item's recent daily outflow and returns the
// full regression output with a procurement recommendation.
// GET /api/dashboard/forecast/{id}?periods=&window=
func ItemForecast(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	item, err := db.GetItem(id)
	if err != nil {
		log.Printf("❌ Load item for forecast: %v", err)
		JSONError(w, "Failed to build forecast", http.StatusInternalServerError)
		return
	}
	if item == nil {
		JSONError(w, "Item not found", http.StatusNotFound)
		return
	}

	window := settings.GetIntSettingWithDefault(db.DB, "forecast", "history_window_days", 90)
	if v, err := strconv.Atoi(r.URL.Query().Get("window")); err == nil && v > 0 {
		window = v
	}
	horizon := settings.GetIntSettingWithDefault(db.DB, "forecast", "horizon_days", forecast.DefaultHorizon)
	if v, err := strconv.Atoi(r.URL.Query().Get("periods")); err == nil && v > 0 {
		horizon = v
	}

	movements, err := db.DailyOutflow(id, window)
	if err != nil {
		log.Printf("❌ Outflow history: %v", err)
		JSONError(w, "Failed to build forecast", http.StatusInternalServerError)
		return
	}

	values := make([]float64, len(movements))
	for i, m := range movements {
		values[i] = float64(m.StockOut)
	}

	engine := forecast.New(forecast.SeriesFromValues(values))
	JSONResponse(w, map[string]interface{}{
		"item":           item,
		"history":        movements,
		"forecast":       engine.Predict(horizon),
		"recommendation": engine.Recommend(item.StockQty, item.MinStock, item.MaxStock),
	})
}

// RegisterDashboardRoutes wires the dashboard endpoints
func RegisterDashboardRoutes(mux *http.ServeMux, protect func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/dashboard/stats", protect(DashboardStats))
	mux.HandleFunc("GET /api/dashboard/forecast/{id}", protect(ItemForecast))
}
