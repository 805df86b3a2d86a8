// Package jobs runs the background maintenance schedule: session
// cleanup, stale-order auto-rejection and the daily stock level scan
// that feeds reorder recommendations.
package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"stocklens/internal/auth"
	"stocklens/internal/db"
	"stocklens/internal/events"
	"stocklens/internal/forecast"
	"stocklens/internal/settings"
)

// Runner owns the scheduler and publishes job outcomes to the bus.
type Runner struct {
	scheduler *gocron.Scheduler
	bus       *events.Bus
}

// New creates a runner. Start must be called to schedule anything.
func New(bus *events.Bus) *Runner {
	return &Runner{
		scheduler: gocron.NewScheduler(time.UTC),
		bus:       bus,
	}
}

// Start registers the jobs and launches the scheduler in the
// background.
func (r *Runner) Start() error {
	if _, err := r.scheduler.Every(1).Hour().Do(auth.CleanupExpiredSessions); err != nil {
		return fmt.Errorf("failed to schedule session cleanup: %w", err)
	}
	if _, err := r.scheduler.Every(1).Hour().Do(r.autoRejectOrders); err != nil {
		return fmt.Errorf("failed to schedule order auto-reject: %w", err)
	}
	if _, err := r.scheduler.Every(1).Day().At("06:00").Do(r.scanStockLevels); err != nil {
		return fmt.Errorf("failed to schedule stock scan: %w", err)
	}

	r.scheduler.StartAsync()
	log.Printf("⏰ Scheduler started (%d jobs)", len(r.scheduler.Jobs()))
	return nil
}

// Stop halts the scheduler. Running jobs finish.
func (r *Runner) Stop() {
	r.scheduler.Stop()
}

// autoRejectOrders rejects orders whose confirmation deadline has
// passed and announces each one on the bus.
func (r *Runner) autoRejectOrders() {
	ids, err := db.AutoRejectStale(time.Now().UTC())
	if err != nil {
		log.Printf("⚠️ Auto-reject scan failed: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	log.Printf("🚫 Auto-rejected %d stale order(s)", len(ids))
	for _, id := range ids {
		order, _, err := db.GetOrder(id)
		if err != nil || order == nil {
			continue
		}
		r.bus.Publish(events.Event{
			Type:      events.OrderAutoRejected,
			Severity:  events.SeverityWarning,
			OrderCode: order.OrderCode,
			Message:   fmt.Sprintf("Order %s auto-rejected after confirmation deadline", order.OrderCode),
		})
	}
}

// scanStockLevels walks every item at or below its minimum stock,
// raises low/depleted alerts and, when enabled, attaches a reorder
// recommendation derived from recent outflow history.
func (r *Runner) scanStockLevels() {
	if !settings.GetBoolSettingWithDefault(db.DB, "alerts", "enabled", true) {
		return
	}

	items, err := db.LowStockItems()
	if err != nil {
		log.Printf("⚠️ Stock scan failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	suggest := settings.GetBoolSettingWithDefault(db.DB, "alerts", "reorder_suggestions", true)
	window := settings.GetIntSettingWithDefault(db.DB, "forecast", "history_window_days", 90)

	for _, item := range items {
		if item.StockQty <= 0 {
			r.bus.Publish(events.Event{
				Type:     events.StockDepleted,
				Severity: events.SeverityCritical,
				ItemCode: item.Code,
				ItemName: item.Name,
				Message:  fmt.Sprintf("%s is out of stock", item.Name),
			})
		} else {
			r.bus.Publish(events.Event{
				Type:     events.StockLow,
				Severity: events.SeverityWarning,
				ItemCode: item.Code,
				ItemName: item.Name,
				Message: fmt.Sprintf("%s is low on stock (%d %s left, minimum %d)",
					item.Name, item.StockQty, item.Unit, item.MinStock),
			})
		}

		if !suggest {
			continue
		}
		if rec, ok := r.recommend(item.ID, item.StockQty, item.MinStock, item.MaxStock, window); ok {
			r.bus.Publish(events.Event{
				Type:     events.ReorderRecommended,
				Severity: events.SeverityInfo,
				ItemCode: item.Code,
				ItemName: item.Name,
				Message:  fmt.Sprintf("Reorder %d x %s: %s", rec.Quantity, item.Name, rec.Reason),
				Metadata: map[string]string{
					"quantity": fmt.Sprintf("%d", rec.Quantity),
					"urgency":  string(rec.Urgency),
				},
			})
		}
	}

	log.Printf("✓ Stock scan finished: %d item(s) flagged", len(items))
}

// recommend fits the item's recent daily outflow and asks the engine
// whether an order is warranted.
func (r *Runner) recommend(itemID int64, stock, minStock, maxStock, window int) (forecast.Recommendation, bool) {
	movements, err := db.DailyOutflow(itemID, window)
	if err != nil {
		log.Printf("⚠️ Outflow history for item %d failed: %v", itemID, err)
		return forecast.Recommendation{}, false
	}

	values := make([]float64, len(movements))
	for i, m := range movements {
		values[i] = float64(m.StockOut)
	}

	rec := forecast.New(forecast.SeriesFromValues(values)).Recommend(stock, minStock, maxStock)
	return rec, rec.Action == forecast.ActionOrder
}
