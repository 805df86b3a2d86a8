// internal/forecast/recommend_test.go
package forecast

import (
	"strings"
	"testing"
)

// flatEngine returns an engine whose predictions are all `demand`
// units, so weekly demand equals `demand` exactly.
func flatEngine(demand float64) *Engine {
	values := make([]float64, 10)
	for i := range values {
		values[i] = demand
	}
	return New(SeriesFromValues(values))
}

func TestRecommend_InsufficientData(t *testing.T) {
	rec := New(nil).Recommend(100, 10, 1000)

	if rec.Action != ActionMonitor {
		t.Errorf("action = %q, want %q", rec.Action, ActionMonitor)
	}
	if rec.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", rec.Quantity)
	}
	if rec.Urgency != "" {
		t.Errorf("urgency = %q, want empty", rec.Urgency)
	}
	if !strings.Contains(rec.Reason, "Insufficient") {
		t.Errorf("reason = %q, want insufficient-data reason", rec.Reason)
	}
}

func TestRecommend_OrderWhenBelowReorderPoint(t *testing.T) {
	// Weekly demand 10 → safety 5 → reorder point 15.
	engine := flatEngine(10)

	rec := engine.Recommend(15, 5, 1000)
	if rec.Action != ActionOrder {
		t.Fatalf("action = %q, want %q", rec.Action, ActionOrder)
	}
	// Four weeks of demand, well under remaining capacity.
	if rec.Quantity != 40 {
		t.Errorf("quantity = %d, want 40", rec.Quantity)
	}
	if rec.Urgency != UrgencyMedium {
		t.Errorf("urgency = %q, want %q", rec.Urgency, UrgencyMedium)
	}
	if !strings.Contains(rec.Reason, "10 units") {
		t.Errorf("reason = %q, want weekly demand mentioned", rec.Reason)
	}
}

func TestRecommend_MonitorWhenStockAdequate(t *testing.T) {
	engine := flatEngine(10)

	rec := engine.Recommend(16, 5, 1000)
	if rec.Action != ActionMonitor {
		t.Errorf("action = %q, want %q", rec.Action, ActionMonitor)
	}
	if rec.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", rec.Quantity)
	}
	if rec.Urgency != UrgencyLow {
		t.Errorf("urgency = %q, want %q", rec.Urgency, UrgencyLow)
	}
}

func TestRecommend_HighUrgencyAtMinStock(t *testing.T) {
	engine := flatEngine(10)

	rec := engine.Recommend(5, 5, 1000)
	if rec.Action != ActionOrder {
		t.Fatalf("action = %q, want %q", rec.Action, ActionOrder)
	}
	if rec.Urgency != UrgencyHigh {
		t.Errorf("urgency = %q, want %q", rec.Urgency, UrgencyHigh)
	}
}

func TestRecommend_CappedByCapacity(t *testing.T) {
	// Weekly demand 10 → uncapped order would be 40, but only 25 units
	// of capacity remain.
	engine := flatEngine(10)

	rec := engine.Recommend(15, 5, 40)
	if rec.Action != ActionOrder {
		t.Fatalf("action = %q, want %q", rec.Action, ActionOrder)
	}
	if rec.Quantity != 25 {
		t.Errorf("quantity = %d, want 25", rec.Quantity)
	}
}

func TestRecommend_OverCapacityNeverNegative(t *testing.T) {
	// Stock already above max capacity but below the reorder point is
	// impossible for sane inputs; quantity must still not go negative
	// if a caller supplies inconsistent levels.
	engine := flatEngine(1000)

	rec := engine.Recommend(100, 200, 50)
	if rec.Quantity < 0 {
		t.Errorf("quantity = %d, want >= 0", rec.Quantity)
	}
}

func TestRecommend_ZeroDemandFloor(t *testing.T) {
	// All-zero predictions: weekly demand floors at 1 so the reorder
	// point is 1 + ceil(0.5) = 2.
	engine := flatEngine(0)

	rec := engine.Recommend(2, 0, 100)
	if rec.Action != ActionOrder {
		t.Errorf("action at reorder point = %q, want %q", rec.Action, ActionOrder)
	}

	rec = engine.Recommend(3, 0, 100)
	if rec.Action != ActionMonitor {
		t.Errorf("action above reorder point = %q, want %q", rec.Action, ActionMonitor)
	}
}
