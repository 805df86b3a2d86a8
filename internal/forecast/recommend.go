package forecast

import (
	"fmt"
	"math"
)

// Action says what the caller should do about an item's stock level.
type Action string

const (
	ActionOrder   Action = "order"
	ActionMonitor Action = "monitor"
)

// Urgency qualifies an order recommendation.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Recommendation is a procurement suggestion derived from the forecast
// and the item's current stock levels. It is advisory only; nothing is
// persisted here.
type Recommendation struct {
	Action   Action  `json:"action"`
	Quantity int     `json:"quantity"`
	Reason   string  `json:"reason"`
	Urgency  Urgency `json:"urgency,omitempty"`
}

// Recommend projects 30 periods ahead and derives a reorder suggestion
// from the first week of predicted demand. Weekly demand is floored at
// one unit so safety stock never collapses to zero; the order quantity
// is capped at four weeks of demand and at remaining capacity.
func (e *Engine) Recommend(currentStock, minStock, maxStock int) Recommendation {
	result := e.Predict(DefaultHorizon)

	if len(result.Predictions) == 0 {
		return Recommendation{
			Action:   ActionMonitor,
			Quantity: 0,
			Reason:   "Insufficient historical data",
		}
	}

	var sum float64
	for i := 0; i < len(result.Predictions) && i < 7; i++ {
		sum += float64(result.Predictions[i].Value)
	}
	weeklyDemand := math.Max(1, sum/7)

	safetyStock := math.Ceil(weeklyDemand * 0.5)
	reorderPoint := weeklyDemand + safetyStock

	if float64(currentStock) <= reorderPoint {
		quantity := int(math.Ceil(math.Min(float64(maxStock-currentStock), weeklyDemand*4)))
		if quantity < 0 {
			quantity = 0
		}

		urgency := UrgencyMedium
		if currentStock <= minStock {
			urgency = UrgencyHigh
		}

		return Recommendation{
			Action:   ActionOrder,
			Quantity: quantity,
			Reason: fmt.Sprintf("Stock below reorder point. Predicted weekly demand: %d units",
				int(math.Ceil(weeklyDemand))),
			Urgency: urgency,
		}
	}

	return Recommendation{
		Action:   ActionMonitor,
		Quantity: 0,
		Reason:   "Stock level is adequate",
		Urgency:  UrgencyLow,
	}
}
