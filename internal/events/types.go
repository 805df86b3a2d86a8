package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// Stock level events
	StockLow         EventType = "stock_low"
	StockDepleted    EventType = "stock_depleted"
	StockReplenished EventType = "stock_replenished"

	// Order lifecycle events
	OrderCreated      EventType = "order_created"
	OrderConfirmed    EventType = "order_confirmed"
	OrderShipped      EventType = "order_shipped"
	OrderDelivered    EventType = "order_delivered"
	OrderRejected     EventType = "order_rejected"
	OrderAutoRejected EventType = "order_auto_rejected"

	// Forecast events
	ReorderRecommended EventType = "reorder_recommended"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type      EventType         `json:"type"`
	Severity  Severity          `json:"severity"`
	ItemCode  string            `json:"item_code,omitempty"`
	ItemName  string            `json:"item_name,omitempty"`
	OrderCode string            `json:"order_code,omitempty"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
