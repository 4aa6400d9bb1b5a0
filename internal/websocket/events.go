package websocket

import "encoding/json"

// Event names pushed to connected dashboards
const (
	EventMovementRecorded = "movement_recorded"
	EventPurchaseClosed   = "purchase_finalized"
	EventLowStock         = "low_stock_alert"
)

// StockEvent is the payload broadcast on stock changes
type StockEvent struct {
	Event       string `json:"event"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity,omitempty"`
}

// Publish serializes the event and hands it to the hub without blocking the
// request path; the event is dropped when no dispatcher is draining.
func (h *Hub) Publish(event StockEvent) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
	}
}
