package websocket

// Message is a single catalog event pushed to connected dashboards.
// Action names the event (product_created, product_updated,
// product_deleted, low_stock_alert) and Payload carries the product
// data the dashboard needs to refresh its view.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}
