package models

import "time"

// Product statuses. Anything else is rejected at the service layer.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Product represents a catalog entry.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	SKU         string    `json:"sku"`
	Status      string    `json:"status"` // "active" or "inactive"
	Sales       int       `json:"sales"`  // server-maintained, never client-set
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DashboardStats is the aggregate view backing the dashboard cards and charts.
type DashboardStats struct {
	TotalProducts    int            `json:"totalProducts"`
	ActiveProducts   int            `json:"activeProducts"`
	TotalStock       int            `json:"totalStock"`
	TotalSales       int            `json:"totalSales"`
	LowStockProducts int            `json:"lowStockProducts"`
	CategoryStats    []CategoryStat `json:"categoryStats"`
}

// CategoryStat is one per-category row, sorted by descending product count.
type CategoryStat struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	TotalSales int    `json:"totalSales"`
	TotalStock int    `json:"totalStock"`
}

// UploadResult is what the image host hands back after a successful upload.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}
