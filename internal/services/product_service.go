package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelez/shopadmin-be/internal/models"
)

// LowStockThreshold is the stock level under which a product counts as low
// stock, both on the dashboard and for the background watcher.
const LowStockThreshold = 10

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// Catalog event actions broadcast to connected dashboards.
const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionLowStockAlert  = "low_stock_alert"
)

// CatalogNotifier receives catalog change events for live dashboards.
type CatalogNotifier interface {
	NotifyCatalog(action string, payload interface{})
}

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Status   string
	Search   string // matched case-insensitively against name, description, sku
}

// ProductInput is the client-supplied portion of a product. Sales and
// timestamps are server-maintained and deliberately absent.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	SKU         string   `json:"sku"`
	Status      string   `json:"status"`
}

// ProductServiceProvider defines the interface for catalog services.
type ProductServiceProvider interface {
	GetProducts(filter ProductFilter) ([]models.Product, error)
	GetProduct(id string) (models.Product, error)
	CreateProduct(input ProductInput) (models.Product, error)
	UpdateProduct(id string, input ProductInput) (models.Product, error)
	DeleteProduct(id string) error
	GetStats() (models.DashboardStats, error)
	LowStockProducts(threshold int) ([]models.Product, error)
}

// ProductService provides business logic for the product catalog.
type ProductService struct {
	db       *sql.DB
	notifier CatalogNotifier
}

// NewProductService creates a new ProductService. notifier may be nil when no
// event stream is wanted.
func NewProductService(db *sql.DB, notifier CatalogNotifier) *ProductService {
	return &ProductService{db: db, notifier: notifier}
}

const productColumns = "id, name, description, price, stock, category, images, sku, status, sales, created_at, updated_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (models.Product, error) {
	var p models.Product
	var images string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		&images, &p.SKU, &p.Status, &p.Sales, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return models.Product{}, fmt.Errorf("decode images for product %s: %w", p.ID, err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

// GetProducts lists products matching the filter, newest first.
func (s *ProductService) GetProducts(filter ProductFilter) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	var conds []string
	var args []interface{}

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conds = append(conds, "(lower(name) LIKE ? OR lower(description) LIKE ? OR lower(sku) LIKE ?)")
		needle := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, needle, needle, needle)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(id string) (models.Product, error) {
	row := s.db.QueryRow("SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	return p, err
}

// CreateProduct validates the input and inserts a new product. Sales starts
// at zero; sku uniqueness is enforced by the store's unique index.
func (s *ProductService) CreateProduct(input ProductInput) (models.Product, error) {
	norm, err := validateInput(input)
	if err != nil {
		return models.Product{}, err
	}

	now := time.Now().UTC()
	p := models.Product{
		ID:          uuid.New().String(),
		Name:        norm.Name,
		Description: norm.Description,
		Price:       norm.Price,
		Stock:       norm.Stock,
		Category:    norm.Category,
		Images:      norm.Images,
		SKU:         norm.SKU,
		Status:      norm.Status,
		Sales:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	images, _ := json.Marshal(p.Images)
	_, err = s.db.Exec(
		"INSERT INTO products(id, name, description, price, stock, category, images, sku, status, sales, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, string(images), p.SKU, p.Status, p.Sales, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Product{}, fmt.Errorf("sku %s: %w", p.SKU, ErrDuplicateSKU)
		}
		return models.Product{}, err
	}

	s.notify(ActionProductCreated, p)
	return p, nil
}

// UpdateProduct validates the input and overwrites the client-editable
// fields of an existing product, leaving sales and created_at untouched.
func (s *ProductService) UpdateProduct(id string, input ProductInput) (models.Product, error) {
	norm, err := validateInput(input)
	if err != nil {
		return models.Product{}, err
	}

	if _, err := s.GetProduct(id); err != nil {
		return models.Product{}, err
	}

	images, _ := json.Marshal(norm.Images)
	_, err = s.db.Exec(
		"UPDATE products SET name = ?, description = ?, price = ?, stock = ?, category = ?, images = ?, sku = ?, status = ?, updated_at = ? WHERE id = ?",
		norm.Name, norm.Description, norm.Price, norm.Stock, norm.Category, string(images), norm.SKU, norm.Status, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Product{}, fmt.Errorf("sku %s: %w", norm.SKU, ErrDuplicateSKU)
		}
		return models.Product{}, err
	}

	p, err := s.GetProduct(id)
	if err != nil {
		return models.Product{}, err
	}
	s.notify(ActionProductUpdated, p)
	return p, nil
}

// DeleteProduct removes a product from the catalog.
func (s *ProductService) DeleteProduct(id string) error {
	res, err := s.db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	s.notify(ActionProductDeleted, map[string]string{"id": id})
	return nil
}

// GetStats aggregates the catalog for the dashboard. Category rows come back
// sorted by descending product count.
func (s *ProductService) GetStats() (models.DashboardStats, error) {
	var stats models.DashboardStats
	row := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(stock), 0),
			COALESCE(SUM(sales), 0),
			COALESCE(SUM(CASE WHEN stock < ? THEN 1 ELSE 0 END), 0)
		FROM products`, LowStockThreshold)
	if err := row.Scan(&stats.TotalProducts, &stats.ActiveProducts, &stats.TotalStock,
		&stats.TotalSales, &stats.LowStockProducts); err != nil {
		return models.DashboardStats{}, err
	}

	rows, err := s.db.Query(`
		SELECT category, COUNT(*) AS count, COALESCE(SUM(sales), 0), COALESCE(SUM(stock), 0)
		FROM products
		GROUP BY category
		ORDER BY count DESC`)
	if err != nil {
		return models.DashboardStats{}, err
	}
	defer rows.Close()

	stats.CategoryStats = []models.CategoryStat{}
	for rows.Next() {
		var c models.CategoryStat
		if err := rows.Scan(&c.Category, &c.Count, &c.TotalSales, &c.TotalStock); err != nil {
			return models.DashboardStats{}, err
		}
		stats.CategoryStats = append(stats.CategoryStats, c)
	}
	return stats, rows.Err()
}

// LowStockProducts lists products under the given stock threshold, lowest
// first. Used by the background stock watcher.
func (s *ProductService) LowStockProducts(threshold int) ([]models.Product, error) {
	rows, err := s.db.Query("SELECT "+productColumns+" FROM products WHERE stock < ? ORDER BY stock ASC", threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *ProductService) notify(action string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.NotifyCatalog(action, payload)
	}
}

// validateInput normalizes and validates client input. The sku is
// uppercased before the pattern check, matching how it is stored.
func validateInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.SKU = strings.ToUpper(strings.TrimSpace(input.SKU))

	if input.Name == "" {
		return input, validationErrorf("Product name is required")
	}
	if len(input.Name) > 200 {
		return input, validationErrorf("Product name cannot exceed 200 characters")
	}
	if input.Description == "" {
		return input, validationErrorf("Product description is required")
	}
	if input.Price < 0 {
		return input, validationErrorf("Price cannot be negative")
	}
	if input.Stock < 0 {
		return input, validationErrorf("Stock cannot be negative")
	}
	if input.Category == "" {
		return input, validationErrorf("Product category is required")
	}
	if input.SKU == "" {
		return input, validationErrorf("SKU is required")
	}
	if !skuPattern.MatchString(input.SKU) {
		return input, validationErrorf("SKU must contain only uppercase letters, numbers, and hyphens")
	}
	switch input.Status {
	case "":
		input.Status = models.StatusActive
	case models.StatusActive, models.StatusInactive:
	default:
		return input, validationErrorf("Status must be either active or inactive")
	}
	if input.Images == nil {
		input.Images = []string{}
	}
	return input, nil
}

// isUniqueViolation recognizes the sqlite unique-index error for the sku
// column.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
