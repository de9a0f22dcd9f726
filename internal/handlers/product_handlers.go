package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

//
// --- Public Catalog Handlers ---
//

// GetProducts is the handler for GET /v1/products.
func (h *Handlers) GetProducts(c *gin.Context) {
	// 1. --- Build Query ---
	query := `
		SELECT id, slug, name, description, category, price, stock_quantity, status, image_url, created_at, updated_at
		FROM products
		WHERE status = 'published'`
	args := []interface{}{}

	if category := c.Query("category"); category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY name ASC"

	// 2. --- Execute Query ---
	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows into Slice ---
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating product rows"})
		return
	}

	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProductBySlug is the handler for GET /v1/products/:slug.
func (h *Handlers) GetProductBySlug(c *gin.Context) {
	query := `
		SELECT id, slug, name, description, category, price, stock_quantity, status, image_url, created_at, updated_at
		FROM products
		WHERE slug = ? AND status = 'published'`

	row := h.DB.QueryRow(query, c.Param("slug"))
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	var imageURL sql.NullString

	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.StockQuantity, &p.Status, &imageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	return p, nil
}

//
// --- Admin Catalog Handlers ---
//

// ProductInput defines the JSON body for creating/updating a product.
type ProductInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Price       *float64 `json:"price" binding:"required,gt=0"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
	Status      string   `json:"status" binding:"required,oneof=draft published"`
	ImageURL    *string  `json:"imageUrl"`
}

// CreateProduct is the handler for POST /v1/admin/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Insert ---
	now := time.Now()
	query := `
		INSERT INTO products (slug, name, description, category, price, stock_quantity, status, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	productSlug := slug.Make(input.Name)
	result, err := h.DB.Exec(query,
		productSlug, input.Name, input.Description, input.Category,
		*input.Price, *input.Stock, input.Status, input.ImageURL, now, now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	productID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new product ID"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Product created successfully",
		"productId": productID,
		"slug":      productSlug,
	})
}

// UpdateProduct is the handler for PUT /v1/admin/products/:id.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := `
		UPDATE products
		SET name = ?, description = ?, category = ?, price = ?, stock_quantity = ?, status = ?, image_url = ?, updated_at = ?
		WHERE id = ?`

	result, err := h.DB.Exec(query,
		input.Name, input.Description, input.Category,
		*input.Price, *input.Stock, input.Status, input.ImageURL,
		time.Now(), c.Param("id"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully"})
}
