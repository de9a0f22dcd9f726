package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drxlabs/drx-store-golang/internal/models"
	"github.com/drxlabs/drx-store-golang/internal/tracking"
)

//
// --- Checkout & Order Retrieval Handlers ---
//

// CheckoutItemInput is one requested line item.
type CheckoutItemInput struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CheckoutInput is the checkout request body. IdempotencyKey is a
// client-generated UUID; replaying the same key returns the original
// order instead of creating a duplicate.
type CheckoutInput struct {
	Items           []CheckoutItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingMethod  string              `json:"shippingMethod" binding:"required,oneof=delivery pickup"`
	CustomerName    string              `json:"customerName" binding:"required"`
	CustomerPhone   string              `json:"customerPhone" binding:"required"`
	CustomerEmail   *string             `json:"customerEmail" binding:"omitempty,email"`
	ShippingAddress *string             `json:"shippingAddress"`
	IdempotencyKey  string              `json:"idempotencyKey" binding:"required"`
}

// Checkout is the handler for POST /v1/checkout. Guests and signed-in
// customers share it; a bearer token, when present, makes the order an
// owned one (and thus invisible to the anonymous tracking path).
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := uuid.Parse(input.IdempotencyKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idempotencyKey must be a valid UUID"})
		return
	}

	if input.ShippingMethod == models.ShippingDelivery &&
		(input.ShippingAddress == nil || *input.ShippingAddress == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shippingAddress is required for delivery orders"})
		return
	}

	// 2. --- Resolve the (optional) Owner ---
	draft := tracking.OrderDraft{
		ShippingMethod:  input.ShippingMethod,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		ShippingAddress: input.ShippingAddress,
		IdempotencyKey:  input.IdempotencyKey,
	}
	if userIDRaw, exists := c.Get("userID"); exists {
		userID := userIDRaw.(int64)
		draft.OwnerUserID = &userID
	}

	items := make([]tracking.CheckoutItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, tracking.CheckoutItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	// 3. --- Create the Order & Mint the Token ---
	result, err := h.Tracker.IssueToken(c.Request.Context(), draft, items)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrUnknownProduct), errors.Is(err, tracking.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, tracking.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("checkout: failed to create order: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	// 4. --- Idempotent Replay ---
	// The plaintext token cannot be recovered, so a replay only gets
	// the order reference and the display tracking number back.
	if result.Replayed {
		c.JSON(http.StatusOK, gin.H{
			"message":        "Order already submitted",
			"orderId":        result.Order.ID,
			"status":         result.Order.Status,
			"trackingNumber": result.TrackingNumber,
		})
		return
	}

	// 5. --- Send Success Response ---
	// This is the only place the plaintext token ever leaves the server.
	c.JSON(http.StatusCreated, gin.H{
		"orderId":        result.Order.ID,
		"status":         result.Order.Status,
		"total":          result.Order.Total,
		"trackingNumber": result.TrackingNumber,
		"trackingToken":  result.PlaintextToken,
	})
}

// GetMyOrders is the handler for GET /v1/orders (authenticated).
func (h *Handlers) GetMyOrders(c *gin.Context) {
	// 1. --- Get Customer ID ---
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	// 2. --- Query Orders ---
	query := `
		SELECT id, status, shipping_method, total, tracking_number, created_at, updated_at
		FROM orders
		WHERE owner_user_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows ---
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Status, &o.ShippingMethod, &o.Total, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order data"})
			return
		}
		orders = append(orders, o)
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /v1/orders/:id (authenticated,
// ownership-checked). Owned orders are reachable only through here,
// never through the anonymous tracking path.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	// 1. --- Get IDs ---
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	// 2. --- Fetch Order & Verify Ownership ---
	var o models.Order
	var email, address sql.NullString

	queryOrder := `
		SELECT id, status, shipping_method, total, tracking_number,
		       customer_name, customer_phone, customer_email, shipping_address,
		       created_at, updated_at
		FROM orders
		WHERE id = ? AND owner_user_id = ?`

	err := h.DB.QueryRow(queryOrder, orderID, userID).Scan(
		&o.ID, &o.Status, &o.ShippingMethod, &o.Total, &o.TrackingNumber,
		&o.CustomerName, &o.CustomerPhone, &email, &address,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if email.Valid {
		o.CustomerEmail = &email.String
	}
	if address.Valid {
		o.ShippingAddress = &address.String
	}

	// 3. --- Fetch Order Items with Product Details ---
	queryItems := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.created_at,
		       p.name, p.slug
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?`

	rows, err := h.DB.Query(queryItems, o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}
	defer rows.Close()

	type orderItemDetail struct {
		models.OrderItem
		ProductName string `json:"productName"`
		ProductSlug string `json:"productSlug"`
	}

	var items []orderItemDetail
	for rows.Next() {
		var item orderItemDetail
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt,
			&item.ProductName, &item.ProductSlug,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order item"})
			return
		}
		items = append(items, item)
	}

	if items == nil {
		items = []orderItemDetail{}
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
}
