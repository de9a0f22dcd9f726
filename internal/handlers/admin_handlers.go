package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

//
// --- Admin: Order Management Handlers ---
//

// GetAllOrders is the handler for GET /v1/admin/orders.
func (h *Handlers) GetAllOrders(c *gin.Context) {
	// 1. --- Build Query ---
	query := `
		SELECT id, owner_user_id, status, shipping_method, total, tracking_number,
		       customer_name, customer_phone, created_at, updated_at
		FROM orders`
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT 200"

	// 2. --- Execute Query ---
	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows ---
	type adminOrderView struct {
		models.Order
		OwnerUserID *int64 `json:"ownerUserId"` // re-exposed for the admin view only
	}

	var orders []adminOrderView
	for rows.Next() {
		var o adminOrderView
		var ownerID sql.NullInt64
		if err := rows.Scan(
			&o.ID, &ownerID, &o.Status, &o.ShippingMethod, &o.Total, &o.TrackingNumber,
			&o.CustomerName, &o.CustomerPhone, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order row"})
			return
		}
		if ownerID.Valid {
			o.OwnerUserID = &ownerID.Int64
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating order rows"})
		return
	}

	if orders == nil {
		orders = []adminOrderView{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// UpdateOrderStatusInput defines the JSON body for a status change.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus is the handler for PATCH /v1/admin/orders/:id/status.
// Statuses are admin-assignable in any order; only membership in the
// known set is checked.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidOrderStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}

	// 2. --- Update Database ---
	query := "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?"
	result, err := h.DB.Exec(query, input.Status, time.Now(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": input.Status})
}

//
// --- Admin: Verification Code Provisioning ---
//

// ProvisionCodesInput defines an inclusive numeric range of codes to
// create, e.g. {"from": 1, "to": 150} for DRX-EGY-001..DRX-EGY-150.
type ProvisionCodesInput struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,max=999"`
}

// CreateVerificationCodes is the handler for POST /v1/admin/verification-codes.
func (h *Handlers) CreateVerificationCodes(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input ProvisionCodesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Provision ---
	inserted, codes, err := h.Verifier.Provision(c.Request.Context(), *input.From, *input.To)
	if err != nil {
		log.Printf("provision-codes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision codes"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"requested": len(codes),
		"inserted":  inserted,
	})
}
