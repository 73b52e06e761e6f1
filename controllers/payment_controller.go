package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/shopspring/decimal"
)

// PaymentRequest is the body of POST /orders/:id/payments
type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Note          string          `json:"note"`
}

// AddPayment handles POST /api/v1/orders/:id/payments - appends a payment to the ledger
func (h *Handler) AddPayment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	balance, err := h.ledger.AddPayment(c.Request.Context(), orderID, services.PaymentInput{
		Amount: req.Amount,
		Date:   req.PaymentDate,
		Method: req.PaymentMethod,
		Note:   req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"order_id": orderID,
			"balance":  balance,
		},
	})
}

// ListPayments handles GET /api/v1/orders/:id/payments - ledger with method totals and balance
func (h *Handler) ListPayments(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.ledger.Summary(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}
