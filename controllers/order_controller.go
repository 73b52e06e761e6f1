package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/shopspring/decimal"
)

// OrderRequest is the body of order create and update requests. Absent fields are nil.
type OrderRequest struct {
	Token         *string                `json:"token"`
	BillNumber    *string                `json:"bill_number"`
	CustomerName  *string                `json:"customer_name"`
	TotalAmount   *decimal.Decimal       `json:"total_amount"`
	Measurements  map[string]interface{} `json:"measurements"`
	DeliveryDate  *models.Date           `json:"delivery_date"`
	EntryDate     *models.Date           `json:"entry_date"`
	Remarks       *string                `json:"remarks"`
	AdvanceAmount *decimal.Decimal       `json:"advance_amount"`
	AdvanceMethod *string                `json:"advance_method"`
}

// StatusRequest is the body of PUT /orders/:id/status
type StatusRequest struct {
	Status             string           `json:"status" binding:"required"`
	Note               string           `json:"note"`
	PaymentAmount      *decimal.Decimal `json:"payment_amount"`
	PaymentMethod      string           `json:"payment_method"`
	ActualDeliveryDate *models.Date     `json:"actual_delivery_date"`
}

// CreateOrder handles POST /api/v1/orders - takes in a new order, as JSON or multipart with images[]
func (h *Handler) CreateOrder(c *gin.Context) {
	operator, ok := h.currentOperator(c)
	if !ok {
		return
	}

	req, files, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	in := services.OrderInput{
		Token:         deref(req.Token),
		BillNumber:    deref(req.BillNumber),
		CustomerName:  deref(req.CustomerName),
		Measurements:  req.Measurements,
		DeliveryDate:  req.DeliveryDate,
		EntryDate:     req.EntryDate,
		Remarks:       deref(req.Remarks),
		AdvanceMethod: deref(req.AdvanceMethod),
		Images:        files,
	}
	if req.TotalAmount != nil {
		in.TotalAmount = *req.TotalAmount
	}
	if req.AdvanceAmount != nil {
		in.AdvanceAmount = *req.AdvanceAmount
	}

	order, err := h.orders.Create(c.Request.Context(), &operator.ID, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - filtered, paginated order listing
func (h *Handler) ListOrders(c *gin.Context) {
	filter, ok := bindOrderFilter(c)
	if !ok {
		return
	}
	pagination := utils.ParsePagination(c)

	orders, total, err := h.orders.List(c.Request.Context(), filter, pagination)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int((total + int64(pagination.Limit) - 1) / int64(pagination.Limit))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"page":        pagination.Page,
			"limit":       pagination.Limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id - edits descriptive fields and appends images
func (h *Handler) UpdateOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	req, files, ok := bindOrderRequest(c)
	if !ok {
		return
	}

	order, err := h.orders.Update(c.Request.Context(), orderID, services.OrderUpdate{
		Token:        req.Token,
		BillNumber:   req.BillNumber,
		CustomerName: req.CustomerName,
		TotalAmount:  req.TotalAmount,
		Measurements: req.Measurements,
		DeliveryDate: req.DeliveryDate,
		EntryDate:    req.EntryDate,
		Remarks:      req.Remarks,
		Images:       files,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:id (owners only)
func (h *Handler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	operator, ok := h.currentOperator(c)
	if !ok {
		return
	}

	var req StatusRequest
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

	change := services.StatusChange{
		Status:             req.Status,
		Note:               req.Note,
		PaymentMethod:      req.PaymentMethod,
		ActualDeliveryDate: req.ActualDeliveryDate,
	}
	if req.PaymentAmount != nil {
		change.PaymentAmount = *req.PaymentAmount
	}

	order, err := h.orders.SetStatus(c.Request.Context(), orderID, &operator.ID, change)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderTimeline handles GET /api/v1/orders/:id/timeline - status changes, oldest first
func (h *Handler) GetOrderTimeline(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	logs, err := h.orders.Timeline(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// DeleteOrderImage handles DELETE /api/v1/orders/:id/images/:imageId
func (h *Handler) DeleteOrderImage(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteImage(c.Request.Context(), orderID, c.Param("imageId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image deleted",
	})
}

// bindOrderRequest reads an order body from JSON or from a multipart form with image files
func bindOrderRequest(c *gin.Context) (*OrderRequest, []services.UploadedFile, bool) {
	var req OrderRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": err.Error(),
				},
			})
			return nil, nil, false
		}
		return &req, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, "INVALID_FORM", "Failed to parse multipart form")
		return nil, nil, false
	}
	if err := req.fromForm(form.Value); err != nil {
		respondBadRequest(c, "VALIDATION_ERROR", err.Error())
		return nil, nil, false
	}

	headers := append(form.File["images[]"], form.File["images"]...)
	files := make([]services.UploadedFile, 0, len(headers))
	for _, header := range headers {
		file, err := readImage(header)
		if err != nil {
			var uploadErr *utils.FileUploadError
			if errors.As(err, &uploadErr) {
				respondBadRequest(c, uploadErr.Code, uploadErr.Message)
			} else {
				respondBadRequest(c, "INVALID_FILE", "Failed to read uploaded file")
			}
			return nil, nil, false
		}
		files = append(files, file)
	}
	return &req, files, true
}

func (r *OrderRequest) fromForm(values map[string][]string) error {
	get := func(key string) (string, bool) {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	for key, dst := range map[string]**string{
		"token":          &r.Token,
		"bill_number":    &r.BillNumber,
		"customer_name":  &r.CustomerName,
		"remarks":        &r.Remarks,
		"advance_method": &r.AdvanceMethod,
	} {
		if v, ok := get(key); ok {
			value := v
			*dst = &value
		}
	}

	for key, dst := range map[string]**decimal.Decimal{
		"total_amount":   &r.TotalAmount,
		"advance_amount": &r.AdvanceAmount,
	} {
		v, ok := get(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid amount for %s", key)
		}
		*dst = &amount
	}

	for key, dst := range map[string]**models.Date{
		"delivery_date": &r.DeliveryDate,
		"entry_date":    &r.EntryDate,
	} {
		v, ok := get(key)
		if !ok {
			continue
		}
		var day models.Date
		if strings.TrimSpace(v) != "" {
			parsed, err := models.ParseDate(v)
			if err != nil {
				return err
			}
			day = parsed
		}
		*dst = &day
	}

	if v, ok := get("measurements"); ok && strings.TrimSpace(v) != "" {
		if err := json.Unmarshal([]byte(v), &r.Measurements); err != nil {
			return errors.New("measurements must be a JSON object")
		}
	}
	return nil
}

func readImage(header *multipart.FileHeader) (services.UploadedFile, error) {
	content, err := utils.ReadUploadedFile(header)
	if err != nil {
		return services.UploadedFile{}, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}
	return services.UploadedFile{
		Name:        header.Filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}

// bindOrderFilter reads the shared listing filters from the query string
func bindOrderFilter(c *gin.Context) (services.OrderFilter, bool) {
	filter := services.OrderFilter{
		Status:    c.Query("status"),
		DateField: c.Query("date_field"),
		Search:    c.Query("search"),
	}

	for key, dst := range map[string]**models.Date{
		"date": &filter.Date,
		"from": &filter.From,
		"to":   &filter.To,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		day, err := models.ParseDate(raw)
		if err != nil {
			respondBadRequest(c, "VALIDATION_ERROR", err.Error())
			return filter, false
		}
		*dst = &day
	}
	return filter, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
