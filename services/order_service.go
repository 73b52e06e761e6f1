package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Fixed notes on ledger entries created as a side effect of another operation
const (
	AdvanceNote         = "Advance"
	DeliveryPaymentNote = "Delivery Payment"
)

// OrderInput is the intake form for a new order
type OrderInput struct {
	Token         string
	BillNumber    string // defaults to Token
	CustomerName  string
	TotalAmount   decimal.Decimal
	Measurements  map[string]interface{}
	DeliveryDate  *models.Date
	EntryDate     *models.Date // defaults to today
	Remarks       string
	AdvanceAmount decimal.Decimal
	AdvanceMethod string
	Images        []UploadedFile
}

// OrderUpdate edits descriptive fields. Nil fields are left unchanged; a zero
// DeliveryDate clears it. Images are appended.
type OrderUpdate struct {
	Token        *string
	BillNumber   *string
	CustomerName *string
	TotalAmount  *decimal.Decimal
	Measurements map[string]interface{}
	DeliveryDate *models.Date
	EntryDate    *models.Date
	Remarks      *string
	Images       []UploadedFile
}

// StatusChange is one request to move an order to a new status
type StatusChange struct {
	Status             string
	Note               string
	PaymentAmount      decimal.Decimal
	PaymentMethod      string
	ActualDeliveryDate *models.Date // delivered only; defaults to today
}

// OrderService owns the order lifecycle: intake, edits, status transitions and deletion
type OrderService struct {
	db     *gorm.DB
	images *ImageService
	events EventPublisher
	Now    func() time.Time
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB, images *ImageService, events EventPublisher) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &OrderService{db: db, images: images, events: events, Now: time.Now}
}

// Create takes in a new pending order with its photos and optional advance payment.
// Photo bytes are written inside the transaction; if it fails they are removed again.
func (s *OrderService) Create(ctx context.Context, operatorID *uint, in OrderInput) (*models.Order, error) {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, validationError("Token is required")
	}
	if !in.TotalAmount.IsPositive() {
		return nil, validationError("Total amount must be greater than zero")
	}
	if in.AdvanceAmount.IsNegative() {
		return nil, validationError("Advance amount cannot be negative")
	}
	advanceMethod, err := parseMethod(in.AdvanceMethod)
	if err != nil {
		return nil, err
	}

	billNumber := strings.TrimSpace(in.BillNumber)
	if billNumber == "" {
		billNumber = token
	}
	entryDate := models.DateOf(s.Now())
	if in.EntryDate != nil && !in.EntryDate.IsZero() {
		entryDate = *in.EntryDate
	}
	deliveryDate := in.DeliveryDate
	if deliveryDate != nil && deliveryDate.IsZero() {
		deliveryDate = nil
	}

	order := models.Order{
		Token:        token,
		BillNumber:   billNumber,
		CustomerName: strings.TrimSpace(in.CustomerName),
		TotalAmount:  in.TotalAmount,
		Measurements: datatypes.JSONMap(in.Measurements),
		DeliveryDate: deliveryDate,
		EntryDate:    entryDate,
		Status:       models.StatusPending,
		Remarks:      in.Remarks,
		CreatedBy:    operatorID,
	}

	var stored []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return translateOrderWriteError(err)
		}

		refs, err := s.attachImages(ctx, tx, order.ID, in.Images)
		stored = append(stored, refs...)
		if err != nil {
			return err
		}

		if in.AdvanceAmount.IsPositive() {
			return recordPayment(tx, &models.Payment{
				OrderID:       order.ID,
				Amount:        in.AdvanceAmount,
				PaymentDate:   s.Now(),
				PaymentMethod: advanceMethod,
				Note:          optionalString(AdvanceNote),
			})
		}
		return nil
	})
	if err != nil {
		for _, ref := range stored {
			s.images.Delete(ctx, ref)
		}
		return nil, asServiceError(err, "Failed to create order")
	}

	utils.OrdersCreatedTotal.Inc()
	if in.AdvanceAmount.IsPositive() {
		utils.PaymentsRecordedTotal.WithLabelValues(string(advanceMethod)).Inc()
	}
	utils.GetLogger().Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("token", order.Token),
		zap.Int("images", len(stored)),
	)

	return s.Get(ctx, order.ID)
}

// Get loads an order with its images, ledger and audit trail, and derives its balance
func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order(paymentOrder) }).
		Preload("Logs", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, internalError("Failed to load order", err)
	}

	s.present(&order)
	return &order, nil
}

// List returns one page of orders matching filter, newest first, and the total match count
func (s *OrderService) List(ctx context.Context, filter OrderFilter, page utils.Pagination) ([]models.Order, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(filter.scope)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, internalError("Failed to count orders", err)
	}

	var orders []models.Order
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order(paymentOrder) }).
		Order("id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, internalError("Failed to retrieve orders", err)
	}

	for i := range orders {
		s.present(&orders[i])
	}
	return orders, total, nil
}

// Update edits descriptive fields and appends photos, then returns the order with a fresh balance
func (s *OrderService) Update(ctx context.Context, orderID uint, in OrderUpdate) (*models.Order, error) {
	updates, err := in.assignments()
	if err != nil {
		return nil, err
	}

	var stored []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := findOrder(tx, orderID, &order); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&order).Updates(updates).Error; err != nil {
				return translateOrderWriteError(err)
			}
		}

		refs, err := s.attachImages(ctx, tx, order.ID, in.Images)
		stored = append(stored, refs...)
		return err
	})
	if err != nil {
		for _, ref := range stored {
			s.images.Delete(ctx, ref)
		}
		return nil, asServiceError(err, "Failed to update order")
	}

	return s.Get(ctx, orderID)
}

// Delete removes the order with its images, payments and logs. Stored photo bytes are
// removed after the rows are gone; failures there are logged, not returned.
func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	var order models.Order
	var images []models.OrderImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Find(&images).Error; err != nil {
			return err
		}

		for _, model := range []interface{}{&models.OrderLog{}, &models.Payment{}, &models.OrderImage{}} {
			if err := tx.Where("order_id = ?", order.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		return asServiceError(err, "Failed to delete order")
	}

	for _, img := range images {
		s.images.Delete(ctx, img.Filename)
	}

	utils.OrdersDeletedTotal.Inc()
	publishBestEffort(ctx, s.events, OrderEvent{
		Type:       EventOrderDeleted,
		OrderID:    order.ID,
		Token:      order.Token,
		Status:     order.Status,
		OccurredAt: s.Now(),
	})
	return nil
}

// SetStatus moves an order to a new status. The status update, the optional delivery
// payment and the audit entry are committed together or not at all.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, operatorID *uint, change StatusChange) (*models.Order, error) {
	status, err := models.ParseOrderStatus(change.Status)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}
	if change.PaymentAmount.IsNegative() {
		return nil, validationError("Payment amount cannot be negative")
	}
	method, err := parseMethod(change.PaymentMethod)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var order models.Order
	var balance decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findOrder(tx, orderID, &order); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return validationError("Order cannot move from %s to %s", order.Status, status)
		}

		// actual_delivery_date only carries meaning while delivered
		var actual *models.Date
		var actualValue interface{}
		if status == models.StatusDelivered {
			day := models.DateOf(now)
			if change.ActualDeliveryDate != nil && !change.ActualDeliveryDate.IsZero() {
				day = *change.ActualDeliveryDate
			}
			actual = &day
			actualValue = day
		}

		err := tx.Model(&order).Updates(map[string]interface{}{
			"status":               status,
			"actual_delivery_date": actualValue,
		}).Error
		if err != nil {
			return err
		}
		order.Status = status
		order.ActualDeliveryDate = actual

		if change.PaymentAmount.IsPositive() {
			paidAt := now
			if actual != nil {
				paidAt = actual.Time()
			}
			payment := models.Payment{
				OrderID:       order.ID,
				Amount:        change.PaymentAmount,
				PaymentDate:   paidAt,
				PaymentMethod: method,
				Note:          optionalString(DeliveryPaymentNote),
			}
			if err := recordPayment(tx, &payment); err != nil {
				return err
			}
		}

		balance, err = balanceOf(tx, &order)
		if err != nil {
			return err
		}

		return tx.Create(&models.OrderLog{
			OrderID: order.ID,
			UserID:  operatorID,
			Action:  status.StatusChangedAction(),
			Note:    StatusNote(change.Note, status, balance),
		}).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to update order status")
	}

	utils.StatusTransitionsTotal.WithLabelValues(string(status)).Inc()
	if change.PaymentAmount.IsPositive() {
		utils.PaymentsRecordedTotal.WithLabelValues(string(method)).Inc()
	}
	publishBestEffort(ctx, s.events, OrderEvent{
		Type:       EventStatusChanged,
		OrderID:    order.ID,
		Token:      order.Token,
		Status:     status,
		Amount:     change.PaymentAmount,
		Balance:    balance,
		OccurredAt: s.Now(),
	})

	return s.Get(ctx, order.ID)
}

// StatusNote joins the operator's note with the payment fragment of a delivery.
// Empty parts are omitted; nil when nothing remains.
func StatusNote(note string, status models.OrderStatus, balance decimal.Decimal) *string {
	parts := make([]string, 0, 2)
	if note = strings.TrimSpace(note); note != "" {
		parts = append(parts, note)
	}
	if status == models.StatusDelivered {
		if balance.IsZero() {
			parts = append(parts, "Paid in full")
		} else {
			parts = append(parts, balance.String()+" pending")
		}
	}

	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ". ")
	return &joined
}

// Timeline returns the order's status-change entries, oldest first
func (s *OrderService) Timeline(ctx context.Context, orderID uint) ([]models.OrderLog, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := findOrder(db, orderID, &order); err != nil {
		return nil, asServiceError(err, "Failed to load order")
	}

	var logs []models.OrderLog
	err := db.Where("order_id = ? AND action LIKE ?", order.ID, models.StatusChangedPrefix+"%").
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, internalError("Failed to load timeline", err)
	}
	return logs, nil
}

// DeleteImage removes one stored photo from an order. Legacy images have no row
// and cannot be deleted.
func (s *OrderService) DeleteImage(ctx context.Context, orderID uint, imageID string) error {
	id, err := strconv.ParseUint(imageID, 10, 64)
	if err != nil || id == 0 {
		if strings.HasPrefix(imageID, "legacy-") {
			return validationError("Legacy images are read-only")
		}
		return validationError("Invalid image ID %q", imageID)
	}

	var img models.OrderImage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := findOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND order_id = ?", id, order.ID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("IMAGE_NOT_FOUND", "Image not found")
			}
			return err
		}
		return tx.Delete(&img).Error
	})
	if err != nil {
		return asServiceError(err, "Failed to delete image")
	}

	s.images.Delete(ctx, img.Filename)
	return nil
}

func (s *OrderService) attachImages(ctx context.Context, tx *gorm.DB, orderID uint, files []UploadedFile) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, file := range files {
		img, err := s.images.Store(ctx, orderID, file)
		if err != nil {
			return refs, err
		}
		refs = append(refs, img.Filename)
		if err := tx.Create(&img).Error; err != nil {
			return refs, err
		}
	}
	return refs, nil
}

// present derives balance fields and resolves image URLs on a loaded order
func (s *OrderService) present(order *models.Order) {
	Derive(order)
	order.Images = s.images.ForOrder(order.ID, order.Images)
	if order.Payments == nil {
		order.Payments = []models.Payment{}
	}
	if order.Logs == nil {
		order.Logs = []models.OrderLog{}
	}
}

func (u OrderUpdate) assignments() (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	if u.Token != nil {
		token := strings.TrimSpace(*u.Token)
		if token == "" {
			return nil, validationError("Token cannot be empty")
		}
		updates["token"] = token
	}
	if u.BillNumber != nil {
		bill := strings.TrimSpace(*u.BillNumber)
		if bill == "" {
			return nil, validationError("Bill number cannot be empty")
		}
		updates["bill_number"] = bill
	}
	if u.CustomerName != nil {
		updates["customer_name"] = strings.TrimSpace(*u.CustomerName)
	}
	if u.TotalAmount != nil {
		if !u.TotalAmount.IsPositive() {
			return nil, validationError("Total amount must be greater than zero")
		}
		updates["total_amount"] = *u.TotalAmount
	}
	if u.Measurements != nil {
		updates["measurements"] = datatypes.JSONMap(u.Measurements)
	}
	if u.DeliveryDate != nil {
		if u.DeliveryDate.IsZero() {
			updates["delivery_date"] = nil
		} else {
			updates["delivery_date"] = *u.DeliveryDate
		}
	}
	if u.EntryDate != nil {
		if u.EntryDate.IsZero() {
			return nil, validationError("Entry date cannot be empty")
		}
		updates["entry_date"] = *u.EntryDate
	}
	if u.Remarks != nil {
		updates["remarks"] = *u.Remarks
	}
	return updates, nil
}

// translateOrderWriteError maps the store's uniqueness violation to a conflict
func translateOrderWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflictError("ORDER_EXISTS", "An order with this token or bill number already exists", err)
	}
	return err
}
