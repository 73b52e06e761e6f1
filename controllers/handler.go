package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/middleware"
	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the HTTP API on top of the service layer
type Handler struct {
	db       *gorm.DB
	orders   *services.OrderService
	ledger   *services.LedgerService
	reports  *services.ReportService
	local    *services.LocalStorage
	userInfo services.UserInfoProvider
}

// NewHandler wires the controllers to their services
func NewHandler(db *gorm.DB, orders *services.OrderService, ledger *services.LedgerService, reports *services.ReportService, local *services.LocalStorage, userInfo services.UserInfoProvider) *Handler {
	return &Handler{
		db:       db,
		orders:   orders,
		ledger:   ledger,
		reports:  reports,
		local:    local,
		userInfo: userInfo,
	}
}

// RegisterRoutes mounts the API under v1. auth validates the caller's token.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	users := v1.Group("/users", auth)
	{
		users.POST("", h.CreateUser)
		users.GET("/me", h.GetMyProfile)
		users.PUT("/me", h.UpdateMyProfile)
	}

	orders := v1.Group("/orders", auth)
	{
		orders.GET("", h.ListOrders)
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", middleware.RequireRole(models.RoleOwner), h.DeleteOrder)
		orders.PUT("/:id/status", h.UpdateOrderStatus)
		orders.GET("/:id/timeline", h.GetOrderTimeline)
		orders.POST("/:id/payments", h.AddPayment)
		orders.GET("/:id/payments", h.ListPayments)
		orders.DELETE("/:id/images/:imageId", h.DeleteOrderImage)
	}

	reports := v1.Group("/reports", auth)
	{
		reports.GET("/daily-collections", h.DailyCollections)
		reports.GET("/daily-summary", h.DailySummary)
		reports.GET("/orders.csv", h.ExportOrders)
	}
}

// RegisterFileRoutes serves locally stored images under both URL conventions candidate paths produce
func (h *Handler) RegisterFileRoutes(router *gin.Engine) {
	router.GET("/storage/*path", h.ServeStoredImage)
	router.GET("/uploads/*path", h.ServeUploadedImage)
}

func errorStatus(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindTooLarge:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response for anything returned by the service layer
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		utils.GetLogger().Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			},
		})
		return
	}

	status := errorStatus(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		utils.GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(svcErr))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    svcErr.Code,
			"message": svcErr.Message,
		},
	})
}

func respondBadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// parseID reads a positive numeric path parameter, writing a 400 when it is not one
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "INVALID_ID", "Invalid ID format")
		return 0, false
	}
	return uint(id), true
}

// currentOperator resolves the caller's operator profile, writing an error response when
// there is none
func (h *Handler) currentOperator(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User profile not found. Please create a profile first.",
				},
			})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return &user, true
}
