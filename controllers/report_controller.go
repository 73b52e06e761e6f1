package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"go.uber.org/zap"
)

// DailyCollections handles GET /api/v1/reports/daily-collections?from=&to=&order=asc|desc
func (h *Handler) DailyCollections(c *gin.Context) {
	var rng *services.DateRange
	from, to := c.Query("from"), c.Query("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			respondBadRequest(c, "VALIDATION_ERROR", "Both from and to are required for a custom range")
			return
		}
		start, err := models.ParseDate(from)
		if err != nil {
			respondBadRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		end, err := models.ParseDate(to)
		if err != nil {
			respondBadRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		rng = &services.DateRange{From: start, To: end}
	}

	ascending := false
	switch c.DefaultQuery("order", "desc") {
	case "asc":
		ascending = true
	case "desc":
	default:
		respondBadRequest(c, "VALIDATION_ERROR", "order must be asc or desc")
		return
	}

	report, err := h.reports.DailyCollections(c.Request.Context(), rng, ascending)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// DailySummary handles GET /api/v1/reports/daily-summary - dashboard statistics for one day,
// today unless date is given
func (h *Handler) DailySummary(c *gin.Context) {
	filter, ok := bindOrderFilter(c)
	if !ok {
		return
	}
	if filter.Date == nil {
		today := models.DateOf(h.reports.Now())
		filter.Date = &today
	}

	summary, err := h.reports.DailySummary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"date":    filter.Date,
		"data":    summary,
	})
}

// ExportOrders handles GET /api/v1/reports/orders.csv - the filtered order set as CSV
func (h *Handler) ExportOrders(c *gin.Context) {
	filter, ok := bindOrderFilter(c)
	if !ok {
		return
	}

	rows, err := h.reports.ExportRows(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.csv", models.DateOf(h.reports.Now()))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	if err := writer.WriteAll(rows); err != nil {
		utils.GetLogger().Error("failed to write csv export", zap.Error(err))
	}
}
