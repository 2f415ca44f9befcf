package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/services"
)

type AnalyticsHandler struct {
	svc services.AnalyticsService
}

func NewAnalyticsHandler(svc services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func window(c *gin.Context) services.Window {
	w := services.Window(c.DefaultQuery("window", string(services.Window30d)))
	return w
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.Summary(c.Request.Context(), userID, window(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.Monthly(c.Request.Context(), userID, window(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	b, err := h.svc.ExportCSV(c.Request.Context(), userID, window(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="event-performance.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", b)
}
