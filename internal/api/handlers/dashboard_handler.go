package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/services"
)

type DashboardHandler struct {
	dashboards services.DashboardService
	profiles   services.ProfileService
}

func NewDashboardHandler(dashboards services.DashboardService, profiles services.ProfileService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, profiles: profiles}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	d, err := h.dashboards.ForUser(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
