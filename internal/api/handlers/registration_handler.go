package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/services"
)

type RegistrationHandler struct {
	svc services.RegistrationService
}

func NewRegistrationHandler(svc services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	reg, err := h.svc.Register(c.Request.Context(), c.Param("event_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h *RegistrationHandler) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), c.Param("event_id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registration cancelled"})
}

func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	organizerID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.CheckIn(c.Request.Context(), organizerID, c.Param("event_id"), c.Param("user_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in"})
}

func (h *RegistrationHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RegistrationHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	favorited, err := h.svc.ToggleFavorite(c.Request.Context(), c.Param("event_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

func (h *RegistrationHandler) Favorites(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ids, err := h.svc.FavoriteEventIDs(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_ids": ids})
}
