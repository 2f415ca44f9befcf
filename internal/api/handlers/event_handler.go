package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/utils"
)

type EventHandler struct {
	svc services.EventService
}

func NewEventHandler(svc services.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

type CreateEventRequest struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	StartDate    time.Time           `json:"start_date" binding:"required"`
	EndDate      time.Time           `json:"end_date" binding:"required"`
	Location     string              `json:"location"`
	LocationType models.LocationType `json:"location_type"`
	Category     string              `json:"category"`
	Capacity     int                 `json:"capacity"`
	Theme        string              `json:"theme"`
	ImageURL     string              `json:"image_url"`
	Status       models.EventStatus  `json:"status"` // draft|published
}

func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EventHandler.Create", "invalid request body", err))
		return
	}

	e, err := h.svc.Create(c.Request.Context(), userID, services.CreateEventInput{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Location:     req.Location,
		LocationType: req.LocationType,
		Category:     req.Category,
		Capacity:     req.Capacity,
		Theme:        req.Theme,
		ImageURL:     req.ImageURL,
		Status:       req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// List serves the events page: published upcoming events with search and
// filter query params.
func (h *EventHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	f := pgrepo.EventFilter{
		Search:       c.Query("q"),
		Category:     c.Query("category"),
		LocationType: models.LocationType(strings.ToLower(c.Query("type"))),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Offset = n
		}
	}

	out, err := h.svc.ListPublished(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *EventHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	e, err := h.svc.Get(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	out, err := h.svc.ListMine(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type SetEventStatusRequest struct {
	Status models.EventStatus `json:"status" binding:"required"`
}

func (h *EventHandler) SetStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SetEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EventHandler.SetStatus", "invalid request body", err))
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), userID, c.Param("event_id"), req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// UploadImage stores an event image and returns its URL for use in Create.
func (h *EventHandler) UploadImage(c *gin.Context) {
	const op = "EventHandler.UploadImage"

	if _, ok := requireUserID(c); !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file is required", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read file", err))
		return
	}
	defer f.Close()

	ext := strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
	url, err := h.svc.UploadImage(c.Request.Context(), ext, fh.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
