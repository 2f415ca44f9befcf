package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/utils"
)

type TeamHandler struct {
	svc services.TeamService
}

func NewTeamHandler(svc services.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

type CreateTeamRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	EventID        string   `json:"event_id" binding:"required"`
	MaxMembers     int      `json:"max_members" binding:"required"`
	SkillsRequired []string `json:"skills_required"`
}

func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TeamHandler.Create", "invalid request body", err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), userID, services.CreateTeamInput{
		Name:           req.Name,
		Description:    req.Description,
		EventID:        req.EventID,
		MaxMembers:     req.MaxMembers,
		SkillsRequired: req.SkillsRequired,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TeamHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	out, err := h.svc.List(c.Request.Context(), c.Query("event_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *TeamHandler) Join(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Join(c.Request.Context(), c.Param("team_id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined team"})
}

func (h *TeamHandler) Leave(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Leave(c.Request.Context(), c.Param("team_id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left team"})
}

func (h *TeamHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ids, err := h.svc.MyTeamIDs(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team_ids": ids})
}
