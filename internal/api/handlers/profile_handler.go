package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/nav"
	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/utils"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	FullName    *string          `json:"full_name,omitempty"`
	Skills      *[]string        `json:"skills,omitempty"`
	Interests   *[]string        `json:"interests,omitempty"`
	AvatarURL   *string          `json:"avatar_url,omitempty"`
	Preferences *json.RawMessage `json:"preferences,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}

	upd := services.ProfileUpdate{
		FullName:  req.FullName,
		Skills:    req.Skills,
		Interests: req.Interests,
		AvatarURL: req.AvatarURL,
	}
	if req.Preferences != nil {
		j := datatypes.JSON(*req.Preferences)
		upd.Preferences = &j
	}

	p, err := h.svc.Update(c.Request.Context(), userID, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadAvatar accepts a multipart "file" field, stores it, and binds the
// public URL to the profile.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	const op = "ProfileHandler.UploadAvatar"

	userID, ok := requireUserID(c)
	if !ok {
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
	url, err := h.svc.UploadAvatar(c.Request.Context(), userID, ext, fh.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(c, err)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), userID, services.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Sections returns the navigation visible to the caller's role.
func (h *ProfileHandler) Sections(c *gin.Context) {
	role := models.Role(contextString(c, "role"))
	c.JSON(http.StatusOK, gin.H{"sections": nav.VisibleSections(role)})
}

// Export is the settings-page "download my data" action.
func (h *ProfileHandler) Export(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="my-data-export.json"`)
	c.JSON(http.StatusOK, gin.H{
		"profile":     p,
		"exported_at": time.Now().UTC(),
	})
}
