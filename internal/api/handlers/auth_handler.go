package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/internal/authext"
	"github.com/eventflow/eventflow/internal/models"
	mongorepo "github.com/eventflow/eventflow/internal/repositories/mongo"
	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/utils"
)

// AuthHandler is a stateless pass-through to the external auth service for
// clients that do not embed the binder. It also closes the two-phase sign-up
// gap by ensuring the profile row exists server-side.
type AuthHandler struct {
	auth     authext.Client
	profiles services.ProfileService
	audit    mongorepo.AuthEventRepository
	log      *logrus.Logger
}

func NewAuthHandler(auth authext.Client, profiles services.ProfileService, audit mongorepo.AuthEventRepository, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles, audit: audit, log: log}
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.SignIn", "invalid request body", err))
		return
	}

	sess, err := h.auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.record(c, sess.UserID, req.Email, models.AuthEventSignedIn)
	c.JSON(http.StatusOK, sess)
}

type SignUpRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	FullName string      `json:"full_name" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	const op = "AuthHandler.SignUp"

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if !req.Role.Valid() {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "role must be organizer, participant, or sponsor", nil))
		return
	}

	sess, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, authext.SignUpData{
		FullName: req.FullName,
		Role:     string(req.Role),
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}

	if sess.UserID != "" {
		// not transactional with the signup call; EnsureExists is idempotent
		// and the reconcile worker retries misses
		if _, perr := h.profiles.EnsureExists(c.Request.Context(), &models.Profile{
			ID:       sess.UserID,
			Email:    req.Email,
			FullName: req.FullName,
			Role:     req.Role,
		}); perr != nil {
			h.log.WithError(perr).WithField("user_id", sess.UserID).
				Warn("profile create after sign-up failed; reconciliation will retry")
		}
	}

	h.record(c, sess.UserID, req.Email, models.AuthEventSignedUp)
	c.JSON(http.StatusOK, sess)
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPassword replies with the same body whether or not the email is
// registered; only a transport failure is an error.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.ResetPassword", "invalid request body", err))
		return
	}

	if err := h.auth.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		if authext.IsTransport(err) {
			writeError(c, utils.E(utils.CodeUnavailable, "AuthHandler.ResetPassword", "auth service unavailable", err))
			return
		}
		h.log.WithError(err).Debug("password reset reported as success")
	}

	h.record(c, "", req.Email, models.AuthEventResetRequested)
	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a reset link has been sent"})
}

type GoogleSignInResponse struct {
	URL string `json:"url"`
}

func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	redirectTo := c.Query("redirect_to")
	c.JSON(http.StatusOK, GoogleSignInResponse{
		URL: h.auth.AuthorizeURL("google", redirectTo),
	})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	token := bearerFromContext(c)
	if token != "" {
		if err := h.auth.SignOut(c.Request.Context(), token); err != nil {
			// local sign-out still succeeds; revocation is best-effort
			h.log.WithError(err).Warn("remote sign-out failed")
		}
	}

	h.record(c, userID, contextString(c, "user_email"), models.AuthEventSignedOut)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.ChangePassword", "invalid request body", err))
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), bearerFromContext(c), req.NewPassword); err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// DeleteAccount is a stub, as in the original product.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	c.JSON(http.StatusNotImplemented, gin.H{"message": "account deletion is not available yet"})
}

func (h *AuthHandler) record(c *gin.Context, userID, email, kind string) {
	if h.audit == nil {
		return
	}
	ev := &models.AuthEvent{
		UserID:    userID,
		Email:     email,
		Kind:      kind,
		RequestID: contextString(c, "request_id"),
		IP:        c.ClientIP(),
		CreatedAt: time.Now().UTC(),
	}
	// audit writes never block or fail the request
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := h.audit.Insert(ctx, ev); err != nil {
			h.log.WithError(err).Debug("auth audit write failed")
		}
	}()
}

func bearerFromContext(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

// writeAuthError translates the auth service's reason into the API error
// contract.
func writeAuthError(c *gin.Context, err error) {
	var code utils.Code
	var msg string

	switch {
	case authext.IsKind(err, authext.KindInvalidCredentials):
		code, msg = utils.CodeUnauthorized, "invalid email or password"
	case authext.IsKind(err, authext.KindEmailNotConfirmed):
		code, msg = utils.CodeUnauthorized, "email is not confirmed"
	case authext.IsKind(err, authext.KindDuplicateAccount):
		code, msg = utils.CodeConflict, "email already registered"
	case authext.IsKind(err, authext.KindWeakPassword):
		code, msg = utils.CodeInvalidArgument, "password is too weak"
	case authext.IsKind(err, authext.KindRateLimited):
		code, msg = utils.CodeRateLimited, "too many attempts; try again later"
	case authext.IsTransport(err):
		code, msg = utils.CodeUnavailable, "auth service unavailable"
	default:
		code, msg = utils.CodeInternal, "authentication failed"
	}
	writeError(c, utils.E(code, "Auth", msg, err))
}
