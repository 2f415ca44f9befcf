package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/internal/api/handlers"
	"github.com/eventflow/eventflow/internal/api/middleware"
	"github.com/eventflow/eventflow/internal/nav"
)

type Deps struct {
	JWT    middleware.JWTConfig
	Logger *logrus.Logger

	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	Events        *handlers.EventHandler
	Registrations *handlers.RegistrationHandler
	Teams         *handlers.TeamHandler
	Dashboard     *handlers.DashboardHandler
	Analytics     *handlers.AnalyticsHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Auth endpoints the client hits before it has a token
	r.POST("/auth/signin", d.Auth.SignIn)
	r.POST("/auth/signup", d.Auth.SignUp)
	r.POST("/auth/reset", d.Auth.ResetPassword)
	r.GET("/auth/google", d.Auth.GoogleSignIn)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWT))

	auth.POST("/auth/signout", d.Auth.SignOut)
	auth.PUT("/auth/password", d.Auth.ChangePassword)
	auth.DELETE("/account", d.Auth.DeleteAccount)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile", d.Profile.Update)
	auth.POST("/profile/avatar", d.Profile.UploadAvatar)
	auth.GET("/profile/export", d.Profile.Export)
	auth.GET("/nav/sections", d.Profile.Sections)

	auth.GET("/events", d.Events.List)
	auth.GET("/events/mine", d.Events.Mine)
	auth.GET("/events/:event_id", d.Events.Get)

	// Organizer-only event management, gated the same way the sidebar is
	organize := auth.Group("/")
	organize.Use(middleware.RequireSection(nav.SectionCreateEvent))
	organize.POST("/events", d.Events.Create)
	organize.PUT("/events/:event_id/status", d.Events.SetStatus)
	organize.POST("/events/:event_id/image", d.Events.UploadImage)
	organize.POST("/events/:event_id/checkin/:user_id", d.Registrations.CheckIn)

	auth.POST("/events/:event_id/register", d.Registrations.Register)
	auth.DELETE("/events/:event_id/register", d.Registrations.Cancel)
	auth.POST("/events/:event_id/favorite", d.Registrations.ToggleFavorite)
	auth.GET("/registrations/mine", d.Registrations.Mine)
	auth.GET("/favorites", d.Registrations.Favorites)

	teams := auth.Group("/")
	teams.Use(middleware.RequireSection(nav.SectionTeams))
	teams.POST("/teams", d.Teams.Create)
	teams.GET("/teams", d.Teams.List)
	teams.POST("/teams/:team_id/join", d.Teams.Join)
	teams.DELETE("/teams/:team_id/leave", d.Teams.Leave)
	teams.GET("/teams/mine", d.Teams.Mine)

	auth.GET("/dashboard", d.Dashboard.Get)

	analytics := auth.Group("/")
	analytics.Use(middleware.RequireSection(nav.SectionAnalytics))
	analytics.GET("/analytics/summary", d.Analytics.Summary)
	analytics.GET("/analytics/monthly", d.Analytics.Monthly)
	analytics.GET("/analytics/export", d.Analytics.ExportCSV)
}
