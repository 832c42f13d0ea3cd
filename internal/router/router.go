package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/iliyamo/hand-pose-trainer/internal/handler"    // handlers implementing the endpoint logic
    "github.com/iliyamo/hand-pose-trainer/internal/middleware" // identity middleware for protected routes
)

// RegisterRoutes registers routes that carry no auth requirement. At the
// moment it only exposes a health check for load balancers and monitors.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the credential and account endpoints. The
// unauthenticated operations live under /v1/auth and are wrapped in the
// given rate limiter, since register/login/forgot-password are the
// endpoints where unthrottled guessing matters. Account management lives
// under /v1 and requires a resolved identity.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	auth := e.Group("/v1", middleware.RequireIdentity())
	auth.GET("/me", a.Me)
	auth.PUT("/account/username", a.ChangeUsername)
	auth.PUT("/account/password", a.ChangePassword)
}

// RegisterResources registers one owned-resource kind under
// /v1/<prefix> (models, mappings, sequences). The community feed is the
// only endpoint worth caching: it is anonymous, hot and identical for
// every caller. The detail endpoint stays uncached because its response
// depends on who is asking.
func RegisterResources(e *echo.Echo, h *handler.ResourceHandler, prefix string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/" + prefix)
	g.GET("/community", h.ListPublic, cache)
	g.GET("/:id", h.Get)

	auth := e.Group("/v1/"+prefix, middleware.RequireIdentity())
	auth.GET("/mine", h.ListMine)
	auth.POST("/save", h.Save)
	auth.DELETE("/:id", h.Delete)
	auth.PATCH("/:id/visibility", h.SetVisibility)
}
