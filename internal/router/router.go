package router // package router defines how HTTP routes are registered for the portal

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/teacher-portal/internal/config"
	"github.com/iliyamo/teacher-portal/internal/handler"
	"github.com/iliyamo/teacher-portal/internal/middleware"
	"github.com/iliyamo/teacher-portal/internal/session"
)

// RegisterRoutes registers routes that never touch authentication. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPortal installs the auth gate and every portal route behind it.
// The gate runs once per request; the login endpoints sit on its excluded
// path list and carry the Redis throttle instead. Mutating API routes
// additionally pass the anti-forgery check.
func RegisterPortal(e *echo.Echo, a *handler.AuthHandler, s *handler.StudentHandler,
	store *session.Store, sessions middleware.SessionValidator,
	csrfSecret string, throttle config.ThrottleConfig, rdb *redis.Client) {

	e.Use(middleware.SessionAuth(store, sessions))

	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login, middleware.LoginThrottle(throttle, rdb))
	e.POST("/logout", a.Logout, middleware.CSRF(csrfSecret, store))

	e.GET("/", s.Home)

	api := e.Group("/api", middleware.CSRF(csrfSecret, store))
	api.POST("/add-student", s.AddStudent)
	api.POST("/update-marks", s.UpdateMarks)
	api.POST("/delete-student", s.DeleteStudent)
	api.POST("/change-password", a.ChangePassword)
}
