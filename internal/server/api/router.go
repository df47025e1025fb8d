package api

import (
	"time"

	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates the echo router with all routes and middleware.
func SetupRouter(handler *Handler, logger logging.Logger, secret []byte, bodyLimit string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(RequestLogger(logger.With("module", "http_access")))

	e.GET("/health", handler.HandleHealth)

	e.POST("/upload", handler.HandleUpload, RequireUploadToken(secret))

	objects := e.Group("/objects", RequireSignedRequest(time.Now))
	objects.PUT("/*", handler.HandlePutObject)
	objects.DELETE("/*", handler.HandleDeleteObject)

	return e
}
