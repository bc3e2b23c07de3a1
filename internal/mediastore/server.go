package mediastore

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"trackroom/internal/config"
	apphttp "trackroom/internal/http"
	custommiddleware "trackroom/internal/http/middleware"
)

// Server is the peer storage service. It owns the storage root and is meant
// for a private listener: the fetch and delete routes trust their caller.
type Server struct {
	echo *echo.Echo
}

func NewServer(cfg *config.Config, service *Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apphttp.CustomHTTPErrorHandler

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(custommiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(cfg.Storage.MaxUploadSize))

	handler := NewHandler(service)

	e.POST("/files", handler.Upload)
	e.GET("/files/:name", handler.Fetch)
	e.DELETE("/files", handler.Delete)
	e.GET("/health", healthCheck)

	return &Server{echo: e}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
