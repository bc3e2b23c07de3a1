package http

import (
	"context"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"trackroom/internal/auth"
	"trackroom/internal/config"
	"trackroom/internal/http/handler"
	"trackroom/internal/http/middleware"
)

const (
	jsonKeyStatus = "status"
	statusOK      = "ok"
)

type ServerDependencies struct {
	Config       *config.Config
	Users        handler.UserStore
	Media        handler.MediaStore
	Uploads      handler.Uploader
	Files        handler.FileFetcher
	Deleter      handler.MediaDeleter
	TokenService *auth.TokenService
}

type Server struct {
	echo *echo.Echo
	csrf *middleware.CSRFMiddleware
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = CustomHTTPErrorHandler

	cfg := deps.Config
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	loginLimiter := middleware.NewLoginLimiter(cfg.Login.MaxAttempts, cfg.Login.Window)
	csrf := middleware.NewCSRFMiddleware(context.Background())

	sessionTTL := cfg.Auth.SessionTTL
	fileTokenTTL := config.FileTokenTTL(cfg.Auth.FileTokenTTLDays)
	secureCookie := cfg.Environment == config.EnvProduction

	authHandler := handler.NewAuthHandler(deps.Users, deps.TokenService, csrf, sessionTTL, secureCookie)
	mediaHandler := handler.NewMediaHandler(deps.Media, deps.Uploads, deps.TokenService, deps.Deleter, cfg.Peer.PublicBaseURL, fileTokenTTL, cfg.Storage.MaxUploadBytes)
	gatewayHandler := handler.NewGatewayHandler(deps.TokenService, deps.Files)

	authMiddleware := auth.NewMiddleware(deps.TokenService)

	e.POST("/auth/login", authHandler.Login, loginLimiter.Middleware())
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/health", healthCheck)

	// Capability-gated; session cookies play no role here.
	e.GET("/stream", gatewayHandler.Stream)

	api := e.Group("/api")
	api.Use(authMiddleware.RequireSession())
	api.Use(csrf.Middleware())

	api.POST("/media", mediaHandler.Upload, echomiddleware.BodyLimit(cfg.Storage.MaxUploadSize))
	api.GET("/media", mediaHandler.List)
	api.GET("/media/:id", mediaHandler.Get)
	api.GET("/media/:id/urls", mediaHandler.GetFileURLs)
	api.DELETE("/media/:id", mediaHandler.Delete)

	return &Server{echo: e, csrf: csrf}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.csrf.Stop()
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
