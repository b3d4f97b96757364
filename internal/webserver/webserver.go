package webserver

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/quaddelta/catalog/config"
)

// WebServer wraps the echo instance serving the catalog API.
type WebServer struct {
	root *echo.Echo
	cfg  *config.AppConfig
}

func New(cfg *config.AppConfig) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Web.Debug
	e.JSONSerializer = &JsoniterSerializer{}
	e.Use(middleware.Recover())
	e.Use(ZapLogger())

	return &WebServer{root: e, cfg: cfg}
}

// Echo exposes the underlying router for route registration.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until Shutdown is called.
func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.S().Infof("starting catalog api on %s", addr)
	return s.root.Start(addr)
}

// Shutdown drains in-flight requests; in-flight transactions either commit
// or roll back before their handlers return.
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// ZapLogger logs one line per request through the global zap logger.
func ZapLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			zap.L().Info("http request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			)
			return nil
		}
	}
}
