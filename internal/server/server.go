package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/controller"
)

// Server is the HTTP gateway. Inbound chat events arrive on /v1/events and
// are handed to the controller; everything it sends back travels through the
// configured Responder, never through the HTTP response.
type Server struct {
	e      *echo.Echo
	cfg    *config.Config
	logger *log.Logger
}

func New(cfg *config.Config, ctrl *controller.Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	v1 := e.Group("/v1")
	(&EventsHandler{Controller: ctrl}).Register(v1)
	(&ProbeHandler{
		Sources:   cfg.Sources,
		UserAgent: cfg.Fetch.UserAgent,
		Client:    &http.Client{Timeout: cfg.Fetch.Timeout},
	}).Register(v1)

	return &Server{e: e, cfg: cfg, logger: logger}
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Printf("listening on %s", s.cfg.Server.Address)
	err := s.e.Start(s.cfg.Server.Address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
