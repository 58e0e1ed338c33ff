package server

import (
	"errors"
	"fmt"
	"net/http"
	"validator-orchestrator/checking"
	"validator-orchestrator/logging"
	"validator-orchestrator/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	e            *echo.Echo
	orchestrator *checking.Orchestrator
}

func NewServer(orchestrator *checking.Orchestrator, checkMetrics *metrics.CheckMetrics) *Server {
	e := echo.New()
	e.HideBanner = true
	s := &Server{
		e:            e,
		orchestrator: orchestrator,
	}

	// A check runs minutes of GPU work; a panic must fail that one request,
	// not the process.
	e.Use(middleware.Recover())
	e.Use(loggingMiddleware)

	e.POST("/check-result", s.postCheckResult)
	e.GET("/health", s.getHealth)
	if checkMetrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(checkMetrics.Registry(), promhttp.HandlerOpts{})))
	}
	return s
}

func (s *Server) Start(port int) error {
	return s.e.Start(fmt.Sprintf(":%d", port))
}

func loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		logging.Info("Received request", logging.Server,
			"method", ctx.Request().Method, "path", ctx.Request().URL.Path)
		return next(ctx)
	}
}

func (s *Server) postCheckResult(ctx echo.Context) error {
	var body CheckResultRequest

	if err := ctx.Bind(&body); err != nil {
		logging.Error("Failed to decode request body of type CheckResultRequest", logging.Server, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	verdict, err := s.orchestrator.CheckResult(ctx.Request().Context(), body.Task, body.Result, body.Payload)
	if errors.Is(err, checking.ErrUnknownTask) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		logging.Error("Check failed", logging.Server, "task", body.Task, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	response := CheckResultResponse{
		Task:   body.Task,
		Reason: string(verdict.GetReason()),
	}
	if score, ok := verdict.ScoreValue(); ok {
		response.Score = &score
	}
	return ctx.JSON(http.StatusOK, response)
}

func (s *Server) getHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
