package rag_http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the chat API. chatMiddleware applies to POST /chat only.
func RegisterRoutes(e *echo.Echo, h *Handler, chatMiddleware ...echo.MiddlewareFunc) {
	e.POST("/session", h.CreateSession)
	e.POST("/session/:sessionId", h.ClearSession)
	e.DELETE("/session/:sessionId", h.ClearSession)
	e.POST("/chat", h.Chat, chatMiddleware...)
	e.GET("/history/:sessionId", h.History)

	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
