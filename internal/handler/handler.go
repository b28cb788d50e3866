package handler

import (
	"tradewinds/internal/pipeline"
	"tradewinds/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer     trace.Tracer
	marketData *service.MarketData
	pipeline   *pipeline.Pipeline
}

func New(tracer trace.Tracer, marketData *service.MarketData, pipe *pipeline.Pipeline) *Handler {
	return &Handler{
		tracer:     tracer,
		marketData: marketData,
		pipeline:   pipe,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/api/prices/:symbol", h.GetPrice)
	r.GET("/api/candles/:symbol", h.GetCandles)
	r.GET("/api/analysis/:symbol", h.Analyze)
	r.GET("/api/signals", h.ListSignals)
	r.POST("/api/signals/generate", APIKeyAuth(apiKey), h.GenerateSignal)
}
