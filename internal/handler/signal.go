package handler

import (
	"errors"
	"net/http"
	"strings"

	"tradewinds/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GenerateSignalRequest is the body for POST /api/signals/generate.
type GenerateSignalRequest struct {
	Symbol          string  `json:"symbol" binding:"required"`
	StrategyCode    string  `json:"strategy_code" binding:"required"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	Exchange        string  `json:"exchange"`
}

// ListSignals godoc
// @Summary      List emitted signals
// @Description  Returns the in-memory signal ledger in insertion order
// @Tags         signals
// @Produce      json
// @Param        symbol  query  string  false  "Filter by asset symbol"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/signals [get]
func (h *Handler) ListSignals(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.list-signals")
	defer span.End()

	symbol := strings.ToUpper(c.Query("symbol"))
	signals := h.pipeline.Signals(symbol)

	resp := gin.H{
		"count":   len(signals),
		"signals": signals,
	}
	if len(signals) > 0 {
		resp["oldest"] = signals[0].CreatedAt
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateSignal godoc
// @Summary      Generate a trading signal
// @Description  Runs the signal pipeline for a symbol and strategy; duplicates are declined with the matched dedup tier
// @Tags         signals
// @Accept       json
// @Produce      json
// @Param        request  body  GenerateSignalRequest  true  "Generation request"
// @Success      201  {object}  domain.TradingSignal
// @Success      200  {object}  domain.Rejection
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/signals/generate [post]
func (h *Handler) GenerateSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.generate-signal")
	defer span.End()

	var req GenerateSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("strategy", req.StrategyCode),
	)

	if _, ok := domain.BinancePair[symbol]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	signal, rejection, err := h.pipeline.Generate(ctx, symbol, req.StrategyCode, req.RiskRewardRatio, req.Exchange)
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDataUnavailable), errors.Is(err, domain.ErrInsufficientData):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case rejection != nil:
		c.JSON(http.StatusOK, gin.H{"accepted": false, "rejection": rejection})
	default:
		c.JSON(http.StatusCreated, gin.H{"accepted": true, "signal": signal})
	}
}
