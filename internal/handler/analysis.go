package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"tradewinds/internal/domain"
	"tradewinds/internal/ta"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// higherTFInterval feeds the dual strategy's trend gate.
const higherTFInterval = "4h"

// Analyze godoc
// @Summary      Run an indicator over recent bars
// @Description  Ad-hoc indicator analysis outside the signal pipeline
// @Tags         analysis
// @Produce      json
// @Param        symbol     path   string  true   "Asset symbol"
// @Param        indicator  query  string  false  "ema, rsi, macd or dual (default rsi)"
// @Param        interval   query  string  false  "Candle interval"
// @Param        limit      query  int     false  "Bars to analyze"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/analysis/{symbol} [get]
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	if _, ok := domain.BinancePair[symbol]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.SupportedSymbols,
		})
		return
	}

	indicator := strings.ToLower(c.DefaultQuery("indicator", ta.NameRSI))
	interval := c.DefaultQuery("interval", "1h")
	if !validInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("indicator", indicator),
	)

	bars, err := h.marketData.GetBars(ctx, symbol, interval, limit, c.Query("exchange"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	params := ta.Params{}
	if indicator == ta.NameDual {
		higher, err := h.marketData.GetBars(ctx, symbol, higherTFInterval, limit, c.Query("exchange"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		params.HigherTF = domain.Closes(higher)
	}

	ind, err := ta.New(indicator, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	closes := domain.Closes(bars)
	values, err := ind.Calculate(closes)
	if err == nil {
		var actions []domain.Action
		actions, err = ind.Actions(closes)
		if err == nil {
			value, action := latestSample(values, actions)
			c.JSON(http.StatusOK, gin.H{
				"symbol":    symbol,
				"indicator": ind.Name(),
				"interval":  interval,
				"bars":      len(bars),
				"value":     value,
				"action":    action,
			})
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// latestSample walks back past warm-up NaNs to the newest defined reading.
func latestSample(values []float64, actions []domain.Action) (float64, domain.Action) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], actions[i]
		}
	}
	return 0, domain.ActionHold
}
