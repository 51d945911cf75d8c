package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
)

// quoteHandler handles HTTP requests for quotes and quote locks.
type quoteHandler struct {
	rateCalculator portssvc.RateCalculatorSvc
	quoteLocks     portssvc.QuoteLockSvcFacade
}

// RegisterQuoteRoutes registers routes related to quotes. lockMiddleware runs only in front of
// lock creation.
func RegisterQuoteRoutes(rg *gin.RouterGroup, calc portssvc.RateCalculatorSvc, locks portssvc.QuoteLockSvcFacade, lockMiddleware ...gin.HandlerFunc) {
	RegisterValidators()
	h := &quoteHandler{rateCalculator: calc, quoteLocks: locks}

	rg.POST("/quotes", h.computeQuote)

	quoteLocks := rg.Group("/quote-locks")
	{
		quoteLocks.POST("", append(lockMiddleware, h.createQuoteLock)...)
		quoteLocks.GET("/:quoteId", h.getQuoteLock)
		quoteLocks.POST("/:quoteId/cancel", h.cancelQuoteLock)
	}
}

// computeQuote godoc
// @Summary Price a quote
// @Description Prices a sell amount without locking it. An empty channelId routes by channel priority.
// @Tags quotes
// @Accept  json
// @Produce  json
// @Param   quote body dto.ComputeQuoteRequest true "Quote details"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 503 {object} map[string]string "No current rate on any channel"
// @Failure 504 {object} map[string]string "Store timed out"
// @Router /quotes [post]
func (h *quoteHandler) computeQuote(c *gin.Context) {
	var req dto.ComputeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err, "ComputeQuote request")
		return
	}

	quote, err := h.rateCalculator.ComputeQuote(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err, "compute quote")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuoteResponse(quote))
}

// createQuoteLock godoc
// @Summary Lock a quote
// @Description Prices the request and reserves the rate for a short, single-use window
// @Tags quote locks
// @Accept  json
// @Produce  json
// @Param   lock body dto.CreateQuoteLockRequest true "Quote lock details"
// @Success 201 {object} dto.QuoteLockResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 503 {object} map[string]string "No current rate on any channel"
// @Failure 504 {object} map[string]string "Store timed out"
// @Router /quote-locks [post]
func (h *quoteHandler) createQuoteLock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateQuoteLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err, "CreateQuoteLock request")
		return
	}

	logger.Info("Received request to lock quote",
		slog.String("merchant_id", req.MerchantID),
		slog.String("currency_pair", req.CurrencyPair),
		slog.String("sell_amount", req.SellAmount.String()))

	lock, err := h.quoteLocks.CreateLock(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err, "lock quote")
		return
	}

	c.JSON(http.StatusCreated, dto.ToQuoteLockResponse(lock))
}

// getQuoteLock godoc
// @Summary Get a quote lock
// @Description Retrieves a quote lock. Expiry is reflected as soon as it is observed.
// @Tags quote locks
// @Produce  json
// @Param   quoteId path string true "Quote ID"
// @Success 200 {object} dto.QuoteLockResponse
// @Failure 404 {object} map[string]string "Quote lock not found"
// @Router /quote-locks/{quoteId} [get]
func (h *quoteHandler) getQuoteLock(c *gin.Context) {
	lock, err := h.quoteLocks.GetLock(c.Request.Context(), c.Param("quoteId"))
	if err != nil {
		respondWithError(c, err, "retrieve quote lock")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuoteLockResponse(lock))
}

// cancelQuoteLock godoc
// @Summary Cancel a quote lock
// @Description Releases a quote lock that has not been used or expired
// @Tags quote locks
// @Produce  json
// @Param   quoteId path string true "Quote ID"
// @Success 200 {object} dto.QuoteLockResponse
// @Failure 404 {object} map[string]string "Quote lock not found"
// @Failure 409 {object} map[string]string "Quote lock already consumed or expired"
// @Router /quote-locks/{quoteId}/cancel [post]
func (h *quoteHandler) cancelQuoteLock(c *gin.Context) {
	lock, err := h.quoteLocks.CancelLock(c.Request.Context(), c.Param("quoteId"))
	if err != nil {
		respondWithError(c, err, "cancel quote lock")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuoteLockResponse(lock))
}
