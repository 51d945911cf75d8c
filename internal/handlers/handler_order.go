package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
)

// orderHandler handles HTTP requests related to exchange orders.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
}

// RegisterOrderRoutes registers routes related to exchange orders.
func RegisterOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade) {
	RegisterValidators()
	h := &orderHandler{orderService: orderService}

	orders := rg.Group("/orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("/:orderId", h.getOrder)
		orders.GET("/:orderId/events", h.listOrderEvents)
		orders.POST("/:orderId/transitions", h.transitionOrder)
		orders.POST("/:orderId/execute", h.executeOrder)
		orders.POST("/:orderId/settle", h.settleOrder)
		orders.POST("/:orderId/close", h.closeOrder)
		orders.POST("/:orderId/cancel", h.cancelOrder)
	}

	rg.GET("/merchants/:merchantId/orders", h.listMerchantOrders)
}

// createOrder godoc
// @Summary Create an order from a quote lock
// @Description Consumes the quote lock and creates the order. A lock can back exactly one order.
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   order body dto.CreateOrderRequest true "Quote lock to consume"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 404 {object} map[string]string "Quote lock not found"
// @Failure 409 {object} map[string]string "Quote lock already consumed or expired"
// @Failure 410 {object} map[string]string "Quote lock expired"
// @Failure 504 {object} map[string]string "Store timed out"
// @Router /orders [post]
func (h *orderHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err, "CreateOrder request")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req.QuoteID)
	if err != nil {
		respondWithError(c, err, "create order")
		return
	}

	logger.Info("Order created", slog.String("order_id", order.ID), slog.String("quote_id", req.QuoteID))
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// getOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/{orderId} [get]
func (h *orderHandler) getOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondWithError(c, err, "retrieve order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// listOrderEvents godoc
// @Summary List order events
// @Description Returns the audit trail of an order, oldest first
// @Tags orders
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Success 200 {array} dto.OrderEventResponse
// @Failure 404 {object} map[string]string "Order not found"
// @Router /orders/{orderId}/events [get]
func (h *orderHandler) listOrderEvents(c *gin.Context) {
	events, err := h.orderService.ListOrderEvents(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondWithError(c, err, "list order events")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderEventResponses(events))
}

// transitionOrder godoc
// @Summary Move an order to a new status
// @Description Applies one edge of the order state machine. Used by channel callbacks and operators.
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Param   transition body dto.TransitionOrderRequest true "Target status and recorded fields"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 422 {object} map[string]string "Transition not allowed from the current status"
// @Router /orders/{orderId}/transitions [post]
func (h *orderHandler) transitionOrder(c *gin.Context) {
	var req dto.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err, "TransitionOrder request")
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), c.Param("orderId"), domain.OrderStatus(req.TargetStatus), req.ToPayload())
	if err != nil {
		respondWithError(c, err, "transition order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// executeOrder godoc
// @Summary Execute an order on its channel
// @Description Runs inquiry and execution. A channel failure ends the order in fx_failed and still returns 200.
// @Tags orders
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Order already terminal"
// @Failure 422 {object} map[string]string "Order is not ready for execution"
// @Router /orders/{orderId}/execute [post]
func (h *orderHandler) executeOrder(c *gin.Context) {
	order, err := h.orderService.ExecuteOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondWithError(c, err, "execute order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// settleOrder godoc
// @Summary Record settlement of an executed order
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Param   settlement body dto.SettleOrderRequest true "Settlement outcome"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 422 {object} map[string]string "Order is not ready for settlement"
// @Router /orders/{orderId}/settle [post]
func (h *orderHandler) settleOrder(c *gin.Context) {
	var req dto.SettleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err, "SettleOrder request")
		return
	}

	order, err := h.orderService.SettleOrder(c.Request.Context(), c.Param("orderId"), req.Success, req.Reason)
	if err != nil {
		respondWithError(c, err, "settle order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// closeOrder godoc
// @Summary Close a completed order
// @Tags orders
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 422 {object} map[string]string "Order is not completed"
// @Router /orders/{orderId}/close [post]
func (h *orderHandler) closeOrder(c *gin.Context) {
	order, err := h.orderService.CloseOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondWithError(c, err, "close order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// cancelOrder godoc
// @Summary Cancel an order
// @Description Cancels an order that has not started execution
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   orderId path string true "Order ID"
// @Param   cancellation body dto.CancelOrderRequest false "Cancellation reason"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Order can no longer be cancelled"
// @Router /orders/{orderId}/cancel [post]
func (h *orderHandler) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, err, "CancelOrder request")
			return
		}
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), c.Param("orderId"), req.Reason)
	if err != nil {
		respondWithError(c, err, "cancel order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// listMerchantOrders godoc
// @Summary List a merchant's orders
// @Description Newest first, paginated with an opaque token
// @Tags orders
// @Produce  json
// @Param   merchantId path string true "Merchant ID"
// @Param   limit query int false "Page size (1-100)" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListOrdersResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Router /merchants/{merchantId}/orders [get]
func (h *orderHandler) listMerchantOrders(c *gin.Context) {
	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondWithBindError(c, err, "ListOrders query")
		return
	}

	orders, next, err := h.orderService.ListOrdersByMerchant(c.Request.Context(), c.Param("merchantId"), params.Limit, params.NextToken)
	if err != nil {
		respondWithError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, dto.ListOrdersResponse{Orders: dto.ToOrderResponses(orders), NextToken: next})
}
