package handler

import (
	"net/http"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create godoc
// @Summary Place a B2B order
// @Description Prices the cart with the company's current tier discount. Only company sessions may order.
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.CreateOrderRequest true "Cart"
// @Success 201 {object} dto.OrderResponse
// @Failure 401 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /v1/b2b/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateOrder(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary One order with its items
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/b2b/orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Orders visible to the caller, newest first
// @Tags orders
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {array} dto.OrderResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/b2b/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, apierror.InvalidInput("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Change status, admin notes or tracking number
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body dto.UpdateOrderRequest true "Patch"
// @Success 200 {object} dto.OrderResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/b2b/orders/{id} [patch]
func (h *OrdersHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateOrder(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete an order and its items
// @Tags orders
// @Param id path string true "Order ID"
// @Success 204
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/b2b/orders/{id} [delete]
func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
