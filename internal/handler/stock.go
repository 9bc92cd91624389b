package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Get godoc
// @Summary Current stock of one product
// @Tags stock
// @Produce json
// @Param product_id path string true "Product ID"
// @Success 200 {object} dto.StockResponse
// @Failure 401 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/{product_id} [get]
func (h *StockHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "product_id")
	if !ok {
		return
	}
	resp, err := h.svc.GetStock(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Stock of every product, ordered by name
// @Tags stock
// @Produce json
// @Param low_stock query bool false "Only products at or below their minimum"
// @Success 200 {array} dto.StockResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/stock [get]
func (h *StockHandler) List(c *gin.Context) {
	var filter dto.StockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, apierror.InvalidInput("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListStock(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary Stock list as an XLSX workbook
// @Tags stock
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param low_stock query bool false "Only products at or below their minimum"
// @Success 200 {file} file
// @Failure 401 {object} apierror.APIError
// @Router /v1/stock/export [get]
func (h *StockHandler) Export(c *gin.Context) {
	var filter dto.StockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, apierror.InvalidInput("invalid query: "+err.Error()))
		return
	}
	data, err := h.svc.ExportStock(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ApplyMovement godoc
// @Summary Record a stock movement
// @Description incoming adds, outgoing/writeoff subtract (floored at zero), adjustment sets the quantity.
// @Tags stock
// @Accept json
// @Produce json
// @Param product_id path string true "Product ID"
// @Param body body dto.MovementRequest true "Movement"
// @Success 201 {object} dto.MovementResult
// @Failure 401 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stock/{product_id}/movements [post]
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	id, ok := parseID(c, "product_id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyMovement(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary Movement log, newest first
// @Tags stock
// @Produce json
// @Param product_id query string false "Product ID"
// @Param kind query string false "incoming | outgoing | writeoff | adjustment"
// @Param limit query int false "Default 50, max 500"
// @Success 200 {array} dto.MovementResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, apierror.InvalidInput("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
