package handler

import (
	"net/http"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type CompaniesHandler struct{ svc service.CompanyService }

func NewCompaniesHandler(svc service.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{svc: svc}
}

// Register godoc
// @Summary Self-registration of a B2B customer
// @Description New companies start pending on the silver tier until staff approve them.
// @Tags companies
// @Accept json
// @Produce json
// @Param body body dto.RegisterCompanyRequest true "Company"
// @Success 201 {object} dto.CompanyResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/b2b/register [post]
func (h *CompaniesHandler) Register(c *gin.Context) {
	var req dto.RegisterCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Registered companies
// @Tags companies
// @Produce json
// @Param status query string false "pending | approved | rejected"
// @Success 200 {array} dto.CompanyResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/b2b/companies [get]
func (h *CompaniesHandler) List(c *gin.Context) {
	var filter dto.CompanyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, apierror.InvalidInput("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CompaniesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Approve, reject or re-tier a company
// @Description A tier change recomputes discount and payment terms unless they are sent in the same patch.
// @Tags companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param body body dto.UpdateCompanyRequest true "Patch"
// @Success 200 {object} dto.CompanyResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/b2b/companies/{id} [patch]
func (h *CompaniesHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CompaniesHandler) Tiers(c *gin.Context) {
	resp, err := h.svc.Tiers(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
