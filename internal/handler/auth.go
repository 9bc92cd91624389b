package handler

import (
	"net/http"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc service.AuthService
	// secureCookie sets the Secure flag on the company session cookie.
	secureCookie bool
}

func NewAuthHandler(svc service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// StaffLogin godoc
// @Summary Staff login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/staff/login [post]
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.StaffLogin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompanyLogin godoc
// @Summary B2B customer login
// @Description Sets the b2b_session cookie and also returns the token for API clients. Pending or rejected companies are refused.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.CompanyLoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/b2b/login [post]
func (h *AuthHandler) CompanyLogin(c *gin.Context) {
	var req dto.CompanyLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CompanyLogin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CompanyCookie, resp.AccessToken, resp.ExpiresIn, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, resp)
}

// CompanyLogout clears the session cookie. Tokens are stateless and stay
// valid until they expire.
func (h *AuthHandler) CompanyLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CompanyCookie, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}
