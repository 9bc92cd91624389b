package middleware

import (
	"net/http"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"

	"github.com/gin-gonic/gin"
)

const PrincipalKey = "principal"

// Authenticate resolves the caller through gate and stores the principal.
// Requests without valid credentials continue as the zero principal; the
// services decide what an anonymous caller may do.
func Authenticate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := gate.Authorize(c.Request); err == nil {
			c.Set(PrincipalKey, p)
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous callers before the handler runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPrincipal(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.FromError(apierror.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the resolved caller, or the zero principal.
func GetPrincipal(c *gin.Context) auth.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}
	}
	p, _ := v.(auth.Principal)
	return p
}
