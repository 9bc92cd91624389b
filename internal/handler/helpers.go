package handler

import (
	"net/http"
	"reflect"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is a struct; expose it as a float so gte/lte/min tags apply.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs the validator tags.
// On failure the response is already written and the caller must return.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError writes the classified envelope. Unclassified errors are
// handed to the ErrorHandler middleware, which logs the cause and answers 500.
func respondError(c *gin.Context, err error) {
	kind := apierror.KindOf(err)
	if kind == apierror.KindInternal {
		_ = c.Error(err)
		return
	}
	c.JSON(apierror.Status(kind), apierror.FromError(err))
}

// parseID reads a UUID path parameter; on failure it writes a 422.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apierror.InvalidInput(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
