package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("create order: %w", apierror.InvalidInput("cart is empty"))

	assert.True(t, errors.Is(err, apierror.ErrInvalidInput))
	assert.False(t, errors.Is(err, apierror.ErrNotFound))
	assert.Equal(t, apierror.KindInvalidInput, apierror.KindOf(err))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, apierror.KindInternal, apierror.KindOf(errors.New("boom")))
}

func TestStatusMapping(t *testing.T) {
	cases := map[apierror.Kind]int{
		apierror.KindUnauthorized: http.StatusUnauthorized,
		apierror.KindForbidden:    http.StatusForbidden,
		apierror.KindInvalidInput: http.StatusUnprocessableEntity,
		apierror.KindNotFound:     http.StatusNotFound,
		apierror.KindConflict:     http.StatusConflict,
		apierror.KindDependency:   http.StatusBadGateway,
		apierror.KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, apierror.Status(kind), kind)
	}
}

func TestFromErrorHidesCause(t *testing.T) {
	err := apierror.Dependency("could not persist order items", errors.New("pq: connection reset"))
	env := apierror.FromError(err)

	assert.Equal(t, "could not persist order items", env.Detail)
	assert.Equal(t, apierror.KindDependency, env.Code)

	env = apierror.FromError(errors.New("sql: database is closed"))
	assert.Equal(t, "internal server error", env.Detail)
}
