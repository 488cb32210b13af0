package errors_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperror "gosupply/internal/errors"
)

func TestMapToHTTPStatus_TypedErrors(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		category string
	}{
		{apperror.NewValidationError("qtd negativa"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperror.NewUnauthorizedError("papel incorreto"), http.StatusForbidden, "UNAUTHORIZED"},
		{apperror.NewUnauthenticatedError("token ausente"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperror.NewNotFoundError("pedido"), http.StatusNotFound, "NOT_FOUND"},
		{apperror.NewInvalidStateError("confirm", "CONFIRM_PENDING", "DISPATCHED"), http.StatusConflict, "INVALID_STATE"},
		{apperror.NewConflictError("versão"), http.StatusConflict, "CONFLICT"},
		{apperror.NewUpstreamError("catálogo", sql.ErrConnDone), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{apperror.NewDBError("falha", sql.ErrConnDone), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, c := range cases {
		status, category, _ := apperror.MapToHTTPStatus(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
		assert.Equal(t, c.category, category, c.err.Error())
	}
}

func TestMapToHTTPStatus_WrappedError(t *testing.T) {
	err := fmt.Errorf("camada externa: %w", apperror.NewNotFoundError("pedido 42"))

	status, category, message := apperror.MapToHTTPStatus(err)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", category)
	assert.Contains(t, message, "pedido 42")
}

func TestMapToHTTPStatus_UntypedError(t *testing.T) {
	status, category, _ := apperror.MapToHTTPStatus(fmt.Errorf("qualquer"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "UNKNOWN_ERROR", category)
}

func TestInvalidStateError_NamesRequiredAndActual(t *testing.T) {
	err := apperror.NewInvalidStateError("confirm", "CONFIRM_PENDING", "ISSUE_RAISED")

	assert.Contains(t, err.Error(), "CONFIRM_PENDING")
	assert.Contains(t, err.Error(), "ISSUE_RAISED")
	assert.True(t, apperror.IsInvalidState(err))
	assert.False(t, apperror.IsConflict(err))
}

func TestUpstreamError_Unwraps(t *testing.T) {
	err := apperror.NewUpstreamError("catálogo indisponível", sql.ErrConnDone)

	assert.ErrorIs(t, err, sql.ErrConnDone)
}
