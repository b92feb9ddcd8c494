package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_MapeaTiposDeError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidInput("cantidad invalida"), http.StatusBadRequest},
		{InsufficientStock("stock insuficiente"), http.StatusBadRequest},
		{NotFound("producto no encontrado"), http.StatusNotFound},
		{AlreadyCancelled("ya cancelado"), http.StatusConflict},
		{Conflict("duplicado"), http.StatusConflict},
		{Unauthorized("credenciales invalidas"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestError_SobreviveAlWrap(t *testing.T) {
	err := fmt.Errorf("registrar venta: %w", InsufficientStock("stock insuficiente para %s", "Cartera"))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusBadRequest, Status(err))
	assert.True(t, IsDomain(err))
}

func TestError_MensajeSinPrefijo(t *testing.T) {
	err := NotFound("movimiento %d no encontrado", 7)
	assert.Equal(t, "movimiento 7 no encontrado", err.Error())
}
