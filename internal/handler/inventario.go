package handler

import (
	"net/http"

	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/middleware"
	"github.com/gonza-rom/jmr-stock-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// InventarioHandler exposes stock movements and low-stock alerts.
type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// RegistrarMovimiento godoc
// @Summary Registra una ENTRADA o SALIDA de stock
// @Tags movimientos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearMovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/movimientos [post]
func (h *InventarioHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.CrearMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), middleware.UsuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// EditarMovimiento godoc
// @Summary Cambia la cantidad de un movimiento ajustando el stock por la diferencia
// @Tags movimientos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del movimiento"
// @Param body body dto.EditarMovimientoRequest true "Nuevos datos"
// @Success 200 {object} dto.MovimientoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/movimientos/{id} [put]
func (h *InventarioHandler) EditarMovimiento(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.EditarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EditarMovimiento(c.Request.Context(), id, middleware.UsuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelarMovimiento godoc
// @Summary Cancela un movimiento revirtiendo su efecto
// @Tags movimientos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del movimiento"
// @Param body body dto.CancelarMovimientoRequest true "Motivo"
// @Success 200 {object} dto.MovimientoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/movimientos/{id}/cancelar [post]
func (h *InventarioHandler) CancelarMovimiento(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CancelarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelarMovimiento(c.Request.Context(), id, middleware.UsuarioID(c), req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ObtenerMovimiento(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerMovimiento(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ObtenerAlertas(c *gin.Context) {
	resp, err := h.svc.ObtenerAlertas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
