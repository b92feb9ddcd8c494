package handler

import (
	"net/http"

	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type EstadisticasHandler struct{ svc service.EstadisticasService }

func NewEstadisticasHandler(svc service.EstadisticasService) *EstadisticasHandler {
	return &EstadisticasHandler{svc: svc}
}

// Resumen godoc
// @Summary Resumen de ventas, movimientos e inventario
// @Tags estadisticas
// @Produce json
// @Security BearerAuth
// @Param desde query string false "Desde (YYYY-MM-DD)"
// @Param hasta query string false "Hasta (YYYY-MM-DD, inclusive)"
// @Param top query int false "Cantidad de productos en el ranking"
// @Success 200 {object} dto.ResumenResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/estadisticas/resumen [get]
func (h *EstadisticasHandler) Resumen(c *gin.Context) {
	var filter dto.EstadisticasFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
