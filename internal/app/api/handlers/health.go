package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/response"
)

// @Summary      Health check
// @Description  Returns service status and gateway availability.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func Healthz(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := map[string]any{
			"status":    "ok",
			"available": cfg.Available(),
		}
		if errs := cfg.RequirementErrors(); len(errs) > 0 {
			payload["requirement_errors"] = errs
		}
		c.JSON(http.StatusOK, response.OKT(payload))
	}
}

func RegisterHealthRoutes(r gin.IRouter, cfg *config.Config) {
	r.GET("/healthz", Healthz(cfg))
}
