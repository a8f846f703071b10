package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzansipay/payfast-gateway/internal/app/service/checkout"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/response"
)

// @Summary      Payment Method
// @Description  Returns the storefront payload for rendering the PayFast option at checkout.
// @Tags         Checkout
// @Produce      json
// @Success      200  {object}  handlers.RespPaymentMethod
// @Router       /api/v1/payfast/method [get]
func ApiPaymentMethod(b *checkout.Builder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(b.PaymentMethod()))
	}
}

// @Summary      Build Checkout Redirect
// @Description  Produces the signed field bundle the storefront posts to the hosted payment page.
// @Tags         Checkout
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  handlers.RespCheckoutRedirect
// @Router       /api/v1/checkout/{order_id} [post]
func ApiBuildCheckout(b *checkout.Builder, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Available() {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "payment gateway is not available"))
			return
		}
		redirect, err := b.BuildRedirect(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(redirect))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, b *checkout.Builder, cfg *config.Config) {
	r.GET("/payfast/method", ApiPaymentMethod(b))
	r.POST("/checkout/:order_id", ApiBuildCheckout(b, cfg))
}
