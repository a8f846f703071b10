package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	notificationlog "github.com/mzansipay/payfast-gateway/internal/app/service/notification_log"
	ordersvc "github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/renewal"
	subsvc "github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/pkg/response"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

type NotificationItem struct {
	ID            string  `json:"id"`
	OrderID       *string `json:"order_id"`
	TraceID       string  `json:"trace_id"`
	PfPaymentID   string  `json:"pf_payment_id"`
	PaymentStatus string  `json:"payment_status"`
	SourceIP      string  `json:"source_ip"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

type ListNotificationsResponse struct {
	Items []*NotificationItem `json:"items"`
	Total int64               `json:"total"`
}

func toNotificationItem(m *models.ItnNotificationLog) *NotificationItem {
	return &NotificationItem{
		ID:            m.ID,
		OrderID:       m.OrderID,
		TraceID:       m.TraceID,
		PfPaymentID:   m.PfPaymentID,
		PaymentStatus: m.PaymentStatus,
		SourceIP:      m.SourceIP,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// @Summary      List ITN Notifications (Admin)
// @Description  Retrieves a paginated list of received ITN deliveries, filterable by order and handling status.
// @Tags         Admin
// @Produce      json
// @Param        from query int false "Offset"
// @Param        size query int false "Page size"
// @Param        order_id query string false "Filter by order ID"
// @Param        status query string false "Filter by handling status (received/handled/handle_failed)"
// @Success      200  {object}  handlers.RespListNotifications
// @Router       /api/v1/admin/notifications [get]
func ApiListNotifications(nl *notificationlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, _ := strconv.Atoi(c.Query("from"))
		size, _ := strconv.Atoi(c.Query("size"))

		var filters []*types.CommonFilter
		if v := c.Query("order_id"); v != "" {
			filters = append(filters, &types.CommonFilter{Field: "order_id", Operator: types.CommonFilterOperatorEq, Values: []any{v}})
		}
		if v := c.Query("status"); v != "" {
			filters = append(filters, &types.CommonFilter{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{v}})
		}

		res, err := nl.Scan(c.Request.Context(), &notificationlog.ScanRequest{Filters: filters, From: from, Size: size})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.ItnNotificationLog, _ int) *NotificationItem { return toNotificationItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListNotificationsResponse{Items: items, Total: res.Total}))
	}
}

// @Summary      Get Order (Admin)
// @Description  Retrieves an order with the PayFast transaction id and fee/net amounts.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/admin/orders/{id} [get]
func ApiGetOrder(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

// @Summary      Charge Renewal (Admin)
// @Description  Charges the next unpaid renewal order of a subscription against its stored token. Called by the store's scheduler.
// @Tags         Admin
// @Produce      json
// @Param        subscription_id path string true "Subscription ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/renewals/{subscription_id}/charge [post]
func ApiChargeRenewal(svc *renewal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		renewalOrder, err := svc.ChargeRenewal(c.Request.Context(), c.Param("subscription_id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"renewal_order_id": renewalOrder.ID}))
	}
}

// @Summary      Cancel Subscription Token (Admin)
// @Description  Cancels the stored PayFast token remotely and removes it from the subscription.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "Subscription ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/subscriptions/{id}/cancel-token [post]
func ApiCancelSubscriptionToken(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := subs.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			return
		}
		if !sub.HasToken() {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "subscription has no token"))
			return
		}
		if err := subs.CancelRemoteToken(c.Request.Context(), sub); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if err := subs.DeleteToken(c.Request.Context(), sub.ID); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type PaymentMethodChangedRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// @Summary      Subscription Payment Method Changed (Admin)
// @Description  Notifies the gateway that a subscription switched payment methods. Switching away from PayFast cancels the stored token.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID"
// @Param        request body handlers.PaymentMethodChangedRequest true "New payment method"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/subscriptions/{id}/payment-method [post]
func ApiSubscriptionPaymentMethodChanged(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentMethodChangedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := subs.HandlePaymentMethodChanged(c.Request.Context(), c.Param("id"), req.PaymentMethod); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Capture Pre-Order (Admin)
// @Description  Charges the outstanding balance of a tokenized pre-order. Requires pre-order support to be enabled.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders/{id}/capture-pre-order [post]
func ApiCapturePreOrder(svc *renewal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.CapturePreOrder(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterAdminRoutes(r gin.IRouter, nl *notificationlog.Service, orders *ordersvc.Service, renewals *renewal.Service, subs *subsvc.Service) {
	r.GET("/notifications", ApiListNotifications(nl))
	r.GET("/orders/:id", ApiGetOrder(orders))
	r.POST("/orders/:id/capture-pre-order", ApiCapturePreOrder(renewals))
	r.POST("/renewals/:subscription_id/charge", ApiChargeRenewal(renewals))
	r.POST("/subscriptions/:id/cancel-token", ApiCancelSubscriptionToken(subs))
	r.POST("/subscriptions/:id/payment-method", ApiSubscriptionPaymentMethodChanged(subs))
}
