package handlers

import (
	"github.com/mzansipay/payfast-gateway/internal/app/service/checkout"
	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/pkg/response"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespPaymentMethod wraps the storefront payment-method payload in the standard envelope.
type RespPaymentMethod struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    types.PaymentMethod      `json:"data"`
}

// RespCheckoutRedirect wraps the signed redirect bundle in the standard envelope.
type RespCheckoutRedirect struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.Redirect        `json:"data"`
}

// RespListNotifications wraps ListNotificationsResponse in the standard envelope.
type RespListNotifications struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    ListNotificationsResponse `json:"data"`
}

// RespOrder wraps an order in the standard envelope.
type RespOrder struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Order             `json:"data"`
}
