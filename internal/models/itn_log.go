package models

import (
	"time"

	"gorm.io/datatypes"
)

type ItnNotificationLogStatus string

const (
	ItnNotificationLogStatusReceived     ItnNotificationLogStatus = "received"
	ItnNotificationLogStatusHandled      ItnNotificationLogStatus = "handled"
	ItnNotificationLogStatusHandleFailed ItnNotificationLogStatus = "handle_failed"
)

// ItnNotificationLog records every ITN delivery: one "received" row before
// processing and one "handled"/"handle_failed" row after.
type ItnNotificationLog struct {
	ID            string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OrderID       *string                  `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	TraceID       string                   `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	PfPaymentID   string                   `gorm:"column:pf_payment_id;type:varchar(128)" json:"pf_payment_id"`
	PaymentStatus string                   `gorm:"column:payment_status;type:varchar(64)" json:"payment_status"`
	SourceIP      string                   `gorm:"column:source_ip;type:varchar(64)" json:"source_ip"`
	Data          datatypes.JSON           `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON          `gorm:"column:result;type:jsonb" json:"result"`
	Status        ItnNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func (ItnNotificationLog) TableName() string { return "itn_notification_log" }
