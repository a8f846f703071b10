package notification_log

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/tool"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists an ITN notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, row *models.ItnNotificationLog) {
	go func() {
		if row == nil {
			return
		}
		if row.ID == "" {
			row.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(row).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save notification log: %v", err)
		}
	}()
}

// ScanRequest is a filtered, paginated listing request.
type ScanRequest struct {
	Filters   []*types.CommonFilter
	From      int
	Size      int
	SortBy    string
	SortOrder string
}

type ScanResult struct {
	Items []*models.ItnNotificationLog
	Total int64
}

// filtersWhere joins the filters into a single clause expression.
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

// Scan lists notification log rows for the admin API.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	size := req.Size
	if size <= 0 || size > 500 {
		size = 50
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := sortBy + " desc"
	if req.SortOrder == "asc" {
		order = sortBy + " asc"
	}

	q := s.db.WithContext(ctx).Model(&models.ItnNotificationLog{}).
		Clauses(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notification logs: %w", err)
	}

	var items []*models.ItnNotificationLog
	if err := q.Order(order).Offset(req.From).Limit(size).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	return &ScanResult{Items: items, Total: total}, nil
}

// Module exposes the notification log service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
