package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/pkg/cache"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
)

// StatsCacheKey holds the cached OrderStats.
const StatsCacheKey = "stats:orders"

// StatusTotals is the count and money of the orders in one status.
type StatusTotals struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// OrderStats groups order counts and totals by status.
type OrderStats struct {
	ByStatus map[models.OrderStatus]StatusTotals `json:"by_status"`
}

// Of returns the totals for s; missing statuses are zero.
func (st OrderStats) Of(s models.OrderStatus) StatusTotals {
	t, ok := st.ByStatus[s]
	if !ok {
		return StatusTotals{Sum: decimal.Zero}
	}
	return t
}

type StatsService struct{}

func NewStatsService() *StatsService {
	return &StatsService{}
}

// Orders returns the order stats, served from the cache when fresh.
func (s *StatsService) Orders(ctx context.Context) (OrderStats, error) {
	return cache.Remember(ctx, StatsCacheKey, config.StatsCacheTTL(), func() (OrderStats, error) {
		return s.compute(ctx)
	})
}

// Forget drops the cached stats; the next read recomputes them.
func (s *StatsService) Forget(ctx context.Context) error {
	return cache.Forget(ctx, StatsCacheKey)
}

func (s *StatsService) compute(ctx context.Context) (OrderStats, error) {
	var rows []struct {
		Status string
		Count  int64
		Sum    decimal.Decimal
	}
	err := orm.DB().WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS sum").
		Group("status").
		Scan(&rows)
	if err != nil {
		return OrderStats{}, fmt.Errorf("stats: orders: %w", err)
	}

	out := OrderStats{ByStatus: make(map[models.OrderStatus]StatusTotals, len(rows))}
	for _, r := range rows {
		out.ByStatus[models.OrderStatus(r.Status)] = StatusTotals{Count: r.Count, Sum: r.Sum.Round(2)}
	}
	return out, nil
}
