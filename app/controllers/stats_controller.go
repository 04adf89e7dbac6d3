package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/app/widgets"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
)

type StatsController struct {
	stats *services.StatsService
}

func NewStatsController(stats *services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

// Overview renders the stats widget.
func (c *StatsController) Overview(w http.ResponseWriter, r *http.Request) {
	st, err := c.stats.Orders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, widgets.StatsOverview(st))
}
