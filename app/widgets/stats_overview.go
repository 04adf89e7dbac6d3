// Package widgets renders dashboard widgets from service data.
package widgets

import (
	"strconv"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/money"
)

// Stat is one card of the overview.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// StatsOverview turns order stats into the five dashboard cards: one count
// per status, then money earned (finished) and money pending.
func StatsOverview(st services.OrderStats) []Stat {
	count := func(s models.OrderStatus) string {
		return strconv.FormatInt(st.Of(s).Count, 10)
	}
	return []Stat{
		{Label: "Orders Pending", Value: count(models.StatusPending)},
		{Label: "Orders Rejected", Value: count(models.StatusRejected)},
		{Label: "Orders Finished", Value: count(models.StatusFinished)},
		{Label: "Money Earned", Value: money.Format(st.Of(models.StatusFinished).Sum), Color: "success"},
		{Label: "Money Pending", Value: money.Format(st.Of(models.StatusPending).Sum), Color: "warning"},
	}
}
