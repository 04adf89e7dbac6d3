// Package graphql declares the read-only order schema.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/app/widgets"
	gql "github.com/shashiranjanraj/orderdesk/pkg/graphql"
	"github.com/shashiranjanraj/orderdesk/pkg/resource"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

var statusType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderStatus",
	Fields: graphql.Fields{
		"value": &graphql.Field{Type: graphql.String},
		"label": &graphql.Field{Type: graphql.String},
		"color": &graphql.Field{Type: graphql.String},
	},
})

var customerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Customer",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.Int},
		"full_name": &graphql.Field{Type: graphql.String},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.Int},
		"name": &graphql.Field{Type: graphql.String},
	},
})

var lineType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderProduct",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.Int},
		"product_id": &graphql.Field{Type: graphql.Int},
		"product":    &graphql.Field{Type: productType},
		"quantity":   &graphql.Field{Type: graphql.Int},
		"price":      &graphql.Field{Type: graphql.String},
		"total":      &graphql.Field{Type: graphql.String},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":                    &graphql.Field{Type: graphql.Int},
		"unique_code":           &graphql.Field{Type: graphql.String},
		"customer_id":           &graphql.Field{Type: graphql.Int},
		"customer":              &graphql.Field{Type: customerType},
		"status":                &graphql.Field{Type: statusType},
		"total_price":           &graphql.Field{Type: graphql.String},
		"total_price_formatted": &graphql.Field{Type: graphql.String},
		"created_at":            &graphql.Field{Type: graphql.String},
		"updated_at":            &graphql.Field{Type: graphql.String},
		"order_products":        &graphql.Field{Type: graphql.NewList(lineType)},
	},
})

var orderPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderPage",
	Fields: graphql.Fields{
		"items":        &graphql.Field{Type: graphql.NewList(orderType)},
		"total":        &graphql.Field{Type: graphql.Int},
		"current_page": &graphql.Field{Type: graphql.Int},
		"last_page":    &graphql.Field{Type: graphql.Int},
		"per_page":     &graphql.Field{Type: graphql.Int},
	},
})

var statType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stat",
	Fields: graphql.Fields{
		"label": &graphql.Field{Type: graphql.String},
		"value": &graphql.Field{Type: graphql.String},
		"color": &graphql.Field{Type: graphql.String},
	},
})

// Schema builds the schema over the order and stats services.
func Schema(orders *services.OrderService, stats *services.StatsService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"orders": &graphql.Field{
				Type: orderPageType,
				Args: graphql.FieldConfigArgument{
					"status":   &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"per_page": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: table.DefaultPerPage},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					params := table.Params{}
					if s, _ := p.Args["status"].(string); s != "" {
						params.Filters = []string{s}
					}
					params.Search, _ = p.Args["search"].(string)
					params.Sort, _ = p.Args["sort"].(string)
					params.Page, _ = p.Args["page"].(int)
					params.PerPage, _ = p.Args["per_page"].(int)

					items, page, _, err := orders.List(p.Context, params)
					if err != nil {
						return nil, err
					}
					return resource.Map{
						"items":        resource.Collection(resources.OrderRow, items),
						"total":        page.Total,
						"current_page": page.CurrentPage,
						"last_page":    page.LastPage,
						"per_page":     page.PerPage,
					}, nil
				},
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, services.ErrOrderNotFound
					}
					o, err := orders.Find(p.Context, uint(id))
					if err != nil {
						return nil, err
					}
					return resources.OrderDetail(o), nil
				},
			},
			"stats": &graphql.Field{
				Type: graphql.NewList(statType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					st, err := stats.Orders(p.Context)
					if err != nil {
						return nil, err
					}
					return widgets.StatsOverview(st), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
