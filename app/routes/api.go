package routes

import (
	"fmt"

	"github.com/shashiranjanraj/orderdesk/app/controllers"
	appgraphql "github.com/shashiranjanraj/orderdesk/app/graphql"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/graphql"
	"github.com/shashiranjanraj/orderdesk/pkg/middleware"
	"github.com/shashiranjanraj/orderdesk/pkg/rbac"
	"github.com/shashiranjanraj/orderdesk/pkg/router"
	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

// RegisterAPI mounts every application route. feed serves the live orders
// feed; it may be nil when routes are only listed.
func RegisterAPI(r *router.Router, feed *ws.Hub) error {
	orderService := services.NewOrderService()
	catalogService := services.NewCatalogService()
	statsService := services.NewStatsService()

	authController := controllers.NewAuthController()
	orderController := controllers.NewOrderController(orderService, catalogService)
	catalogController := controllers.NewCatalogController(catalogService)
	statsController := controllers.NewStatsController(statsService)
	liveController := controllers.NewLiveController(orderController, feed)

	schema, err := appgraphql.Schema(orderService, statsService)
	if err != nil {
		return fmt.Errorf("routes: graphql schema: %w", err)
	}

	api := r.Group("/api")
	api.Post("/login", "auth.login", authController.Login)

	protected := api.Group("", middleware.AuthMiddleware)
	protected.Get("/orders", "orders.index", orderController.Index)
	protected.Get("/orders/form", "orders.form", orderController.Form)
	protected.Post("/orders/form/update", "orders.form.update", orderController.FormUpdate)
	protected.Post("/orders/export", "orders.export", orderController.Export)
	protected.Get("/orders/{id}", "orders.show", orderController.Show)
	protected.Get("/orders/{id}/form", "orders.edit", orderController.EditForm)
	protected.Post("/orders", "orders.store", orderController.Store)
	protected.Put("/orders/{id}", "orders.update", orderController.Update)
	protected.Get("/exports", "exports.index", orderController.Exports)
	protected.Get("/stats", "stats.overview", statsController.Overview)
	protected.Get("/customers", "customers.index", catalogController.Customers)
	protected.Post("/customers", "customers.store", catalogController.StoreCustomer)
	protected.Get("/customers/{id}/products", "customers.products", catalogController.CustomerProducts)
	protected.Post("/products", "products.store", catalogController.StoreProduct)

	admin := protected.Group("", rbac.HasRole(rbac.RoleAdmin))
	admin.Delete("/orders/{id}", "orders.destroy", orderController.Destroy)
	admin.Post("/orders/bulk-delete", "orders.bulk-delete", orderController.BulkDestroy)

	authed := r.Group("", middleware.AuthMiddleware)
	authed.Get("/storage/exports/*", "exports.download", orderController.Download)
	authed.Get("/graphql", "graphql.get", graphql.Handler(schema))
	authed.Post("/graphql", "graphql.post", graphql.Handler(schema))
	authed.Get("/ws/orders/form", "ws.orders.form", liveController.FormSession)
	if feed != nil {
		authed.Get("/ws/orders/feed", "ws.orders.feed", liveController.Feed)
	}
	return nil
}
