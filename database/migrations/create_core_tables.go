package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/pkg/migration"
	"github.com/shashiranjanraj/orderdesk/pkg/queue"
)

func init() {
	migration.Register("20261016000001_create_users_table", table("users", &models.User{}))
	migration.Register("20261016000002_create_customers_table", table("customers", &models.Customer{}))
	migration.Register("20261016000003_create_products_table", table("products", &models.Product{}))
	migration.Register("20261016000004_create_orders_table", table("orders", &models.Order{}))
	migration.Register("20261016000005_create_order_products_table", table("order_products", &models.OrderProduct{}))
	migration.Register("20261016000006_create_failed_jobs_table", table("failed_jobs", &queue.FailedJobRecord{}))
}

// createTable migrates one model up and drops its table down.
type createTable struct {
	name  string
	model interface{}
}

func table(name string, model interface{}) *createTable {
	return &createTable{name: name, model: model}
}

func (m *createTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
