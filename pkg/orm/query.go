// Package orm is a small chainable query builder over gorm.
//
//	var orders []models.Order
//	page, err := orm.DB().WithContext(ctx).
//		Model(&models.Order{}).
//		Where("status = ?", "pending").
//		Preload("Customer").
//		Paginate(&orders, 1, 10)
package orm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/orderdesk/pkg/cache"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/metrics"
)

type Query struct {
	db *gorm.DB
}

// Pagination is the metadata returned alongside a page of rows.
type Pagination struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// DB starts a query on the global connection.
func DB() *Query {
	return &Query{db: database.DB}
}

// Use starts a query on an explicit connection or transaction.
func Use(db *gorm.DB) *Query {
	return &Query{db: db}
}

// Gorm exposes the underlying handle for cases the builder does not cover.
func (q *Query) Gorm() *gorm.DB { return q.db }

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Table(name string) *Query {
	return &Query{db: q.db.Table(name)}
}

func (q *Query) Select(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Select(query, args...)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Joins(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Joins(query, args...)}
}

func (q *Query) Omit(columns ...string) *Query {
	return &Query{db: q.db.Omit(columns...)}
}

func (q *Query) Preload(assoc string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(assoc, args...)}
}

func (q *Query) Order(value interface{}) *Query {
	return &Query{db: q.db.Order(value)}
}

// OrderBy adds a quoted ORDER BY column; desc selects descending order.
func (q *Query) OrderBy(column string, desc bool) *Query {
	return &Query{db: q.db.Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: desc})}
}

func (q *Query) Group(name string) *Query {
	return &Query{db: q.db.Group(name)}
}

func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n)}
}

func (q *Query) Offset(n int) *Query {
	return &Query{db: q.db.Offset(n)}
}

// ── Terminal operations ─────────────────────────────────────────────────────

func (q *Query) Get(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest).Error
}

// Find loads the row with primary key id into dest.
func (q *Query) Find(dest interface{}, id interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest, id).Error
}

func (q *Query) Scan(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Scan(dest).Error
}

func (q *Query) Count(n *int64) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Count(n).Error
}

func (q *Query) Pluck(column string, dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Pluck(column, dest).Error
}

func (q *Query) Create(v interface{}) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Save(v).Error
}

// Updates applies a column map to the rows matched by the query.
func (q *Query) Updates(values map[string]interface{}) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return q.db.Updates(values).Error
}

// Delete removes v, or the rows matched by the query when conds are given.
// Returns the number of affected rows.
func (q *Query) Delete(v interface{}, conds ...interface{}) (int64, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())
	res := q.db.Delete(v, conds...)
	return res.RowsAffected, res.Error
}

// Paginate loads one page of rows into dest. page is 1-based.
func (q *Query) Paginate(dest interface{}, page, perPage int) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	// joined listings select "<table>.*", which COUNT cannot take, and gorm
	// refuses to count with preloads
	counter := q.db.Session(&gorm.Session{}).Select("*")
	counter.Statement.Preloads = nil
	if err := counter.Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	p := Pagination{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    int((total + int64(perPage) - 1) / int64(perPage)),
	}
	if p.LastPage == 0 {
		p.LastPage = 1
	}

	offset := (page - 1) * perPage
	if err := q.Offset(offset).Limit(perPage).Get(dest); err != nil {
		return Pagination{}, err
	}

	if int64(offset) < total {
		p.From = offset + 1
		p.To = offset + perPage
		if int64(p.To) > total {
			p.To = int(total)
		}
	}
	return p, nil
}

// Transaction runs fn inside a database transaction. Returning an error
// from fn rolls back.
func (q *Query) Transaction(ctx context.Context, fn func(tx *Query) error) error {
	defer metrics.ObserveDBQuery("tx", time.Now())
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Query{db: tx})
	})
}

// Cache serves dest from the cache when present, otherwise runs the query
// and caches the result for ttl.
func (q *Query) Cache(ctx context.Context, key string, ttl time.Duration, dest interface{}) error {
	if cache.Get(ctx, key, dest) {
		return nil
	}

	if err := q.Get(dest); err != nil {
		return err
	}

	_ = cache.Set(ctx, key, dest, ttl)
	return nil
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
