// Package table applies a declarative list definition (columns, filters,
// search, sort, pagination) to an orm query.
//
//	params := table.ParseParams(r.URL.Query())
//	q, params := orders.Apply(orm.DB().WithContext(ctx).Model(&models.Order{}), params)
//	page, err := q.Paginate(&rows, params.Page, params.PerPage)
package table

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/orderdesk/pkg/orm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Column describes one list column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Expr is the SQL expression used for sort and search; defaults to
	// "<table>.<key>".
	Expr string `json:"-"`
	// Join is added to the query when Expr needs another table.
	Join string `json:"-"`

	Sortable        bool `json:"sortable"`
	Searchable      bool `json:"searchable"`
	Toggleable      bool `json:"toggleable"`
	HiddenByDefault bool `json:"hidden_by_default"`
	Badge           bool `json:"badge"`
}

// Filter is a named query scope toggled with ?filter=<name>.
type Filter struct {
	Name  string                       `json:"name"`
	Label string                       `json:"label"`
	Scope func(q *orm.Query) *orm.Query `json:"-"`
}

// Table is a list definition over one base table.
type Table struct {
	From             string
	Columns          []Column
	Filters          []Filter
	DefaultSort      string
	DefaultDirection string
	Actions          []string
	BulkActions      []string
}

// Params is a normalised list request.
type Params struct {
	Filters   []string `json:"filters"`
	Search    string   `json:"search"`
	Sort      string   `json:"sort"`
	Direction string   `json:"direction"`
	Page      int      `json:"page"`
	PerPage   int      `json:"per_page"`
}

// ParseParams reads filter (repeatable or comma-separated), search, sort,
// direction, page and per_page from query values.
func ParseParams(v url.Values) Params {
	p := Params{
		Search:    strings.TrimSpace(v.Get("search")),
		Sort:      strings.TrimSpace(v.Get("sort")),
		Direction: strings.ToLower(strings.TrimSpace(v.Get("direction"))),
		Page:      atoi(v.Get("page")),
		PerPage:   atoi(v.Get("per_page")),
	}
	for _, raw := range v["filter"] {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				p.Filters = append(p.Filters, f)
			}
		}
	}
	return p
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func (t *Table) column(key string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) filter(name string) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

func (t *Table) expr(c Column) string {
	if c.Expr != "" {
		return c.Expr
	}
	return t.From + "." + c.Key
}

// Normalize drops unknown filters and unsortable columns and clamps
// pagination, returning the params that will actually be applied.
func (t *Table) Normalize(p Params) Params {
	out := Params{Search: p.Search, Page: p.Page, PerPage: p.PerPage}

	seen := map[string]bool{}
	for _, name := range p.Filters {
		if _, ok := t.filter(name); ok && !seen[name] {
			seen[name] = true
			out.Filters = append(out.Filters, name)
		}
	}

	out.Sort, out.Direction = t.DefaultSort, t.DefaultDirection
	if c, ok := t.column(p.Sort); ok && c.Sortable {
		out.Sort = c.Key
		out.Direction = "asc"
		if p.Direction == "desc" {
			out.Direction = "desc"
		}
	}
	if out.Direction == "" {
		out.Direction = "asc"
	}

	if out.Page < 1 {
		out.Page = 1
	}
	if out.PerPage < 1 {
		out.PerPage = DefaultPerPage
	}
	if out.PerPage > MaxPerPage {
		out.PerPage = MaxPerPage
	}
	return out
}

// Apply scopes q by p. Each active filter adds its own WHERE, so multiple
// filters are AND-ed.
func (t *Table) Apply(q *orm.Query, p Params) (*orm.Query, Params) {
	p = t.Normalize(p)

	joins := map[string]bool{}
	addJoin := func(c Column) {
		if c.Join != "" && !joins[c.Join] {
			joins[c.Join] = true
			q = q.Joins(c.Join)
		}
	}

	for _, name := range p.Filters {
		f, _ := t.filter(name)
		if f.Scope != nil {
			q = f.Scope(q)
		}
	}

	if p.Search != "" {
		var clauses []string
		var args []interface{}
		pattern := "%" + escapeLike(strings.ToLower(p.Search)) + "%"
		for _, c := range t.Columns {
			if !c.Searchable {
				continue
			}
			addJoin(c)
			clauses = append(clauses, "LOWER("+t.expr(c)+") LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		if len(clauses) > 0 {
			q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
	}

	if c, ok := t.column(p.Sort); ok {
		addJoin(c)
		q = q.OrderBy(t.expr(c), p.Direction == "desc")
	}
	// stable paging
	q = q.OrderBy(t.From+".id", p.Direction == "desc")

	if len(joins) > 0 {
		q = q.Select(t.From + ".*")
	}
	return q, p
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// Description is the client-facing shape of a table.
type Description struct {
	Columns     []Column `json:"columns"`
	Filters     []Filter `json:"filters"`
	Actions     []string `json:"actions"`
	BulkActions []string `json:"bulk_actions"`
	Params      Params   `json:"params"`
}

// Describe renders the table definition with the applied params.
func (t *Table) Describe(p Params) Description {
	return Description{
		Columns:     t.Columns,
		Filters:     t.Filters,
		Actions:     t.Actions,
		BulkActions: t.BulkActions,
		Params:      t.Normalize(p),
	}
}
