package table_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

type owner struct {
	ID   uint
	Name string
}

type ticket struct {
	ID      uint
	OwnerID uint
	Code    string
	State   string
	Amount  int
}

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&owner{}, &ticket{}))

	require.NoError(t, db.Create(&[]owner{{ID: 1, Name: "Zoe"}, {ID: 2, Name: "adam"}}).Error)
	require.NoError(t, db.Create(&[]ticket{
		{ID: 1, OwnerID: 1, Code: "AB-100", State: "open", Amount: 30},
		{ID: 2, OwnerID: 2, Code: "CD-200", State: "closed", Amount: 10},
		{ID: 3, OwnerID: 1, Code: "AB_300", State: "open", Amount: 20},
		{ID: 4, OwnerID: 2, Code: "EF-400", State: "open", Amount: 40},
	}).Error)
	return db
}

func tickets() *table.Table {
	state := func(s string) func(*orm.Query) *orm.Query {
		return func(q *orm.Query) *orm.Query { return q.Where("tickets.state = ?", s) }
	}
	return &table.Table{
		From: "tickets",
		Columns: []table.Column{
			{Key: "owner.name", Label: "Owner", Sortable: true, Searchable: true,
				Expr: "owners.name", Join: "LEFT JOIN owners ON owners.id = tickets.owner_id"},
			{Key: "code", Label: "Code", Searchable: true},
			{Key: "amount", Label: "Amount", Sortable: true},
			{Key: "state", Label: "State", Badge: true},
		},
		Filters: []table.Filter{
			{Name: "open", Label: "Open", Scope: state("open")},
			{Name: "closed", Label: "Closed", Scope: state("closed")},
			{Name: "big", Label: "Big", Scope: func(q *orm.Query) *orm.Query { return q.Where("tickets.amount >= ?", 25) }},
		},
		DefaultSort:      "amount",
		DefaultDirection: "asc",
	}
}

func ids(rows []ticket) []uint {
	out := make([]uint, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func list(t *testing.T, db *gorm.DB, v url.Values) ([]ticket, orm.Pagination) {
	t.Helper()
	q, p := tickets().Apply(orm.Use(db).Model(&ticket{}), table.ParseParams(v))
	var rows []ticket
	page, err := q.Paginate(&rows, p.Page, p.PerPage)
	require.NoError(t, err)
	return rows, page
}

func TestParseParams(t *testing.T) {
	p := table.ParseParams(url.Values{
		"filter":    {"open,big", " closed "},
		"search":    {"  ab "},
		"sort":      {"amount"},
		"direction": {"DESC"},
		"page":      {"2"},
		"per_page":  {"x"},
	})
	assert.Equal(t, []string{"open", "big", "closed"}, p.Filters)
	assert.Equal(t, "ab", p.Search)
	assert.Equal(t, "desc", p.Direction)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 0, p.PerPage)
}

func TestNormalize(t *testing.T) {
	tb := tickets()

	p := tb.Normalize(table.Params{Filters: []string{"nope", "open", "open"}, Sort: "state", PerPage: 500})
	assert.Equal(t, []string{"open"}, p.Filters)
	assert.Equal(t, "amount", p.Sort, "unsortable column falls back to default")
	assert.Equal(t, "asc", p.Direction)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, table.MaxPerPage, p.PerPage)

	p = tb.Normalize(table.Params{Sort: "owner.name", Direction: "sideways"})
	assert.Equal(t, "owner.name", p.Sort)
	assert.Equal(t, "asc", p.Direction)
	assert.Equal(t, table.DefaultPerPage, p.PerPage)
}

func TestApplyFiltersAreAnded(t *testing.T) {
	db := seed(t)

	rows, page := list(t, db, url.Values{"filter": {"open"}})
	assert.Equal(t, []uint{3, 1, 4}, ids(rows))
	assert.EqualValues(t, 3, page.Total)

	rows, _ = list(t, db, url.Values{"filter": {"open", "big"}})
	assert.Equal(t, []uint{1, 4}, ids(rows))

	rows, _ = list(t, db, url.Values{"filter": {"open", "closed"}})
	assert.Empty(t, rows)

	rows, _ = list(t, db, url.Values{"filter": {"unknown"}})
	assert.Len(t, rows, 4)
}

func TestApplySearch(t *testing.T) {
	db := seed(t)

	rows, _ := list(t, db, url.Values{"search": {"ab-"}})
	assert.Equal(t, []uint{1}, ids(rows))

	// underscore is literal, not a wildcard
	rows, _ = list(t, db, url.Values{"search": {"ab_"}})
	assert.Equal(t, []uint{3}, ids(rows))

	// relationship column through the join, case-insensitive
	rows, _ = list(t, db, url.Values{"search": {"ADAM"}})
	assert.Equal(t, []uint{2, 4}, ids(rows))
}

func TestApplySortAndPaginate(t *testing.T) {
	db := seed(t)

	rows, _ := list(t, db, url.Values{"sort": {"amount"}, "direction": {"desc"}})
	assert.Equal(t, []uint{4, 1, 3, 2}, ids(rows))

	rows, _ = list(t, db, url.Values{"sort": {"owner.name"}})
	assert.Equal(t, []uint{1, 3, 2, 4}, ids(rows), "Zoe sorts before adam byte-wise")

	rows, page := list(t, db, url.Values{"per_page": {"3"}, "page": {"2"}})
	assert.Equal(t, []uint{4}, ids(rows))
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 2, page.CurrentPage)
}

func TestDescribe(t *testing.T) {
	d := tickets().Describe(table.Params{Filters: []string{"big"}})
	assert.Len(t, d.Columns, 4)
	assert.Len(t, d.Filters, 3)
	assert.Equal(t, []string{"big"}, d.Params.Filters)
	assert.Equal(t, table.DefaultPerPage, d.Params.PerPage)
}
