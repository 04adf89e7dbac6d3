// Package form is a server-side reactive form engine.
//
// A Schema declares fields and repeaters. Update applies one edit to a
// State and runs the AfterStateUpdated hooks of the edited component, so
// dependent values (prices, line totals, order totals) are recomputed the
// same way for every client:
//
//	next, err := schema.Update(ctx, state, "order_products.0.quantity", 3)
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/orderdesk/pkg/metrics"
)

// Field kinds, as reported by Describe.
const (
	KindText   = "text"
	KindNumber = "number"
	KindSelect = "select"
)

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrNotEditable  = errors.New("form: field is not editable")
	ErrInvalidRows  = errors.New("form: repeater value must be a list of rows")
)

// Option is one choice of a select field.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Hook runs after a component's value changed. get and set resolve paths
// relative to the component's container.
type Hook func(ctx context.Context, get Get, set Set, old, new any) error

// OptionsFunc lists the choices of a select field.
type OptionsFunc func(ctx context.Context, get Get) ([]Option, error)

// Component is a Field or a Repeater.
type Component interface {
	Key() string
}

type Field struct {
	Name     string
	Label    string
	Kind     string
	Required bool
	Numeric  bool
	Integer  bool
	Min      *decimal.Decimal
	Readonly bool
	Disabled bool
	// Live asks clients to round-trip every change instead of batching.
	Live    bool
	Default func() any
	Options OptionsFunc
	Hidden  func(get Get) bool

	AfterStateUpdated []Hook
}

func (f *Field) Key() string { return f.Name }

func (f *Field) editable() bool { return !f.Readonly && !f.Disabled }

func (f *Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return strings.ReplaceAll(f.Name, "_", " ")
}

// Repeater is a list of rows sharing one child schema. Its hooks run after
// any row is added, removed or edited.
type Repeater struct {
	Name     string
	Label    string
	Live     bool
	MinItems int
	Schema   []*Field
	Hidden   func(get Get) bool

	AfterStateUpdated []Hook
}

func (r *Repeater) Key() string { return r.Name }

func (r *Repeater) field(name string) *Field {
	for _, f := range r.Schema {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Schema is an ordered set of components.
type Schema struct {
	Name       string
	Components []Component
}

func New(name string, components ...Component) *Schema {
	return &Schema{Name: name, Components: components}
}

func (s *Schema) component(key string) Component {
	for _, c := range s.Components {
		if c.Key() == key {
			return c
		}
	}
	return nil
}

// ── Fill ────────────────────────────────────────────────────────────────────

// Fill returns a copy of values with every absent or nil field set to its
// default (or nil) and every repeater row completed the same way. A field
// the user cleared to "" keeps that value.
func (s *Schema) Fill(values State) State {
	st := values.Clone()
	for _, c := range s.Components {
		switch c := c.(type) {
		case *Field:
			fillField(st, c)
		case *Repeater:
			rows, ok := toRows(st[c.Name])
			if !ok {
				rows = []map[string]any{}
			}
			for _, row := range rows {
				for _, f := range c.Schema {
					fillField(row, f)
				}
			}
			st[c.Name] = rowsValue(rows)
		}
	}
	return st
}

func fillField(container map[string]any, f *Field) {
	if v, ok := container[f.Name]; ok && v != nil {
		return
	}
	if f.Default != nil {
		container[f.Name] = normalize(f.Default())
		return
	}
	container[f.Name] = nil
}

// ── Update ──────────────────────────────────────────────────────────────────

// Update applies value at path on a copy of state and runs the cascade.
// path is either a top-level field, a repeater ("order_products", value is
// the full row list) or a row field ("order_products.1.quantity").
func (s *Schema) Update(ctx context.Context, state State, path string, value any) (State, error) {
	next := s.Fill(state)
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}

	rootGet, rootSet := next.bind(nil)

	switch c := s.component(segs[0]).(type) {
	case *Field:
		if len(segs) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		if !c.editable() || hidden(c.Hidden, rootGet) {
			return nil, fmt.Errorf("%w: %q", ErrNotEditable, path)
		}
		old := next[c.Name]
		next[c.Name] = normalize(value)
		if err := runHooks(ctx, c.AfterStateUpdated, rootGet, rootSet, old, next[c.Name]); err != nil {
			return nil, err
		}
		s.observe(c.Name)

	case *Repeater:
		if hidden(c.Hidden, rootGet) {
			return nil, fmt.Errorf("%w: %q", ErrNotEditable, path)
		}
		old := cloneValue(next[c.Name])

		switch len(segs) {
		case 1:
			rows, ok := toRows(normalize(value))
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRows, path)
			}
			prev := c.matchRows(old, rows)
			next[c.Name] = rowsValue(rows)
			if err := c.refreshRows(ctx, next, prev); err != nil {
				return nil, err
			}
			s.observe(c.Name)

		case 3:
			f := c.field(segs[2])
			if f == nil {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
			}
			idx, err := strconv.Atoi(segs[1])
			rows, _ := toRows(next[c.Name])
			if err != nil || idx < 0 || idx >= len(rows) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
			}
			rowGet, rowSet := next.bind(segs[:2])
			if !f.editable() || hidden(f.Hidden, rowGet) {
				return nil, fmt.Errorf("%w: %q", ErrNotEditable, path)
			}
			prev := rows[idx][f.Name]
			rows[idx][f.Name] = normalize(value)
			if err := runHooks(ctx, f.AfterStateUpdated, rowGet, rowSet, prev, rows[idx][f.Name]); err != nil {
				return nil, err
			}
			s.observe(c.Name + ".*." + f.Name)

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
		}

		if err := runHooks(ctx, c.AfterStateUpdated, rootGet, rootSet, old, next[c.Name]); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}

	return next, nil
}

// matchRows pairs each incoming row with the stored row of the same "id".
// Non-editable values of a matched row come from the stored row; those of
// any other row are dropped so the row hooks derive them again.
func (r *Repeater) matchRows(stored any, rows []map[string]any) []map[string]any {
	storedRows, _ := toRows(stored)
	byID := make(map[string]map[string]any, len(storedRows))
	for _, row := range storedRows {
		if id := String(row["id"]); id != "" {
			byID[id] = row
		}
	}

	prev := make([]map[string]any, len(rows))
	for i, row := range rows {
		if id := String(row["id"]); id != "" {
			prev[i] = byID[id]
		}
		for _, f := range r.Schema {
			if f.editable() {
				continue
			}
			if prev[i] != nil {
				row[f.Name] = prev[i][f.Name]
			} else {
				delete(row, f.Name)
			}
		}
		for _, f := range r.Schema {
			fillField(row, f)
		}
	}
	return prev
}

// refreshRows runs the hooks of every editable row field that is new or
// differs from its matched stored row, in schema order.
func (r *Repeater) refreshRows(ctx context.Context, st State, prev []map[string]any) error {
	rows, _ := toRows(st[r.Name])
	for i := range rows {
		rowGet, rowSet := st.bind([]string{r.Name, strconv.Itoa(i)})
		for _, f := range r.Schema {
			if !f.editable() || len(f.AfterStateUpdated) == 0 {
				continue
			}
			v := rowGet(f.Name)
			var was any
			if prev[i] != nil {
				was = prev[i][f.Name]
				if String(was) == String(v) {
					continue
				}
			} else if IsEmpty(v) {
				continue
			}
			if err := runHooks(ctx, f.AfterStateUpdated, rowGet, rowSet, was, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) observe(field string) {
	metrics.FormUpdates.WithLabelValues(s.Name, field).Inc()
}

func runHooks(ctx context.Context, hooks []Hook, get Get, set Set, old, new any) error {
	for _, h := range hooks {
		if err := h(ctx, get, set, old, new); err != nil {
			return err
		}
	}
	return nil
}

func hidden(fn func(Get) bool, get Get) bool {
	return fn != nil && fn(get)
}

// ── Validate ────────────────────────────────────────────────────────────────

// Validate checks required, numeric, min and option membership of every
// visible field. Errors are keyed by absolute path.
func (s *Schema) Validate(ctx context.Context, state State) (map[string]string, error) {
	st := s.Fill(state)
	errs := map[string]string{}
	rootGet, _ := st.bind(nil)

	for _, c := range s.Components {
		switch c := c.(type) {
		case *Field:
			if hidden(c.Hidden, rootGet) {
				continue
			}
			msg, err := validateField(ctx, c, st[c.Name], rootGet)
			if err != nil {
				return nil, err
			}
			if msg != "" {
				errs[c.Name] = msg
			}

		case *Repeater:
			if hidden(c.Hidden, rootGet) {
				continue
			}
			rows, _ := toRows(st[c.Name])
			if len(rows) < c.MinItems {
				errs[c.Name] = fmt.Sprintf("The %s must have at least %d items.", labelOf(c.Label, c.Name), c.MinItems)
			}
			for i, row := range rows {
				rowGet, _ := st.bind([]string{c.Name, strconv.Itoa(i)})
				for _, f := range c.Schema {
					if hidden(f.Hidden, rowGet) {
						continue
					}
					msg, err := validateField(ctx, f, row[f.Name], rowGet)
					if err != nil {
						return nil, err
					}
					if msg != "" {
						errs[fmt.Sprintf("%s.%d.%s", c.Name, i, f.Name)] = msg
					}
				}
			}
		}
	}
	return errs, nil
}

func validateField(ctx context.Context, f *Field, v any, get Get) (string, error) {
	if IsEmpty(v) {
		if f.Required {
			return fmt.Sprintf("The %s field is required.", f.label()), nil
		}
		return "", nil
	}

	if f.Numeric || f.Integer || f.Min != nil {
		d, ok := ParseDecimal(v)
		if !ok {
			return fmt.Sprintf("The %s field must be a number.", f.label()), nil
		}
		if f.Integer && !d.Equal(d.Truncate(0)) {
			return fmt.Sprintf("The %s field must be an integer.", f.label()), nil
		}
		if f.Min != nil && d.LessThan(*f.Min) {
			return fmt.Sprintf("The %s must be at least %s.", f.label(), f.Min.String()), nil
		}
	}

	if f.Options != nil && f.editable() {
		opts, err := f.Options(ctx, get)
		if err != nil {
			return "", fmt.Errorf("form: options for %s: %w", f.Name, err)
		}
		if !hasOption(opts, v) {
			return fmt.Sprintf("The selected %s is invalid.", f.label()), nil
		}
	}
	return "", nil
}

func hasOption(opts []Option, v any) bool {
	want := String(v)
	for _, o := range opts {
		if String(o.Value) == want {
			return true
		}
	}
	return false
}

func labelOf(label, name string) string {
	if label != "" {
		return label
	}
	return strings.ReplaceAll(name, "_", " ")
}

// ── Describe ────────────────────────────────────────────────────────────────

// Description is the client-facing rendering of one component.
type Description struct {
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Label    string          `json:"label"`
	Kind     string          `json:"type"`
	Required bool            `json:"required"`
	Readonly bool            `json:"readonly"`
	Disabled bool            `json:"disabled"`
	Live     bool            `json:"live"`
	Hidden   bool            `json:"hidden"`
	Options  []Option        `json:"options,omitempty"`
	Value    any             `json:"value"`
	Rows     [][]Description `json:"rows,omitempty"`
}

// Describe renders every component against state. Options are only
// resolved for visible selects.
func (s *Schema) Describe(ctx context.Context, state State) ([]Description, error) {
	st := s.Fill(state)
	rootGet, _ := st.bind(nil)

	out := make([]Description, 0, len(s.Components))
	for _, c := range s.Components {
		switch c := c.(type) {
		case *Field:
			d, err := describeField(ctx, c, c.Name, st[c.Name], rootGet)
			if err != nil {
				return nil, err
			}
			out = append(out, d)

		case *Repeater:
			d := Description{
				Name:   c.Name,
				Path:   c.Name,
				Label:  labelOf(c.Label, c.Name),
				Kind:   "repeater",
				Live:   c.Live,
				Hidden: hidden(c.Hidden, rootGet),
				Rows:   [][]Description{},
			}
			rows, _ := toRows(st[c.Name])
			for i, row := range rows {
				rowGet, _ := st.bind([]string{c.Name, strconv.Itoa(i)})
				fields := make([]Description, 0, len(c.Schema))
				for _, f := range c.Schema {
					fd, err := describeField(ctx, f, fmt.Sprintf("%s.%d.%s", c.Name, i, f.Name), row[f.Name], rowGet)
					if err != nil {
						return nil, err
					}
					fields = append(fields, fd)
				}
				d.Rows = append(d.Rows, fields)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func describeField(ctx context.Context, f *Field, path string, v any, get Get) (Description, error) {
	kind := f.Kind
	if kind == "" {
		kind = KindText
	}
	d := Description{
		Name:     f.Name,
		Path:     path,
		Label:    f.label(),
		Kind:     kind,
		Required: f.Required,
		Readonly: f.Readonly,
		Disabled: f.Disabled,
		Live:     f.Live,
		Hidden:   hidden(f.Hidden, get),
		Value:    v,
	}
	if f.Options != nil && !d.Hidden {
		opts, err := f.Options(ctx, get)
		if err != nil {
			return Description{}, fmt.Errorf("form: options for %s: %w", f.Name, err)
		}
		d.Options = opts
	}
	return d, nil
}

// MinDecimal is a helper for Field.Min.
func MinDecimal(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}
