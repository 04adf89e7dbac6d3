package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// State is the JSON-shaped value tree of a form. Repeaters hold a []any of
// map[string]any rows.
type State map[string]any

// Get reads a value by path relative to a component's container. A leading
// "../" walks one level up, so a repeater row reads its parent form's
// customer with "../../customer_id".
type Get func(path string) any

// Set writes a value by path, resolved the same way as Get.
type Set func(path string, value any)

// Clone deep-copies s.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return State(cloneValue(map[string]any(s)).(map[string]any))
}

// Get reads an absolute dotted path such as "order_products.0.quantity".
func (s State) Get(path string) any {
	v, _ := lookup(s, splitPath(path))
	return v
}

// Set writes an absolute dotted path. Missing intermediate objects are
// created; out-of-range row indexes are ignored.
func (s State) Set(path string, value any) {
	_ = assign(s, splitPath(path), value)
}

// Rows returns the rows of the repeater stored at key.
func (s State) Rows(key string) []map[string]any {
	rows, _ := toRows(s[key])
	return rows
}

// bind returns accessors whose relative paths resolve against base.
func (s State) bind(base []string) (Get, Set) {
	get := func(p string) any {
		v, _ := lookup(s, resolve(base, p))
		return v
	}
	set := func(p string, v any) {
		_ = assign(s, resolve(base, p), normalize(v))
	}
	return get, set
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func resolve(base []string, rel string) []string {
	segs := append([]string(nil), base...)
	for {
		switch {
		case strings.HasPrefix(rel, "../"):
			rel = rel[3:]
		case rel == "..":
			rel = ""
		default:
			return append(segs, splitPath(rel)...)
		}
		if len(segs) > 0 {
			segs = segs[:len(segs)-1]
		}
	}
}

func lookup(root map[string]any, segs []string) (any, bool) {
	var cur any = root
	for _, seg := range segs {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case State:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func assign(root map[string]any, segs []string, value any) error {
	if len(segs) == 0 {
		return fmt.Errorf("form: empty path")
	}

	var cur any = root
	for i, seg := range segs {
		last := i == len(segs)-1
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = value
				return nil
			}
			next, ok := c[seg]
			if !ok || next == nil {
				next = map[string]any{}
				c[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return fmt.Errorf("form: row %q out of range", seg)
			}
			if last {
				c[idx] = value
				return nil
			}
			cur = c[idx]
		default:
			return fmt.Errorf("form: cannot descend into %T at %q", cur, seg)
		}
	}
	return nil
}

// normalize converts typed containers into the generic JSON shapes the
// state stores.
func normalize(v any) any {
	switch t := v.(type) {
	case State:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case decimal.Decimal:
		return t.StringFixed(2)
	}
	return v
}

func cloneValue(v any) any { return normalize(v) }

// toRows views v as repeater rows without copying, so edits to a row are
// visible through the state that holds it.
func toRows(v any) ([]map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return []map[string]any{}, true
	case []map[string]any:
		return t, true
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for _, x := range t {
			switch m := x.(type) {
			case map[string]any:
				rows = append(rows, m)
			case State:
				rows = append(rows, m)
			default:
				return nil, false
			}
		}
		return rows, true
	}
	return nil, false
}

func rowsValue(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// ── Coercion ────────────────────────────────────────────────────────────────

// IsEmpty reports whether v counts as "no value": nil, blank string or an
// empty list.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

// Decimal coerces v to a decimal. Empty or unparsable values are zero.
func Decimal(v any) decimal.Decimal {
	d, _ := ParseDecimal(v)
	return d
}

// ParseDecimal is Decimal with an ok flag that is false only for non-empty
// values that are not numbers.
func ParseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return decimal.NewFromInt(int64(t)), true
	case uint64:
		return decimal.NewFromInt(int64(t)), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Uint coerces v to an id. Anything that is not a non-negative whole
// number yields 0.
func Uint(v any) uint {
	switch t := v.(type) {
	case uint:
		return t
	case uint64:
		return uint(t)
	case int:
		if t > 0 {
			return uint(t)
		}
	case int64:
		if t > 0 {
			return uint(t)
		}
	case float64:
		if t > 0 && t == math.Trunc(t) {
			return uint(t)
		}
	case json.Number:
		n, err := strconv.ParseUint(t.String(), 10, 64)
		if err == nil {
			return uint(n)
		}
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err == nil {
			return uint(n)
		}
	}
	return 0
}

// Int coerces v to an int, 0 when it is not a whole number.
func Int(v any) int {
	d, ok := ParseDecimal(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0
	}
	return int(d.IntPart())
}

// String renders v for comparisons and display.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
