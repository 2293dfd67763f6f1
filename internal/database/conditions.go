package database

import (
	"fmt"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
)

// RenderWhere renders resolved filter conditions into a WHERE fragment with
// ? placeholders. Conditions always AND together. An empty slice renders to
// an empty string.
func RenderWhere(a DBAdapter, conds []fieldmap.Condition) (string, []interface{}, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, c := range conds {
		switch c := c.(type) {
		case fieldmap.Eq:
			parts = append(parts, c.Column+" = ?")
			args = append(args, c.Value)
		case fieldmap.In:
			if len(c.Values) == 0 {
				// Empty IN lists match no rows.
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, c.Column+" IN ("+placeholders(len(c.Values))+")")
			args = append(args, c.Values...)
		case fieldmap.NullOrEmpty:
			parts = append(parts, "("+c.Column+" IS NULL OR "+c.Column+" = '')")
		case fieldmap.NotNullOrEmpty:
			parts = append(parts, "("+c.Column+" IS NOT NULL AND "+c.Column+" <> '')")
		case fieldmap.Like:
			parts = append(parts, a.CaseInsensitiveLike(c.Column))
			args = append(args, c.Pattern)
		case fieldmap.Range:
			if c.After != nil {
				parts = append(parts, c.Column+" >= ?")
				args = append(args, timefmt.Normalize(*c.After))
			}
			if c.Before != nil {
				parts = append(parts, c.Column+" <= ?")
				args = append(args, timefmt.Normalize(*c.Before))
			}
		case fieldmap.MatchAny:
			if len(c.Columns) == 0 {
				continue
			}
			ors := make([]string, len(c.Columns))
			for i, col := range c.Columns {
				ors[i] = "LOWER(" + col + ") = LOWER(?)"
				args = append(args, c.Value)
			}
			parts = append(parts, "("+strings.Join(ors, " OR ")+")")
		default:
			return "", nil, fmt.Errorf("unsupported condition type %T", c)
		}
	}
	return strings.Join(parts, " AND "), args, nil
}

// RenderSet renders resolved assignments into a SET fragment with ?
// placeholders, in input order.
func RenderSet(assigns []fieldmap.Assignment) (string, []interface{}) {
	parts := make([]string, len(assigns))
	args := make([]interface{}, len(assigns))
	for i, a := range assigns {
		parts[i] = a.Column + " = ?"
		args[i] = a.Value
	}
	return strings.Join(parts, ", "), args
}

// Order is one ORDER BY term. Columns must come from an allowlist upstream;
// they are interpolated, not bound.
type Order struct {
	Column string
	Desc   bool
}

// RenderOrder renders ORDER BY terms. An empty slice renders to an empty
// string.
func RenderOrder(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	terms := make([]string, len(orders))
	for i, o := range orders {
		dir := " ASC"
		if o.Desc {
			dir = " DESC"
		}
		terms[i] = o.Column + dir
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
