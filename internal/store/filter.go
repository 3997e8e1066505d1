package store

import (
	"fmt"
	"strings"
)

// Filter is a typed SQL predicate. Expressions use '?' placeholders which are
// renumbered into $n when filters are composed into a query.
type Filter struct {
	expr string
	args []any
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool { return f.expr == "" }

// NotDeleted is the soft-delete exclusion predicate.
func NotDeleted() Filter {
	return Filter{expr: "deleted = false"}
}

// OnlyDeleted selects rows that were soft-deleted.
func OnlyDeleted() Filter {
	return Filter{expr: "deleted = true"}
}

func Eq(column string, value any) Filter {
	return Filter{expr: column + " = ?", args: []any{value}}
}

func NotEq(column string, value any) Filter {
	return Filter{expr: column + " <> ?", args: []any{value}}
}

// ContainsFold is a case-insensitive substring match. An empty term matches
// everything.
func ContainsFold(column, term string) Filter {
	term = strings.TrimSpace(term)
	if term == "" {
		return Filter{}
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return Filter{expr: "LOWER(" + column + `) LIKE ? ESCAPE '\'`, args: []any{pattern}}
}

// And joins filters; zero filters are skipped.
func And(filters ...Filter) Filter {
	var parts []string
	var args []any
	for _, f := range filters {
		if f.IsZero() {
			continue
		}
		parts = append(parts, f.expr)
		args = append(args, f.args...)
	}
	switch len(parts) {
	case 0:
		return Filter{}
	case 1:
		return Filter{expr: parts[0], args: args}
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return Filter{expr: strings.Join(parts, " AND "), args: args}
}

// build renders the filter with placeholders starting at $start.
func (f Filter) build(start int) (string, []any) {
	if f.IsZero() {
		return "", nil
	}
	var b strings.Builder
	n := start
	for _, r := range f.expr {
		if r == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), f.args
}

// where renders a WHERE clause for the conjunction of filters.
func where(start int, filters ...Filter) (string, []any) {
	clause, args := And(filters...).build(start)
	if clause == "" {
		return "", nil
	}
	return "WHERE " + clause, args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
