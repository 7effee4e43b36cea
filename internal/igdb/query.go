package igdb

import (
	"fmt"
	"strings"
)

// Query builds an Apicalypse request body
type Query struct {
	search string
	fields []string
	where  []string
	sort   string
	limit  int
}

// NewQuery starts a query selecting the given fields
func NewQuery(fields ...string) *Query {
	return &Query{fields: fields}
}

// Search adds a full-text search term. Double quotes are stripped from the term.
func (q *Query) Search(term string) *Query {
	q.search = strings.ReplaceAll(term, `"`, "")
	return q
}

// Where adds a condition; conditions are joined with &
func (q *Query) Where(format string, args ...any) *Query {
	q.where = append(q.where, fmt.Sprintf(format, args...))
	return q
}

// Sort orders results by field in the given direction ("asc" or "desc")
func (q *Query) Sort(field, direction string) *Query {
	q.sort = field + " " + direction
	return q
}

// Limit caps the number of returned records
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// String renders the query body
func (q *Query) String() string {
	var b strings.Builder
	if q.search != "" {
		fmt.Fprintf(&b, "search %q;\n", q.search)
	}
	fields := "*"
	if len(q.fields) > 0 {
		fields = strings.Join(q.fields, ",")
	}
	fmt.Fprintf(&b, "fields %s;\n", fields)
	if len(q.where) > 0 {
		fmt.Fprintf(&b, "where %s;\n", strings.Join(q.where, " & "))
	}
	if q.sort != "" {
		fmt.Fprintf(&b, "sort %s;\n", q.sort)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, "limit %d;\n", q.limit)
	}
	return b.String()
}
