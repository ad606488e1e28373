package repository

import (
	"strings"

	"github.com/rongwang/condo-ledger/internal/filter"
)

// predicate is one conjunct of a WHERE clause with its bind arguments
type predicate struct {
	clause string
	args   []any
}

// whereBuilder accumulates predicates that are ANDed together
type whereBuilder struct {
	preds []predicate
}

func (w *whereBuilder) add(clause string, args ...any) {
	w.preds = append(w.preds, predicate{clause: clause, args: args})
}

// build renders " WHERE a AND b" (or "" when empty) and the flattened args
func (w *whereBuilder) build() (string, []any) {
	if len(w.preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(w.preds))
	var args []any
	for _, p := range w.preds {
		clauses = append(clauses, p.clause)
		args = append(args, p.args...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// searchColumns are matched by the free-text search
var searchColumns = []string{"t.description", "t.bank_description", "t.reference", "t.serial"}

// transactionPredicates turns a normalized filter into predicates over the
// transactions table aliased as t. Duplicates are always excluded.
func transactionPredicates(f filter.TransactionFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("t.is_duplicate = ?", false)

	if f.NoOwner {
		w.add("t.owner_id IS NULL")
	} else if f.OwnerID != "" {
		w.add("t.owner_id = ?", f.OwnerID)
	}

	if f.Type != "" {
		w.add("t.type = ?", string(f.Type))
	}

	start, end := f.DateBounds()
	if start != nil {
		w.add("t.date >= ?", *start)
	}
	if end != nil {
		w.add("t.date <= ?", *end)
	}

	if f.Search != "" {
		like := likePattern(f.Search)
		ors := make([]string, 0, len(searchColumns))
		args := make([]any, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, "LOWER("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, like)
		}
		w.add("("+strings.Join(ors, " OR ")+")", args...)
	}

	if f.NoTags {
		w.add("NOT EXISTS (SELECT 1 FROM transaction_to_tags tt WHERE tt.transaction_id = t.id)")
	} else if f.TagID != "" {
		w.add("t.id IN (SELECT tt.transaction_id FROM transaction_to_tags tt WHERE tt.tag_id = ?)", f.TagID)
	}

	return w
}

// countTransactionsQuery returns the total-count query for a filter
func countTransactionsQuery(f filter.TransactionFilter) (string, []any) {
	where, args := transactionPredicates(f).build()
	return "SELECT COUNT(*) FROM transactions t" + where, args
}

// listTransactionsQuery returns the page query for a filter; limit <= 0 means no limit
func listTransactionsQuery(f filter.TransactionFilter, limit, offset int) (string, []any) {
	where, args := transactionPredicates(f).build()
	query := "SELECT t.* FROM transactions t" + where + " ORDER BY t.date DESC, t.id DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return query, args
}

// sumTransactionsQuery totals the filtered amounts per transaction type
func sumTransactionsQuery(f filter.TransactionFilter) (string, []any) {
	where, args := transactionPredicates(f).build()
	return "SELECT t.type AS type, COALESCE(SUM(t.amount), 0) AS total FROM transactions t" + where + " GROUP BY t.type", args
}

// likePattern lower-cases term, escapes LIKE wildcards and wraps it in %
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
