// Package compare reports field-level differences between two batches.
package compare

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/ypbank/internal/model"
)

// FieldDiff is one mismatched field, rendered for display.
type FieldDiff struct {
	Field string
	Left  string
	Right string
}

// TransactionDiff lists the mismatched fields of the transactions at the
// same position in both batches. Index is 1-based.
type TransactionDiff struct {
	Index  int
	ID     string
	Fields []FieldDiff
}

// Report is the outcome of comparing two batches. Batch account ids are
// not compared, only transactions.
type Report struct {
	LeftCount  int
	RightCount int
	Diffs      []TransactionDiff
}

// Identical reports whether both batches hold equal transactions in the
// same order.
func (r Report) Identical() bool {
	return r.LeftCount == r.RightCount && len(r.Diffs) == 0
}

// CountMismatch reports whether the batches differ in length. Per-field
// diffs are not computed in that case.
func (r Report) CountMismatch() bool {
	return r.LeftCount != r.RightCount
}

// Batches compares left and right position by position.
func Batches(left, right model.Batch) Report {
	r := Report{
		LeftCount:  len(left.Transactions),
		RightCount: len(right.Transactions),
	}
	if r.CountMismatch() {
		return r
	}
	for i := range left.Transactions {
		a, b := left.Transactions[i], right.Transactions[i]
		if a.Equal(b) {
			continue
		}
		r.Diffs = append(r.Diffs, TransactionDiff{
			Index:  i + 1,
			ID:     a.ID,
			Fields: Transactions(a, b),
		})
	}
	return r
}

// Transactions returns the fields where a and b differ, in record order.
func Transactions(a, b model.Transaction) []FieldDiff {
	var diffs []FieldDiff
	add := func(field, left, right string) {
		diffs = append(diffs, FieldDiff{Field: field, Left: left, Right: right})
	}

	if a.ID != b.ID {
		add("ID", quote(a.ID), quote(b.ID))
	}
	if !model.SameDate(a.PostedAt, b.PostedAt) {
		add("Posted Date", model.FormatDate(a.PostedAt), model.FormatDate(b.PostedAt))
	}
	if !model.EqualTime(a.ExecutedAt, b.ExecutedAt) {
		add("Executed Date", timeOrNone(a.ExecutedAt), timeOrNone(b.ExecutedAt))
	}
	if a.Kind != b.Kind {
		add("Kind", a.Kind.String(), b.Kind.String())
	}
	if !a.Amount.Equal(b.Amount) {
		add("Amount", money(a.Amount), money(b.Amount))
	}
	if a.Description != b.Description {
		add("Description", quote(a.Description), quote(b.Description))
	}
	if !model.EqualString(a.Account, b.Account) {
		add("Account", optional(a.Account), optional(b.Account))
	}
	if !model.EqualString(a.Counterparty, b.Counterparty) {
		add("Counterparty", optional(a.Counterparty), optional(b.Counterparty))
	}
	if !model.EqualString(a.Category, b.Category) {
		add("Category", optional(a.Category), optional(b.Category))
	}
	return diffs
}

// Print writes the human-readable report, naming the inputs leftName and
// rightName.
func (r Report) Print(w io.Writer, leftName, rightName string) error {
	bw := bufio.NewWriter(w)

	switch {
	case r.CountMismatch():
		fmt.Fprintf(bw, "The files have different number of transactions: %d vs %d\n", r.LeftCount, r.RightCount)
	case r.Identical():
		fmt.Fprintf(bw, "The transaction records in '%s' and '%s' are identical.\n", leftName, rightName)
	default:
		fmt.Fprintf(bw, "The transaction records in '%s' and '%s' differ:\n", leftName, rightName)
		for _, d := range r.Diffs {
			fmt.Fprintf(bw, "\nTransaction #%d (ID: %s):\n", d.Index, d.ID)
			for _, f := range d.Fields {
				fmt.Fprintf(bw, "  %s: %s vs %s\n", f.Field, f.Left, f.Right)
			}
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return "'" + s + "'"
}

func optional(s *string) string {
	if s == nil {
		return "(none)"
	}
	return quote(*s)
}

func timeOrNone(t *time.Time) string {
	if t == nil {
		return "(none)"
	}
	return model.FormatDateTime(*t)
}

func money(m model.Money) string {
	return model.FormatAmount(m.Amount) + " " + m.Currency
}
