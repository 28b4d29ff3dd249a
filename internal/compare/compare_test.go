package compare

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ypbank/internal/model"
)

func txn(id string) model.Transaction {
	executed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return model.Transaction{
		ID:          id,
		PostedAt:    model.Date(2024, 1, 15),
		ExecutedAt:  &executed,
		Kind:        model.KindCredit,
		Amount:      model.Money{Amount: decimal.RequireFromString("1000.50"), Currency: "USD"},
		Description: "Salary payment",
		Account:     model.Ptr("ACC123"),
	}
}

func batch(txns ...model.Transaction) model.Batch {
	return model.Batch{Transactions: txns}
}

func TestBatches_Identical(t *testing.T) {
	left := batch(txn("A"), txn("B"))
	right := batch(txn("A"), txn("B"))
	right.AccountID = model.Ptr("other")

	r := Batches(left, right)
	assert.True(t, r.Identical(), "account id is not compared")
	assert.False(t, r.CountMismatch())

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, "a.csv", "b.bin"))
	assert.Equal(t, "The transaction records in 'a.csv' and 'b.bin' are identical.\n", buf.String())
}

func TestBatches_AmountScaleIgnored(t *testing.T) {
	a := txn("A")
	b := txn("A")
	b.Amount.Amount = decimal.RequireFromString("1000.5")
	assert.True(t, Batches(batch(a), batch(b)).Identical())
}

func TestBatches_CountMismatch(t *testing.T) {
	r := Batches(batch(txn("A"), txn("B")), batch(txn("A")))
	assert.False(t, r.Identical())
	assert.True(t, r.CountMismatch())
	assert.Empty(t, r.Diffs)

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, "a", "b"))
	assert.Equal(t, "The files have different number of transactions: 2 vs 1\n", buf.String())
}

func TestTransactions_AllFields(t *testing.T) {
	a := txn("A")
	b := txn("B")
	b.PostedAt = model.Date(2024, 1, 16)
	b.ExecutedAt = nil
	b.Kind = model.KindDebit
	b.Amount = model.Money{Amount: decimal.RequireFromString("-3.00"), Currency: "EUR"}
	b.Description = "Other"
	b.Account = nil
	b.Counterparty = model.Ptr("")
	b.Category = model.Ptr("Food")

	want := []FieldDiff{
		{"ID", "'A'", "'B'"},
		{"Posted Date", "2024-01-15", "2024-01-16"},
		{"Executed Date", "2024-01-15 10:30:00", "(none)"},
		{"Kind", "Credit", "Debit"},
		{"Amount", "1000.50 USD", "-3.00 EUR"},
		{"Description", "'Salary payment'", "'Other'"},
		{"Account", "'ACC123'", "(none)"},
		{"Counterparty", "(none)", "''"},
		{"Category", "(none)", "'Food'"},
	}
	if diff := cmp.Diff(want, Transactions(a, b)); diff != "" {
		t.Errorf("field diffs mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Transactions(a, a))
}

func TestReport_PrintDiffs(t *testing.T) {
	second := txn("B")
	second.Kind = model.KindDebit
	second.Category = model.Ptr("Food")

	r := Batches(batch(txn("A"), txn("B")), batch(txn("A"), second))
	require.Len(t, r.Diffs, 1)
	assert.Equal(t, 2, r.Diffs[0].Index)
	assert.Equal(t, "B", r.Diffs[0].ID)

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, "left.txt", "right.csv"))
	want := "The transaction records in 'left.txt' and 'right.csv' differ:\n" +
		"\n" +
		"Transaction #2 (ID: B):\n" +
		"  Kind: Credit vs Debit\n" +
		"  Category: (none) vs 'Food'\n"
	assert.Equal(t, want, buf.String())
}
