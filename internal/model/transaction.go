package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a transaction.
type Kind uint8

const (
	KindDebit  Kind = 0 // outgoing
	KindCredit Kind = 1 // incoming
)

// String returns "Debit" or "Credit".
func (k Kind) String() string {
	switch k {
	case KindDebit:
		return "Debit"
	case KindCredit:
		return "Credit"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k == KindDebit || k == KindCredit
}

// ParseKind converts the literal "Debit" or "Credit" (case-sensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Debit":
		return KindDebit, nil
	case "Credit":
		return KindCredit, nil
	default:
		return 0, fmt.Errorf("unknown transaction type %q", s)
	}
}

// Money is an exact decimal amount in a currency. Currency is not validated.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Equal compares amounts by value and currencies byte-wise.
func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount) && m.Currency == o.Currency
}

// Transaction is a single posted bank operation.
type Transaction struct {
	ID           string
	PostedAt     time.Time  // calendar date, midnight UTC
	ExecutedAt   *time.Time // wall-clock time, UTC, whole seconds
	Kind         Kind
	Amount       Money
	Description  string
	Account      *string
	Counterparty *string
	Category     *string
}

// Equal reports whether every field of t matches o.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		SameDate(t.PostedAt, o.PostedAt) &&
		EqualTime(t.ExecutedAt, o.ExecutedAt) &&
		t.Kind == o.Kind &&
		t.Amount.Equal(o.Amount) &&
		t.Description == o.Description &&
		EqualString(t.Account, o.Account) &&
		EqualString(t.Counterparty, o.Counterparty) &&
		EqualString(t.Category, o.Category)
}

// Batch is an ordered list of transactions, optionally tied to one account.
type Batch struct {
	AccountID    *string
	Transactions []Transaction
}

// Equal reports whether both batches carry the same account and the same
// transactions in the same order.
func (b Batch) Equal(o Batch) bool {
	if !EqualString(b.AccountID, o.AccountID) || len(b.Transactions) != len(o.Transactions) {
		return false
	}
	for i := range b.Transactions {
		if !b.Transactions[i].Equal(o.Transactions[i]) {
			return false
		}
	}
	return true
}

// Ptr returns a pointer to s, for populating optional fields.
func Ptr(s string) *string {
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// EqualString treats two nil pointers as equal and compares values otherwise.
func EqualString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EqualTime is EqualString for optional timestamps.
func EqualTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
