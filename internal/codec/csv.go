package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/ypbank/internal/model"
)

// CSVHeader is the header line written before the records.
const CSVHeader = "TransactionId,PostedDate,ExecutedDate,Type,Amount,Currency,Description,Account,Counterparty,Category"

const (
	csvFormat        = "CSV"
	csvHeaderPrefix  = "TransactionId"
	csvNumFields     = 10
	csvMinFields     = 7
	colID            = 0
	colPosted        = 1
	colExecuted      = 2
	colType          = 3
	colAmount        = 4
	colCurrency      = 5
	colDescription   = 6
	colAccount       = 7
	colCounterparty  = 8
	colCategory      = 9
	csvSpecialChars  = ",\"\r\n"
	csvQuote         = `"`
	csvEscapedQuote  = `""`
	csvRecordDivider = ","
)

// ReadCSV decodes a CSV batch. The first line must be a header starting
// with TransactionId; the rest of the header is not checked. Blank lines
// between records are skipped. Decoding stops at the first malformed
// record, including a bare quote inside an unquoted field.
func ReadCSV(r io.Reader) (model.Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Batch{}, nil
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return model.Batch{}, parseErr(csvFormat, 1, "invalid header", err)
		}
		return model.Batch{}, readErr(err)
	}
	// encoding/csv skips empty lines, so check the header really is line 1.
	if line, _ := cr.FieldPos(0); line != 1 {
		return model.Batch{}, parseErr(csvFormat, 1, "invalid header: first line is empty", nil)
	}
	if !strings.HasPrefix(header[0], csvHeaderPrefix) {
		return model.Batch{}, parseErr(csvFormat, 1, fmt.Sprintf("invalid header: %s", strings.Join(header, ",")), nil)
	}

	var batch model.Batch
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return model.Batch{}, parseErr(csvFormat, pe.StartLine, "malformed record", pe.Err)
			}
			return model.Batch{}, readErr(err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		line, _ := cr.FieldPos(0)
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			var fe *fieldError
			if errors.As(err, &fe) {
				return model.Batch{}, parseErr(csvFormat, line, fe.msg, fe.err)
			}
			return model.Batch{}, parseErr(csvFormat, line, err.Error(), nil)
		}
		batch.Transactions = append(batch.Transactions, txn)
	}
	return batch, nil
}

// WriteCSV writes the header followed by one line per transaction.
// The batch account id has no CSV representation and is dropped.
func WriteCSV(w io.Writer, batch model.Batch) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return writeErr(err)
	}
	for _, txn := range batch.Transactions {
		row := MarshalTransaction(txn)
		for i := range row {
			row[i] = escapeCSV(row[i])
		}
		if _, err := bw.WriteString(strings.Join(row, csvRecordDivider) + "\n"); err != nil {
			return writeErr(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return writeErr(err)
	}
	return nil
}

// MarshalTransaction converts a Transaction to unescaped CSV fields.
// Absent optional values become empty strings.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, csvNumFields)
	row[colID] = txn.ID
	row[colPosted] = model.FormatDate(txn.PostedAt)
	if txn.ExecutedAt != nil {
		row[colExecuted] = model.FormatDateTime(*txn.ExecutedAt)
	}
	row[colType] = txn.Kind.String()
	row[colAmount] = model.FormatAmount(txn.Amount.Amount)
	row[colCurrency] = txn.Amount.Currency
	row[colDescription] = txn.Description
	row[colAccount] = model.Deref(txn.Account)
	row[colCounterparty] = model.Deref(txn.Counterparty)
	row[colCategory] = model.Deref(txn.Category)
	return row
}

// fieldError carries a short message plus the parser failure behind it.
type fieldError struct {
	msg string
	err error
}

func (e *fieldError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *fieldError) Unwrap() error { return e.err }

// UnmarshalTransaction converts unescaped CSV fields to a Transaction.
// Fields beyond Description are optional; empty means absent.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) < csvMinFields {
		return model.Transaction{}, &fieldError{
			msg: fmt.Sprintf("insufficient fields (expected at least %d, got %d)", csvMinFields, len(record)),
		}
	}
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(i int) *string {
		if v := field(i); v != "" {
			return model.Ptr(v)
		}
		return nil
	}

	posted, err := model.ParseDate(field(colPosted))
	if err != nil {
		return model.Transaction{}, &fieldError{msg: "invalid posted date", err: err}
	}

	var executed *time.Time
	if s := field(colExecuted); s != "" {
		ts, err := model.ParseDateTime(s)
		if err != nil {
			return model.Transaction{}, &fieldError{msg: "invalid executed date", err: err}
		}
		executed = &ts
	}

	kind, err := model.ParseKind(field(colType))
	if err != nil {
		return model.Transaction{}, &fieldError{msg: "invalid transaction type", err: err}
	}

	amount, err := model.ParseAmount(field(colAmount))
	if err != nil {
		return model.Transaction{}, &fieldError{msg: "invalid amount", err: err}
	}

	return model.Transaction{
		ID:           field(colID),
		PostedAt:     posted,
		ExecutedAt:   executed,
		Kind:         kind,
		Amount:       model.Money{Amount: amount, Currency: field(colCurrency)},
		Description:  field(colDescription),
		Account:      optional(colAccount),
		Counterparty: optional(colCounterparty),
		Category:     optional(colCategory),
	}, nil
}

// escapeCSV quotes s only when it contains a delimiter, quote or line break.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, csvSpecialChars) {
		return s
	}
	return csvQuote + strings.ReplaceAll(s, csvQuote, csvEscapedQuote) + csvQuote
}
