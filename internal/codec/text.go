package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"

	"github.com/cleared-dev/ypbank/internal/model"
)

const (
	textFormat    = "Text"
	textSeparator = "---"
	maxTextLine   = 16 << 20

	keyID           = "ID"
	keyDate         = "Date"
	keyExecutedDate = "ExecutedDate"
	keyType         = "Type"
	keyAmount       = "Amount"
	keyDescription  = "Description"
	keyAccount      = "Account"
	keyCounterparty = "Counterparty"
	keyCategory     = "Category"
)

// ReadText decodes the key-value text format. Records start at an "ID:"
// line and end at a blank line, a "---" line, the next "ID:" line or end
// of input. Unknown keys are ignored.
func ReadText(r io.Reader) (model.Batch, error) {
	return readText(r, false)
}

func readText(r io.Reader, strict bool) (model.Batch, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTextLine)

	d := newTextDecoder(strict)
	n := 0
	for sc.Scan() {
		n++
		if err := d.feed(n, sc.Text()); err != nil {
			return model.Batch{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return model.Batch{}, readErr(err)
	}
	return d.finish()
}

// textState is the decoder position between records.
type textState int

const (
	// stateIdle: no record open; field lines are ignored.
	stateIdle textState = iota
	// stateBuilding: an "ID:" line opened a record that has not been flushed.
	stateBuilding
)

// textDecoder accumulates records one line at a time.
type textDecoder struct {
	strict bool
	state  textState
	batch  model.Batch

	current model.Transaction
	start   int             // line of the current record's ID
	seen    map[string]bool // required keys set on the current record
}

func newTextDecoder(strict bool) *textDecoder {
	return &textDecoder{strict: strict}
}

// feed consumes source line n (1-based).
func (d *textDecoder) feed(n int, raw string) error {
	line := strings.TrimSpace(raw)

	if line == "" || line == textSeparator {
		return d.flush()
	}

	key, value, ok := splitKeyValue(line)
	if !ok {
		return nil
	}

	if n == 1 && key == keyAccount {
		d.batch.AccountID = model.Ptr(value)
		return nil
	}

	if key == keyID {
		if err := d.flush(); err != nil {
			return err
		}
		d.begin(n, value)
		return nil
	}

	if d.state != stateBuilding {
		return nil
	}
	return d.set(n, key, value)
}

// begin opens a record with default field values.
func (d *textDecoder) begin(n int, id string) {
	d.state = stateBuilding
	d.start = n
	d.seen = make(map[string]bool, 3)
	d.current = model.Transaction{
		ID:       id,
		PostedAt: model.Date(1970, 1, 1),
		Kind:     model.KindDebit,
	}
}

// flush appends the open record, if any, and returns to idle.
func (d *textDecoder) flush() error {
	if d.state != stateBuilding {
		return nil
	}
	if d.strict {
		if err := d.checkRequired(); err != nil {
			return err
		}
	}
	d.batch.Transactions = append(d.batch.Transactions, d.current)
	d.current = model.Transaction{}
	d.state = stateIdle
	return nil
}

// finish flushes the trailing record and returns the batch.
func (d *textDecoder) finish() (model.Batch, error) {
	if err := d.flush(); err != nil {
		return model.Batch{}, err
	}
	return d.batch, nil
}

func (d *textDecoder) set(n int, key, value string) error {
	txn := &d.current
	switch key {
	case keyDate:
		posted, err := model.ParseDate(value)
		if err != nil {
			return parseErr(textFormat, n, "invalid date", err)
		}
		txn.PostedAt = posted
	case keyExecutedDate:
		executed, err := model.ParseDateTime(value)
		if err != nil {
			return parseErr(textFormat, n, "invalid executed date", err)
		}
		txn.ExecutedAt = &executed
	case keyType:
		kind, err := model.ParseKind(value)
		if err != nil {
			return parseErr(textFormat, n, fmt.Sprintf("invalid type: %s", value), nil)
		}
		txn.Kind = kind
	case keyAmount:
		parts := strings.Fields(value)
		if len(parts) != 2 {
			return parseErr(textFormat, n, "invalid amount format", nil)
		}
		amount, err := model.ParseAmount(parts[0])
		if err != nil {
			return parseErr(textFormat, n, "invalid amount", err)
		}
		txn.Amount = model.Money{Amount: amount, Currency: parts[1]}
	case keyDescription:
		txn.Description = value
	case keyAccount:
		txn.Account = model.Ptr(value)
	case keyCounterparty:
		txn.Counterparty = model.Ptr(value)
	case keyCategory:
		txn.Category = model.Ptr(value)
	default:
		return nil
	}
	d.seen[key] = true
	return nil
}

// checkRequired reports every required key the open record lacks.
func (d *textDecoder) checkRequired() error {
	var errs *multierror.Error
	for _, key := range []string{keyDate, keyType, keyAmount} {
		if !d.seen[key] {
			errs = multierror.Append(errs, fmt.Errorf("missing %s", key))
		}
	}
	if errs == nil {
		return nil
	}
	errs.ErrorFormat = joinErrors
	return parseErr(textFormat, d.start, fmt.Sprintf("incomplete transaction %q", d.current.ID), errs)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, ", ")
}

func checkTextEncodable(txn model.Transaction) error {
	currency := txn.Amount.Currency
	if currency == "" || strings.ContainsFunc(currency, unicode.IsSpace) {
		return encodeErr(textFormat, txn.ID, fmt.Sprintf("currency %q must be a single non-empty token", currency))
	}
	values := []string{
		txn.ID,
		txn.Description,
		model.Deref(txn.Account),
		model.Deref(txn.Counterparty),
		model.Deref(txn.Category),
	}
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return encodeErr(textFormat, txn.ID, "value contains a line break")
		}
	}
	return nil
}

// splitKeyValue splits "Key: value" at the first colon.
func splitKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// WriteText encodes batch in the key-value text format, separating
// records with "---" lines. A currency that is not exactly one token, or
// a value with a line break, fails with an *EncodeError before anything
// is written: ReadText could not read it back.
func WriteText(w io.Writer, batch model.Batch) error {
	if batch.AccountID != nil && strings.ContainsAny(*batch.AccountID, "\r\n") {
		return encodeErr(textFormat, "", "account id contains a line break")
	}
	for _, txn := range batch.Transactions {
		if err := checkTextEncodable(txn); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)

	if batch.AccountID != nil {
		fmt.Fprintf(bw, "%s: %s\n\n", keyAccount, *batch.AccountID)
	}

	for i, txn := range batch.Transactions {
		if i > 0 {
			fmt.Fprintln(bw, textSeparator)
		}
		fmt.Fprintf(bw, "%s: %s\n", keyID, txn.ID)
		fmt.Fprintf(bw, "%s: %s\n", keyDate, model.FormatDate(txn.PostedAt))
		if txn.ExecutedAt != nil {
			fmt.Fprintf(bw, "%s: %s\n", keyExecutedDate, model.FormatDateTime(*txn.ExecutedAt))
		}
		fmt.Fprintf(bw, "%s: %s\n", keyType, txn.Kind)
		fmt.Fprintf(bw, "%s: %s %s\n", keyAmount, model.FormatAmount(txn.Amount.Amount), txn.Amount.Currency)
		fmt.Fprintf(bw, "%s: %s\n", keyDescription, txn.Description)
		if txn.Account != nil {
			fmt.Fprintf(bw, "%s: %s\n", keyAccount, *txn.Account)
		}
		if txn.Counterparty != nil {
			fmt.Fprintf(bw, "%s: %s\n", keyCounterparty, *txn.Counterparty)
		}
		if txn.Category != nil {
			fmt.Fprintf(bw, "%s: %s\n", keyCategory, *txn.Category)
		}
	}

	// bufio.Writer keeps the first write error; Flush reports it.
	if err := bw.Flush(); err != nil {
		return writeErr(err)
	}
	return nil
}
