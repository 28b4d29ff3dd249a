package codec

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ypbank/internal/model"
)

func TestReadText_Testdata(t *testing.T) {
	data, err := os.ReadFile("../../testdata/transactions.txt")
	require.NoError(t, err)

	batch, err := ReadText(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, batch.AccountID)
	assert.Equal(t, "ACC123", *batch.AccountID)
	require.Len(t, batch.Transactions, 4)

	first := batch.Transactions[0]
	assert.Equal(t, "TX001", first.ID)
	assert.Equal(t, model.KindCredit, first.Kind)
	assert.Equal(t, "1000.50", model.FormatAmount(first.Amount.Amount))
	assert.Equal(t, "Employer Inc", model.Deref(first.Counterparty))

	assert.Equal(t, `Corner "Fresh" Market`, model.Deref(batch.Transactions[1].Counterparty))
	assert.Nil(t, batch.Transactions[3].Account)

	// Re-encoding the fixture reproduces it.
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, batch))
	assert.Equal(t, string(data), buf.String())
}

func TestReadText_MatchesCSVFixture(t *testing.T) {
	txt, err := os.Open("../../testdata/transactions.txt")
	require.NoError(t, err)
	defer txt.Close()
	csvFile, err := os.Open("../../testdata/transactions.csv")
	require.NoError(t, err)
	defer csvFile.Close()

	fromText, err := ReadText(txt)
	require.NoError(t, err)
	fromCSV, err := ReadCSV(csvFile)
	require.NoError(t, err)

	assertBatch(t, fromCSV, fromText)
}

func TestReadText_ConsecutiveIDsFlush(t *testing.T) {
	input := "ID: A\nDate: 2024-01-01\nID: B\nDate: 2024-01-02\n"
	batch, err := ReadText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 2)
	assert.Equal(t, "A", batch.Transactions[0].ID)
	assert.Equal(t, "B", batch.Transactions[1].ID)
	assert.Equal(t, "2024-01-02", model.FormatDate(batch.Transactions[1].PostedAt))
	assert.Nil(t, batch.AccountID, "first line without Account: is a record line")
}

func TestReadText_Delimiters(t *testing.T) {
	inputs := map[string]string{
		"blank line": "ID: A\nType: Credit\n\nID: B\n",
		"separator":  "ID: A\nType: Credit\n---\nID: B\n",
		"indented":   "  ID: A\n  Type: Credit  \n   \n ID: B\n",
		"crlf":       "ID: A\r\nType: Credit\r\n---\r\nID: B\r\n",
	}
	for name, input := range inputs {
		batch, err := ReadText(strings.NewReader(input))
		require.NoError(t, err, name)
		require.Len(t, batch.Transactions, 2, name)
		assert.Equal(t, model.KindCredit, batch.Transactions[0].Kind, name)
		assert.Equal(t, model.KindDebit, batch.Transactions[1].Kind, "%s: default kind", name)
	}
}

func TestReadText_FieldsOutsideRecordIgnored(t *testing.T) {
	input := "Account: ACC\n\nDate: 2024-01-01\nType: Bogus\n---\nID: A\nUnknown: value\nno colon here\n"
	batch, err := ReadText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 1)
	assert.Equal(t, "A", batch.Transactions[0].ID)
}

func TestReadText_Defaults(t *testing.T) {
	batch, err := ReadText(strings.NewReader("ID: only-id\n"))
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 1)

	txn := batch.Transactions[0]
	assert.Equal(t, "1970-01-01", model.FormatDate(txn.PostedAt))
	assert.Equal(t, model.KindDebit, txn.Kind)
	assert.True(t, txn.Amount.Amount.IsZero())
	assert.Empty(t, txn.Amount.Currency)
	assert.Empty(t, txn.Description)
	assert.Nil(t, txn.ExecutedAt)
}

func TestReadText_DescriptionWithColon(t *testing.T) {
	batch, err := ReadText(strings.NewReader("ID: A\nDescription: Invoice: #42 paid\n"))
	require.NoError(t, err)
	assert.Equal(t, "Invoice: #42 paid", batch.Transactions[0].Description)
}

func TestReadText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
	}{
		{"bad date", "Date: 2024/01/01", "invalid date"},
		{"bad executed", "ExecutedDate: 2024-01-01", "invalid executed date"},
		{"bad type", "Type: debit", "invalid type: debit"},
		{"amount one token", "Amount: 10.00", "invalid amount format"},
		{"amount three tokens", "Amount: 10.00 USD extra", "invalid amount format"},
		{"amount not decimal", "Amount: ten USD", "invalid amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Account: X\n\nID: A\n" + tt.line + "\n"
			_, err := ReadText(strings.NewReader(input))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "Text", pe.Format)
			assert.Equal(t, 4, pe.Line)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadText_Empty(t *testing.T) {
	batch, err := ReadText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, batch.Transactions)
	assert.Nil(t, batch.AccountID)
}

func TestReadText_Strict(t *testing.T) {
	input := "ID: A\nDate: 2024-01-01\nType: Credit\nAmount: 1 USD\n---\nID: B\nDescription: no money\n"

	batch, err := Decode(strings.NewReader(input), FormatText)
	require.NoError(t, err, "permissive mode keeps defaults")
	require.Len(t, batch.Transactions, 2)

	_, err = Decode(strings.NewReader(input), FormatText, WithStrict())
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 6, pe.Line, "error points at the record's ID line")
	assert.Equal(t, `parse error in Text: line 6: incomplete transaction "B": missing Date, missing Type, missing Amount`, err.Error())
}

func TestTextDecoder_States(t *testing.T) {
	d := newTextDecoder(false)
	assert.Equal(t, stateIdle, d.state)

	require.NoError(t, d.feed(1, "Description: ignored while idle"))
	assert.Equal(t, stateIdle, d.state)

	require.NoError(t, d.feed(2, "ID: A"))
	assert.Equal(t, stateBuilding, d.state)
	assert.Empty(t, d.batch.Transactions)

	require.NoError(t, d.feed(3, "---"))
	assert.Equal(t, stateIdle, d.state)
	assert.Len(t, d.batch.Transactions, 1)

	// Flushing while idle is a no-op.
	require.NoError(t, d.feed(4, ""))
	assert.Len(t, d.batch.Transactions, 1)

	require.NoError(t, d.feed(5, "ID: B"))
	require.NoError(t, d.feed(6, "ID: C"))
	assert.Len(t, d.batch.Transactions, 2, "new ID flushes the open record")
	assert.Equal(t, stateBuilding, d.state)

	batch, err := d.finish()
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 3, "end of input flushes")
	assert.Equal(t, "C", batch.Transactions[2].ID)
}

func TestWriteText_Layout(t *testing.T) {
	batch := model.Batch{Transactions: []model.Transaction{
		{
			ID:          "A",
			PostedAt:    model.Date(2024, 2, 1),
			Kind:        model.KindDebit,
			Amount:      model.Money{Amount: dec("5.00"), Currency: "USD"},
			Description: "Coffee",
		},
		{
			ID:          "B",
			PostedAt:    model.Date(2024, 2, 2),
			ExecutedAt:  ts("2024-02-02 09:00:00"),
			Kind:        model.KindCredit,
			Amount:      model.Money{Amount: dec("100"), Currency: "EUR"},
			Description: "Refund",
			Category:    model.Ptr("Returns"),
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, batch))

	want := "ID: A\n" +
		"Date: 2024-02-01\n" +
		"Type: Debit\n" +
		"Amount: 5.00 USD\n" +
		"Description: Coffee\n" +
		"---\n" +
		"ID: B\n" +
		"Date: 2024-02-02\n" +
		"ExecutedDate: 2024-02-02 09:00:00\n" +
		"Type: Credit\n" +
		"Amount: 100 EUR\n" +
		"Description: Refund\n" +
		"Category: Returns\n"
	assert.Equal(t, want, buf.String())

	got, err := ReadText(&buf)
	require.NoError(t, err)
	assertBatch(t, batch, got)
}

func TestWriteText_Unencodable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Transaction)
		wantMsg string
	}{
		{"empty currency", func(txn *model.Transaction) { txn.Amount.Currency = "" }, `currency ""`},
		{"currency with space", func(txn *model.Transaction) { txn.Amount.Currency = "US D" }, `currency "US D"`},
		{"description with newline", func(txn *model.Transaction) { txn.Description = "two\nlines" }, "line break"},
		{"category with CR", func(txn *model.Transaction) { txn.Category = model.Ptr("a\rb") }, "line break"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := sampleBatch()
			tt.mutate(&batch.Transactions[1])

			var buf bytes.Buffer
			err := WriteText(&buf, batch)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnencodable)
			assert.Contains(t, err.Error(), `encode error in Text: transaction "TX002"`)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, buf.Len(), "nothing is written")
		})
	}
}

func TestWriteText_DefaultsDoNotReencode(t *testing.T) {
	batch, err := ReadText(strings.NewReader("ID: only-id\n"))
	require.NoError(t, err)

	err = WriteText(&bytes.Buffer{}, batch)
	assert.ErrorIs(t, err, ErrUnencodable, "default empty currency has no text form")
}
