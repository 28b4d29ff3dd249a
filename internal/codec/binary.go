package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/cleared-dev/ypbank/internal/model"
)

const (
	binaryFormat = "Binary"

	// BinaryMagic opens every binary stream ("FBPY" on the wire).
	BinaryMagic uint32 = 0x59504246
	// BinaryVersion is the only layout version this package reads or writes.
	BinaryVersion uint8 = 1

	kindDebitByte  = 0
	kindCreditByte = 1

	// Count hint cap; the slice still grows to the declared count.
	maxPrealloc = 1024
)

// Representable range of dates and execution timestamps.
var (
	minExecutedUnix = time.Date(model.MinYear, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxExecutedUnix = time.Date(model.MaxYear, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
	maxPostedDays   = model.DaysFromCE(model.Date(model.MaxYear, 12, 31))
)

// ReadBinary decodes a binary batch. The magic number and version are
// checked before anything else.
func ReadBinary(r io.Reader) (model.Batch, error) {
	br := &binaryReader{r: bufio.NewReader(r)}

	magic, err := br.u32()
	if err != nil {
		return model.Batch{}, err
	}
	if magic != BinaryMagic {
		return model.Batch{}, parseErr(binaryFormat, 0, "invalid magic number", nil)
	}
	version, err := br.u8()
	if err != nil {
		return model.Batch{}, err
	}
	if version != BinaryVersion {
		return model.Batch{}, parseErr(binaryFormat, 0, fmt.Sprintf("unsupported version: %d", version), nil)
	}

	accountID, err := br.optionalString()
	if err != nil {
		return model.Batch{}, err
	}
	count, err := br.u32()
	if err != nil {
		return model.Batch{}, err
	}

	batch := model.Batch{
		AccountID:    accountID,
		Transactions: make([]model.Transaction, 0, min(int(count), maxPrealloc)),
	}
	for i := uint32(0); i < count; i++ {
		txn, err := br.transaction()
		if err != nil {
			return model.Batch{}, err
		}
		batch.Transactions = append(batch.Transactions, txn)
	}
	return batch, nil
}

// WriteBinary encodes batch with the current magic number and version.
// Dates outside years 1 through 9999 fail with an *EncodeError before
// any byte is written.
func WriteBinary(w io.Writer, batch model.Batch) error {
	for _, txn := range batch.Transactions {
		if err := checkBinaryRange(txn); err != nil {
			return err
		}
	}

	bw := &binaryWriter{w: bufio.NewWriter(w)}

	bw.u32(BinaryMagic)
	bw.u8(BinaryVersion)
	bw.optionalString(batch.AccountID)
	bw.u32(uint32(len(batch.Transactions)))
	for _, txn := range batch.Transactions {
		bw.transaction(txn)
	}

	if err := bw.w.Flush(); err != nil {
		return writeErr(err)
	}
	return nil
}

func checkBinaryRange(txn model.Transaction) error {
	if days := model.DaysFromCE(txn.PostedAt); days < 1 || days > maxPostedDays {
		return encodeErr(binaryFormat, txn.ID, fmt.Sprintf("posted date %s out of range", model.FormatDate(txn.PostedAt)))
	}
	if txn.ExecutedAt != nil {
		if secs := txn.ExecutedAt.Unix(); secs < minExecutedUnix || secs > maxExecutedUnix {
			return encodeErr(binaryFormat, txn.ID, fmt.Sprintf("executed timestamp %s out of range", model.FormatDateTime(*txn.ExecutedAt)))
		}
	}
	return nil
}

type binaryReader struct {
	r *bufio.Reader
}

func (br *binaryReader) transaction() (model.Transaction, error) {
	var txn model.Transaction
	var err error

	if txn.ID, err = br.str(); err != nil {
		return txn, err
	}

	days, err := br.u32()
	if err != nil {
		return txn, err
	}
	if days == 0 || int64(days) > maxPostedDays {
		return txn, parseErr(binaryFormat, 0, fmt.Sprintf("invalid posted date: day %d", days), nil)
	}
	txn.PostedAt = model.DateFromDaysCE(int64(days))

	hasExecuted, err := br.u8()
	if err != nil {
		return txn, err
	}
	if hasExecuted != 0 {
		secs, err := br.i64()
		if err != nil {
			return txn, err
		}
		if secs < minExecutedUnix || secs > maxExecutedUnix {
			return txn, parseErr(binaryFormat, 0, fmt.Sprintf("invalid executed timestamp: %d", secs), nil)
		}
		executed := time.Unix(secs, 0).UTC()
		txn.ExecutedAt = &executed
	}

	kind, err := br.u8()
	if err != nil {
		return txn, err
	}
	switch kind {
	case kindDebitByte:
		txn.Kind = model.KindDebit
	case kindCreditByte:
		txn.Kind = model.KindCredit
	default:
		return txn, parseErr(binaryFormat, 0, fmt.Sprintf("invalid kind: %d", kind), nil)
	}

	amountText, err := br.str()
	if err != nil {
		return txn, err
	}
	if txn.Amount.Amount, err = model.ParseAmount(amountText); err != nil {
		return txn, parseErr(binaryFormat, 0, "invalid amount", err)
	}
	if txn.Amount.Currency, err = br.str(); err != nil {
		return txn, err
	}
	if txn.Description, err = br.str(); err != nil {
		return txn, err
	}
	if txn.Account, err = br.optionalString(); err != nil {
		return txn, err
	}
	if txn.Counterparty, err = br.optionalString(); err != nil {
		return txn, err
	}
	if txn.Category, err = br.optionalString(); err != nil {
		return txn, err
	}
	return txn, nil
}

func (br *binaryReader) full(p []byte) error {
	if _, err := io.ReadFull(br.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return parseErr(binaryFormat, 0, "unexpected end of input", nil)
		}
		return readErr(err)
	}
	return nil
}

func (br *binaryReader) u8() (uint8, error) {
	var b [1]byte
	if err := br.full(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br *binaryReader) u32() (uint32, error) {
	var b [4]byte
	if err := br.full(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (br *binaryReader) i64() (int64, error) {
	var b [8]byte
	if err := br.full(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// str reads a u32 length and that many UTF-8 bytes. The buffer grows
// with the bytes actually present, so a corrupt length cannot force a
// huge allocation.
func (br *binaryReader) str() (string, error) {
	n, err := br.u32()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, br.r, int64(n))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", readErr(err)
	}
	if copied < int64(n) {
		return "", parseErr(binaryFormat, 0, fmt.Sprintf("string length %d exceeds remaining input", n), nil)
	}
	if !utf8.Valid(buf.Bytes()) {
		return "", parseErr(binaryFormat, 0, "invalid UTF-8 in string", nil)
	}
	return buf.String(), nil
}

func (br *binaryReader) optionalString() (*string, error) {
	present, err := br.u8()
	if err != nil || present == 0 {
		return nil, err
	}
	s, err := br.str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// binaryWriter relies on bufio.Writer keeping the first error; callers
// check it once at Flush.
type binaryWriter struct {
	w       *bufio.Writer
	scratch [8]byte
}

func (bw *binaryWriter) transaction(txn model.Transaction) {
	bw.str(txn.ID)
	bw.u32(uint32(model.DaysFromCE(txn.PostedAt)))
	if txn.ExecutedAt != nil {
		bw.u8(1)
		bw.i64(txn.ExecutedAt.Unix())
	} else {
		bw.u8(0)
	}
	if txn.Kind == model.KindCredit {
		bw.u8(kindCreditByte)
	} else {
		bw.u8(kindDebitByte)
	}
	bw.str(model.FormatAmount(txn.Amount.Amount))
	bw.str(txn.Amount.Currency)
	bw.str(txn.Description)
	bw.optionalString(txn.Account)
	bw.optionalString(txn.Counterparty)
	bw.optionalString(txn.Category)
}

func (bw *binaryWriter) u8(v uint8) {
	_ = bw.w.WriteByte(v)
}

func (bw *binaryWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(bw.scratch[:4], v)
	_, _ = bw.w.Write(bw.scratch[:4])
}

func (bw *binaryWriter) i64(v int64) {
	binary.LittleEndian.PutUint64(bw.scratch[:], uint64(v))
	_, _ = bw.w.Write(bw.scratch[:])
}

func (bw *binaryWriter) str(s string) {
	bw.u32(uint32(len(s)))
	_, _ = bw.w.WriteString(s)
}

func (bw *binaryWriter) optionalString(s *string) {
	if s == nil {
		bw.u8(0)
		return
	}
	bw.u8(1)
	bw.str(*s)
}
