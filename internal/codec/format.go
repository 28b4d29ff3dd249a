package codec

import (
	"io"
	"strings"

	"github.com/cleared-dev/ypbank/internal/model"
)

// Format selects one of the supported wire formats.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatText
	FormatBinary
)

// Format tag names accepted by ParseFormat, including aliases.
var formatNames = map[string]Format{
	"csv":    FormatCSV,
	"text":   FormatText,
	"txt":    FormatText,
	"binary": FormatBinary,
	"bin":    FormatBinary,
}

// ParseFormat resolves a case-insensitive format tag.
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &UnsupportedFormatError{Name: name}
	}
	return f, nil
}

// String returns the canonical lowercase tag.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Set implements pflag.Value so a Format can be bound directly to a flag.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// Option adjusts decoding behavior.
type Option func(*options)

type options struct {
	strict bool
}

// WithStrict makes the text decoder reject records that omit Date, Type
// or Amount instead of filling in defaults. Other formats ignore it.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// Decode reads a whole batch in format f from r.
func Decode(r io.Reader, f Format, opts ...Option) (model.Batch, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatText:
		return readText(r, o.strict)
	case FormatBinary:
		return ReadBinary(r)
	default:
		return model.Batch{}, &UnsupportedFormatError{Name: f.String()}
	}
}

// Encode writes batch to w in format f.
func Encode(w io.Writer, batch model.Batch, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, batch)
	case FormatText:
		return WriteText(w, batch)
	case FormatBinary:
		return WriteBinary(w, batch)
	default:
		return &UnsupportedFormatError{Name: f.String()}
	}
}
