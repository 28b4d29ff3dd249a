package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ypbank/internal/codec"
)

// NewConvertCommand creates the ypconvert command: decode one batch and
// re-encode it in another format.
func NewConvertCommand(opts ...Option) *cobra.Command {
	e := newEnv(opts)
	var (
		input        string
		output       string
		inputFormat  codec.Format
		outputFormat codec.Format
		strict       bool
	)

	cmd := newRootCommand("ypconvert", "Convert YPBank transaction files between csv, text and binary")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := e.setup(); err != nil {
			return err
		}
		defer e.sync()

		inFmt, err := resolveFormat(cmd, "input-format", inputFormat, e.cfg.Formats.Input)
		if err != nil {
			return err
		}
		outFmt, err := resolveFormat(cmd, "output-format", outputFormat, e.cfg.Formats.Output)
		if err != nil {
			return err
		}

		var decodeOpts []codec.Option
		if strict || e.cfg.Text.Strict {
			decodeOpts = append(decodeOpts, codec.WithStrict())
		}
		batch, err := e.decodeFile(cmd, input, inFmt, decodeOpts...)
		if err != nil {
			return err
		}

		if err := writeOutput(cmd, output, func(w io.Writer) error {
			return codec.Encode(w, batch, outFmt)
		}); err != nil {
			return err
		}
		e.logger.Info("converted batch",
			zap.Stringer("from", inFmt),
			zap.Stringer("to", outFmt),
			zap.Int("transactions", len(batch.Transactions)),
		)
		return nil
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", `input file, or "-" for stdin (required)`)
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().Var(&inputFormat, "input-format", "input format: csv, text or binary")
	cmd.Flags().Var(&outputFormat, "output-format", "output format: csv, text or binary")
	cmd.Flags().StringVarP(&output, "output", "o", "-", `output file, or "-" for stdout`)
	cmd.Flags().BoolVar(&strict, "strict", false, "reject text records missing Date, Type or Amount")
	e.bindFlags(cmd)

	return cmd
}

// writeOutput runs encode against stdout or a freshly created file. A
// failed encode removes the partial file.
func writeOutput(cmd *cobra.Command, path string, encode func(io.Writer) error) error {
	if path == "" || path == "-" {
		return encode(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}
