package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ypbank/internal/codec"
	"github.com/cleared-dev/ypbank/internal/compare"
)

// NewCompareCommand creates the ypcompare command. It returns ErrDifferent
// after printing the report when the files differ.
func NewCompareCommand(opts ...Option) *cobra.Command {
	e := newEnv(opts)
	var (
		file1, file2     string
		format1, format2 codec.Format
	)

	cmd := newRootCommand("ypcompare", "Compare the transactions of two YPBank files")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := e.setup(); err != nil {
			return err
		}
		defer e.sync()

		f1, err := resolveFormat(cmd, "format1", format1, e.cfg.Formats.Input)
		if err != nil {
			return err
		}
		f2, err := resolveFormat(cmd, "format2", format2, e.cfg.Formats.Input)
		if err != nil {
			return err
		}

		left, err := e.decodeFile(cmd, file1, f1)
		if err != nil {
			return err
		}
		right, err := e.decodeFile(cmd, file2, f2)
		if err != nil {
			return err
		}

		report := compare.Batches(left, right)
		if err := report.Print(cmd.OutOrStdout(), file1, file2); err != nil {
			return err
		}
		e.logger.Debug("compared batches",
			zap.Bool("identical", report.Identical()),
			zap.Int("left", report.LeftCount),
			zap.Int("right", report.RightCount),
			zap.Int("differing", len(report.Diffs)),
		)
		if !report.Identical() {
			return ErrDifferent
		}
		return nil
	}

	cmd.Flags().StringVar(&file1, "file1", "", "first file path (required)")
	cmd.Flags().Var(&format1, "format1", "first file format: csv, text or binary")
	cmd.Flags().StringVar(&file2, "file2", "", "second file path (required)")
	cmd.Flags().Var(&format2, "format2", "second file format: csv, text or binary")
	_ = cmd.MarkFlagRequired("file1")
	_ = cmd.MarkFlagRequired("file2")
	e.bindFlags(cmd)

	return cmd
}
