package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ypbank/internal/buildinfo"
	"github.com/cleared-dev/ypbank/internal/codec"
	"github.com/cleared-dev/ypbank/internal/config"
	"github.com/cleared-dev/ypbank/internal/logging"
	"github.com/cleared-dev/ypbank/internal/model"
)

// ErrDifferent is returned by the compare command when the inputs hold
// different transactions. It maps to exit status 1.
var ErrDifferent = errors.New("transaction records differ")

// Exit statuses returned by ExitCode.
const (
	ExitOK        = 0
	ExitDifferent = 1
	ExitError     = 2
)

// ExitCode maps the error returned by a command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrDifferent):
		return ExitDifferent
	default:
		return ExitError
	}
}

// Option customizes a command, mainly for tests.
type Option func(*env)

// WithLogger replaces the logger that would otherwise be built from config.
func WithLogger(l *zap.Logger) Option {
	return func(e *env) { e.logger = l }
}

// env is the state shared by a command's flags and its RunE.
type env struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newEnv(opts []Option) *env {
	e := &env{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newRootCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newInitCommand())
	return cmd
}

func (e *env) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.configPath, "config", "", "path to ypbank.yaml (optional)")
	cmd.Flags().StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// setup loads configuration and builds the logger. Flags win over config.
func (e *env) setup() error {
	cfg, err := config.LoadOptional(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg

	if e.logger == nil {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		e.logger = logger
	}
	return nil
}

func (e *env) sync() {
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// resolveFormat returns the flag value when set, else the configured
// fallback.
func resolveFormat(cmd *cobra.Command, flag string, value codec.Format, fallback string) (codec.Format, error) {
	if cmd.Flags().Changed(flag) {
		return value, nil
	}
	if fallback == "" {
		return 0, fmt.Errorf("--%s is required", flag)
	}
	return codec.ParseFormat(fallback)
}

// decodeFile decodes path, or stdin when path is "-".
func (e *env) decodeFile(cmd *cobra.Command, path string, format codec.Format, opts ...codec.Option) (model.Batch, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return model.Batch{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	batch, err := codec.Decode(r, format, opts...)
	if err != nil {
		e.logger.Error("decode failed", zap.String("path", path), zap.Stringer("format", format), zap.Error(err))
		return model.Batch{}, fmt.Errorf("reading %s: %w", path, err)
	}
	e.logger.Debug("decoded batch",
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("transactions", len(batch.Transactions)),
	)
	return batch, nil
}
