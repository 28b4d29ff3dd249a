package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level ypbank.yaml configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Formats FormatsConfig `yaml:"formats"`
	Text    TextConfig    `yaml:"text"`
}

// LogConfig controls the CLI logger. Logs always go to stderr.
type LogConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Environment string `yaml:"environment" validate:"required,oneof=production development"`
	Encoding    string `yaml:"encoding" validate:"required,oneof=console json"`
}

// FormatsConfig holds the default formats used when flags omit them.
type FormatsConfig struct {
	Input  string `yaml:"input" validate:"omitempty,oneof=csv text txt binary bin"`
	Output string `yaml:"output" validate:"omitempty,oneof=csv text txt binary bin"`
}

// TextConfig tunes the key-value text decoder.
type TextConfig struct {
	Strict bool `yaml:"strict"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads a ypbank.yaml file from disk. Keys missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is Load, except that an empty path yields Default.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	var errs *multierror.Error
	for _, ve := range valErrs {
		field := strings.TrimPrefix(ve.Namespace(), "Config.")
		errs = multierror.Append(errs, fmt.Errorf("%s: must satisfy %s", field, strings.TrimSpace(ve.Tag()+" "+ve.Param())))
	}
	errs.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, e := range es {
			msgs[i] = e.Error()
		}
		return "invalid config: " + strings.Join(msgs, "; ")
	}
	return errs
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:       "info",
			Environment: "production",
			Encoding:    "console",
		},
	}
}
