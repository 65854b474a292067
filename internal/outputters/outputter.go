package outputters

import (
	"fmt"
	"io"

	"github.com/dotcommander/provscore/internal/config"
	"github.com/dotcommander/provscore/internal/output"
)

// FormatterFactory creates a formatter for a format name.
type FormatterFactory interface {
	CreateFormatter(format string) (output.Formatter, error)
}

// DefaultFormatterFactory builds the console and JSON formatters.
type DefaultFormatterFactory struct {
	w       io.Writer
	verbose bool
}

// NewDefaultFormatterFactory creates a factory writing to w.
func NewDefaultFormatterFactory(w io.Writer, verbose bool) *DefaultFormatterFactory {
	return &DefaultFormatterFactory{w: w, verbose: verbose}
}

// CreateFormatter returns the formatter for format.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (output.Formatter, error) {
	switch format {
	case "", "console":
		return output.NewConsoleFormatter(f.w, f.verbose), nil
	case "json":
		return output.NewJSONFormatter(f.w, true), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter picks the formatter configured for the current command.
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates a new Outputter writing to w
func NewOutputter(cfg *config.Config, w io.Writer) *Outputter {
	return NewOutputterWithFactory(cfg, NewDefaultFormatterFactory(w, cfg.Verbose))
}

// NewOutputterWithFactory creates an Outputter with a custom factory.
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{config: cfg, factory: factory}
}

// Formatter returns the formatter for the configured format.
func (o *Outputter) Formatter() (output.Formatter, error) {
	f, err := o.factory.CreateFormatter(o.config.Format)
	if err != nil {
		return nil, fmt.Errorf("error creating formatter: %w", err)
	}
	return f, nil
}
