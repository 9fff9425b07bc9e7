package common

import (
	"fmt"

	"skillscope/internal/errors"
	"skillscope/internal/formatters"
)

// CommandConfig is the output destination and format a command resolved
// from its flags.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders a report through the formatter registry and writes
// it to a file or stdout.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
}

// NewOutputHandler creates a handler backed by the global formatter
// registry.
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
	}
}

// HandleOutput formats data and writes it to the configured destination.
// An empty OutputFile writes to stdout.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.files.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	rendered, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		fmt.Print(rendered)
		return nil
	}

	if err := oh.files.WriteFile(config.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}
