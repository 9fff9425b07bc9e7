package ai

import (
	"log/slog"

	"skillscope/internal/errors"
)

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}
