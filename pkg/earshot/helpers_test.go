package earshot

import (
	"io"

	"github.com/earshot/earshot/pkg/logger"
)

// testLogger returns a logger that discards all output.
func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}
