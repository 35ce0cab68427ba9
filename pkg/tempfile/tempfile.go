package tempfile

import (
	"fmt"
	"os"

	"github.com/andeptrai/ocr-studio/pkg/logger"
)

// WithTempFile writes data into a uniquely named file and calls fn with
// its path. The file is removed on every exit path. A removal failure
// never masks fn's outcome; it is logged and dropped.
func WithTempFile(log logger.Logger, data []byte, suffix string, fn func(path string) error) error {
	f, err := os.CreateTemp("", "ocr-studio-*"+suffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove temp file",
				logger.String("path", path),
				logger.Error(err),
			)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return fn(path)
}
