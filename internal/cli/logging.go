package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/config"
)

// newLogger builds the server logger from the log section of the config.
// Server logs go to w (stderr) so stdout stays free for echoed lines.
func newLogger(cfg config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
