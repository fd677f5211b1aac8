package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the process-wide logger. LOG_LEVEL overrides the default
// info level.
func Init() {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			logrus.WithField("level", raw).Warn("unknown LOG_LEVEL, using info")
			return
		}
		logrus.SetLevel(level)
	}
}
