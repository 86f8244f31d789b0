package testsupport

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger returns a logger that discards everything.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
