package journal

import (
	"fmt"
	"strings"

	"github.com/quantumauth-io/quantum-go-utils/log"
)

// Logger routes badger's warnings and errors to the application log.
// Info and debug chatter is dropped.
type Logger struct{}

func (Logger) Errorf(format string, args ...interface{}) {
	log.Error("journal", "msg", clean(format, args...))
}

func (Logger) Warningf(format string, args ...interface{}) {
	log.Warn("journal", "msg", clean(format, args...))
}

func (Logger) Infof(string, ...interface{}) {}

func (Logger) Debugf(string, ...interface{}) {}

func clean(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
