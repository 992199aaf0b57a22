package actuator

import (
	"fmt"

	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/sirupsen/logrus"
)

// Logger is a dry-run actuator that only records the last duty written.
type Logger struct {
	pin       int
	nativeMax int
	last      int
	log       *log.Logger
}

// NewLogger creates a dry-run actuator for pin with the given native range.
func NewLogger(pin, nativeMax int, logger *log.Logger) (*Logger, error) {
	if nativeMax <= 0 {
		return nil, fmt.Errorf("native max must be positive, got %d", nativeMax)
	}
	return &Logger{pin: pin, nativeMax: nativeMax, log: logger}, nil
}

// Write records duty and logs it.
func (l *Logger) Write(duty int) error {
	if duty < 0 || duty > l.nativeMax {
		return fmt.Errorf("duty %d out of range [0, %d]", duty, l.nativeMax)
	}
	l.last = duty
	l.log.InfoWithFields(logrus.Fields{"pin": l.pin, "duty": duty}, "PWM duty set (dry-run)")
	return nil
}

// NativeMax returns the configured native range.
func (l *Logger) NativeMax() int {
	return l.nativeMax
}

// Last returns the last duty written.
func (l *Logger) Last() int {
	return l.last
}

// Close is a no-op.
func (l *Logger) Close() error {
	return nil
}

var _ Actuator = (*Logger)(nil)
