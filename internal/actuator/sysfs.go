package actuator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultSysfsRoot is the Linux PWM class directory.
const DefaultSysfsRoot = "/sys/class/pwm"

// SysfsParams configures a Linux sysfs PWM channel.
type SysfsParams struct {
	Root     string
	Chip     int
	Channel  int
	PeriodNs int
	// ExportTimeout bounds the wait for the kernel to create the channel directory.
	ExportTimeout time.Duration
}

// Sysfs drives a PWM channel through /sys/class/pwm. The native range is
// the period in nanoseconds.
type Sysfs struct {
	dir    string
	period int
}

// NewSysfs exports the channel if needed, sets the period, zeroes the duty
// cycle and enables the output.
func NewSysfs(p SysfsParams) (*Sysfs, error) {
	if p.PeriodNs <= 0 {
		return nil, fmt.Errorf("pwm period must be positive, got %d", p.PeriodNs)
	}
	if p.Root == "" {
		p.Root = DefaultSysfsRoot
	}

	chipDir := filepath.Join(p.Root, "pwmchip"+strconv.Itoa(p.Chip))
	dir := filepath.Join(chipDir, "pwm"+strconv.Itoa(p.Channel))

	if err := export(chipDir, dir, p.Channel, p.ExportTimeout); err != nil {
		return nil, err
	}

	s := &Sysfs{dir: dir, period: p.PeriodNs}
	// duty_cycle must not exceed period, so zero it first.
	if err := s.writeAttr("duty_cycle", 0); err != nil {
		return nil, err
	}
	if err := s.writeAttr("period", p.PeriodNs); err != nil {
		return nil, err
	}
	if err := s.writeAttr("enable", 1); err != nil {
		return nil, err
	}
	return s, nil
}

func export(chipDir, dir string, channel int, timeout time.Duration) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := writeFile(filepath.Join(chipDir, "export"), channel); err != nil {
		return fmt.Errorf("failed to export pwm channel %d: %w", channel, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(dir); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", dir, err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pwm channel %s did not appear after export", dir)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Write sets duty_cycle in nanoseconds.
func (s *Sysfs) Write(duty int) error {
	if duty < 0 || duty > s.period {
		return fmt.Errorf("duty %d out of range [0, %d]", duty, s.period)
	}
	return s.writeAttr("duty_cycle", duty)
}

// NativeMax returns the period in nanoseconds.
func (s *Sysfs) NativeMax() int {
	return s.period
}

// Close disables the output. The channel stays exported.
func (s *Sysfs) Close() error {
	return s.writeAttr("enable", 0)
}

func (s *Sysfs) writeAttr(name string, v int) error {
	if err := writeFile(filepath.Join(s.dir, name), v); err != nil {
		return fmt.Errorf("failed to write pwm %s: %w", name, err)
	}
	return nil
}

func writeFile(path string, v int) error {
	// #nosec G306 - sysfs attributes, permissions are kernel-defined
	return os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644)
}

var _ Actuator = (*Sysfs)(nil)
