// Package actuator drives the single PWM output and maps canonical values onto its native duty range.
package actuator

// Actuator is a single PWM output. Write is synchronous; duty is in
// [0, NativeMax()].
type Actuator interface {
	Write(duty int) error
	NativeMax() int
	Close() error
}

// MapToNative scales value from [0, canonicalMax] onto [0, nativeMax],
// rounding half up, and clamps the result into [0, nativeMax].
func MapToNative(value, canonicalMax, nativeMax int) int {
	if canonicalMax <= 0 || nativeMax <= 0 {
		return 0
	}

	scaled := (int64(value)*int64(nativeMax) + int64(canonicalMax)/2) / int64(canonicalMax)
	switch {
	case scaled < 0:
		return 0
	case scaled > int64(nativeMax):
		return nativeMax
	default:
		return int(scaled)
	}
}
