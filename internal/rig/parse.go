package rig

import (
	"errors"
	"math"
	"strconv"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

// ParseMode accepts the two wire names of Mode.
func ParseMode(text string) (Mode, error) {
	switch m := Mode(text); m {
	case FixedAngle, FixedTimeInterval:
		return m, nil
	}
	return "", &ParseError{Field: attr.Mode, Input: text}
}

// ParseNumOfPhoto parses a photo count in [MinNumOfPhoto, MaxNumOfPhoto].
func ParseNumOfPhoto(text string) (int, error) {
	return parseInt(attr.NumOfPhoto, text, MinNumOfPhoto, MaxNumOfPhoto)
}

// ParseAngle parses a step angle in [MinAngle, MaxAngle] degrees.
func ParseAngle(text string) (int, error) {
	return parseInt(attr.Angle, text, MinAngle, MaxAngle)
}

// ParseTimeInterval parses seconds between shots in
// [MinTimeInterval, MaxTimeInterval]. NaN is a parse error; infinities and
// magnitudes that overflow float64 are numbers, so they are range errors.
func ParseTimeInterval(text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(v) {
		return 0, &ParseError{Field: attr.TimeInterval, Input: text, Err: err}
	}
	if err != nil || v < MinTimeInterval || v > MaxTimeInterval {
		return 0, &RangeError{Field: attr.TimeInterval, Input: text, Min: MinTimeInterval, Max: MaxTimeInterval}
	}
	return v, nil
}

func parseInt(field attr.ID, text string, min, max int) (int, error) {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ParseError{Field: field, Input: text, Err: err}
	}
	if v < min || v > max {
		return 0, &RangeError{Field: field, Input: text, Min: float64(min), Max: float64(max)}
	}
	return v, nil
}

func formatTimeInterval(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
