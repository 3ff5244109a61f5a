package rig

import (
	"errors"
	"testing"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

func TestParseNumOfPhoto(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantRes Result
	}{
		{"1", 1, Success},
		{"200", 200, Success},
		{"0", 0, InvalidValue},
		{"-3", 0, InvalidValue},
		{"201", 0, InvalidValue},
		{" 5", 0, ValueError},
		{"5.0", 0, ValueError},
		{"", 0, ValueError},
	}
	for _, tt := range tests {
		got, err := ParseNumOfPhoto(tt.input)
		if res := ResultOf(err); res != tt.wantRes {
			t.Errorf("ParseNumOfPhoto(%q) result = %v, want %v", tt.input, res, tt.wantRes)
		}
		if got != tt.want {
			t.Errorf("ParseNumOfPhoto(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseAngle(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantRes Result
	}{
		{"1", 1, Success},
		{"45", 45, Success},
		{"46", 0, InvalidValue},
		{"0", 0, InvalidValue},
		{"abc", 0, ValueError},
	}
	for _, tt := range tests {
		got, err := ParseAngle(tt.input)
		if res := ResultOf(err); res != tt.wantRes {
			t.Errorf("ParseAngle(%q) result = %v, want %v", tt.input, res, tt.wantRes)
		}
		if got != tt.want {
			t.Errorf("ParseAngle(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseTimeInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantRes Result
	}{
		{"0.2", 0.2, Success},
		{"1.5", 1.5, Success},
		{"20", 20, Success},
		{"0.19", 0, InvalidValue},
		{"20.5", 0, InvalidValue},
		{"NaN", 0, ValueError},
		{"nan", 0, ValueError},
		{"Inf", 0, InvalidValue},
		{"inf", 0, InvalidValue},
		{"+Inf", 0, InvalidValue},
		{"-Inf", 0, InvalidValue},
		{"1e400", 0, InvalidValue},
		{"-1e400", 0, InvalidValue},
		{"1,5", 0, ValueError},
	}
	for _, tt := range tests {
		got, err := ParseTimeInterval(tt.input)
		if res := ResultOf(err); res != tt.wantRes {
			t.Errorf("ParseTimeInterval(%q) result = %v, want %v", tt.input, res, tt.wantRes)
		}
		if got != tt.want {
			t.Errorf("ParseTimeInterval(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"fixed_angle", "fixed_time_interval"} {
		if m, err := ParseMode(in); err != nil || string(m) != in {
			t.Errorf("ParseMode(%q) = %q, %v", in, m, err)
		}
	}
	_, err := ParseMode("Fixed_Angle")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Field != attr.Mode {
		t.Errorf("ParseMode(Fixed_Angle) error = %v, want ParseError on mode", err)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Success, "Success"},
		{ValueError, "Value error"},
		{InvalidValue, "Invalid value"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.r), got, tt.want)
		}
	}
}

func TestFormatTimeInterval(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{1.5, "1.5"},
		{20, "20"},
		{0.2, "0.2"},
	}
	for _, tt := range tests {
		if got := formatTimeInterval(tt.v); got != tt.want {
			t.Errorf("formatTimeInterval(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if got := PhaseReady.String(); got != "ready" {
		t.Errorf("PhaseReady.String() = %q", got)
	}
	text, err := PhaseMissing.MarshalText()
	if err != nil || string(text) != "missing" {
		t.Errorf("MarshalText() = %q, %v", text, err)
	}
}

func TestPhaseUnmarshalText(t *testing.T) {
	var p Phase
	if err := p.UnmarshalText([]byte("discovering_characteristics")); err != nil || p != PhaseDiscoveringCharacteristics {
		t.Errorf("UnmarshalText() = %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("warp")); err == nil {
		t.Error("UnmarshalText(warp) should fail")
	}
}
