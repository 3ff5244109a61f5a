package inject

import (
	"errors"
	"testing"
)

// recordingTap records KeyTap calls.
type recordingTap struct {
	keys [][]string
	err  error
}

func (r *recordingTap) tap(key string, args ...interface{}) error {
	call := []string{key}
	for _, a := range args {
		call = append(call, a.(string))
	}
	r.keys = append(r.keys, call)
	return r.err
}

func TestInjectorTap(t *testing.T) {
	rec := &recordingTap{}
	inj := NewInjector("S", []string{"Cmd", "shift"})
	inj.tap = rec.tap

	if err := inj.Tap(); err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if len(rec.keys) != 1 {
		t.Fatalf("taps = %v, want 1", rec.keys)
	}
	got := rec.keys[0]
	if len(got) != 3 || got[0] != "s" || got[1] != "cmd" || got[2] != "shift" {
		t.Errorf("tap = %v, want [s cmd shift]", got)
	}
	if inj.Combo() != "cmd+shift+s" {
		t.Errorf("Combo() = %q", inj.Combo())
	}
}

func TestInjectorTapEmptyKey(t *testing.T) {
	rec := &recordingTap{}
	inj := NewInjector("", nil)
	inj.tap = rec.tap

	if err := inj.Tap(); err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if len(rec.keys) != 0 {
		t.Errorf("taps = %v, want none", rec.keys)
	}
}

func TestInjectorTapError(t *testing.T) {
	boom := errors.New("no accessibility permission")
	inj := NewInjector("space", nil)
	inj.tap = (&recordingTap{err: boom}).tap

	if err := inj.Tap(); !errors.Is(err, boom) {
		t.Errorf("Tap() error = %v, want wrapped %v", err, boom)
	}
}
