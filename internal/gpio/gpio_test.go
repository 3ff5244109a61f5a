package gpio

import "testing"

func TestMockDriverRemembersLevels(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(true) error = %v", err)
	}
	m, ok := d.(*MockDriver)
	if !ok {
		t.Fatalf("NewDriver(true) = %T, want *MockDriver", d)
	}

	if _, ok := m.Level(4); ok {
		t.Error("untouched pin should report no level")
	}
	if err := m.SetupPin(4, Output); err != nil {
		t.Fatalf("SetupPin() error = %v", err)
	}
	_ = m.WritePin(4, Low)
	_ = m.WritePin(4, High)
	if l, ok := m.Level(4); !ok || l != High {
		t.Errorf("Level(4) = %v, %v; want high", l, ok)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLevelString(t *testing.T) {
	if High.String() != "high" || Low.String() != "low" {
		t.Errorf("Level strings = %q, %q", High, Low)
	}
}
