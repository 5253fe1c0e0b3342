package proto

import "testing"

func TestParseState(t *testing.T) {
	for _, s := range AllStates() {
		got, err := ParseState(s.String())
		if err != nil {
			t.Errorf("ParseState(%q) failed: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %q", s, got)
		}
	}

	if _, err := ParseState("DONE"); err == nil {
		t.Error("Expected error for unknown state")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateDiscovery:   false,
		StateWorking:     false,
		StateUnitTesting: false,
		StateFinished:    true,
		StateError:       true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}
