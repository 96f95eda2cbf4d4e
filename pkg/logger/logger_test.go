package logger

import "testing"

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("debug", format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Fatalf("%s: debug level not enabled", format)
		}
		l.Sync()
	}
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("bad level accepted")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("bad format accepted")
	}
}
