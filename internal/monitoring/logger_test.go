package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	Logf("sampling started")
	if got != "sampling started" {
		t.Errorf("custom logger saw %q, want sampling started", got)
	}
}

func TestSetLoggerNil(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	// A nil logger becomes a no-op rather than a panic.
	SetLogger(nil)
	Logf("dropped message %d", 1)
}

func TestDefaultLogger(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must never be nil")
	}
}
